// Package server 路由配置与核心基础设施
//
// 本包实现训练营目录系统的 RESTful API 入口，将请求分发到
// 各领域独立包（auth / bootcamp / course）。
//
// 文件组织：
//   - handler.go: Handler 定义与路由装配
//   - metrics.go: Prometheus 指标
//   - cors.go: CORS 中间件
package server

import (
	"net/http"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/apiserver/bootcamp"
	"bootcamp-admin/internal/apiserver/course"
	"bootcamp-admin/internal/shared/geocode"
	"bootcamp-admin/internal/shared/photostore"
	"bootcamp-admin/internal/shared/storage"
)

// Options 装配参数
type Options struct {
	AuthConfig     auth.Config
	CORSOrigins    []string // 允许的跨域来源；空表示拒绝全部，"*" 表示放行全部
	MaxUploadBytes int64    // 照片上传大小上限
}

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域处理器
//   - 管理存储层连接
//   - 装配指标与 CORS 中间件
type Handler struct {
	store    storage.Store
	geocoder geocode.Geocoder
	photos   photostore.Store
	mailer   auth.Mailer
	opts     Options

	metrics *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.Store, geocoder geocode.Geocoder, photos photostore.Store, mailer auth.Mailer, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = bootcamp.DefaultMaxUploadBytes
	}
	return &Handler{
		store:    store,
		geocoder: geocoder,
		photos:   photos,
		mailer:   mailer,
		opts:     opts,
		metrics:  NewMetrics("api"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register                     - 注册
//   - POST /api/v1/auth/login                        - 登录
//   - GET  /api/v1/auth/me                           - 当前用户
//   - POST /api/v1/auth/forgotpassword               - 发送重置邮件
//   - PUT  /api/v1/auth/resetpassword/{resetToken}   - 重置密码
//
// 训练营 (Bootcamp):
//   - GET    /api/v1/bootcamps                       - 列表（过滤/排序/分页）
//   - GET    /api/v1/bootcamps/radius/{zipcode}/{distance} - 半径检索
//   - GET    /api/v1/bootcamp/{id}                   - 详情
//   - POST   /api/v1/bootcamp/create                 - 创建
//   - PUT    /api/v1/bootcamp/{id}                   - 更新
//   - DELETE /api/v1/bootcamp/{id}                   - 删除（级联课程）
//   - PUT    /api/v1/bootcamp/{id}/photo             - 上传照片
//
// 课程 (Course):
//   - GET    /api/v1/courses                         - 列表（bootcamp 填充）
//   - GET    /api/v1/bootcamp/{id}/courses           - 某训练营下课程
//   - GET    /api/v1/course/{id}                     - 详情
//   - POST   /api/v1/bootcamps/{bootcampId}/course   - 创建
//   - PUT    /api/v1/course/{id}                     - 更新
//   - DELETE /api/v1/course/{id}                     - 删除
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", h.metrics.Handler())

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.opts.AuthConfig, h.mailer)
	authHandler.RegisterRoutes(mux)

	// Bootcamp 接口
	bootcampHandler := bootcamp.NewHandler(h.store, h.geocoder, h.photos, h.opts.AuthConfig, h.opts.MaxUploadBytes)
	bootcampHandler.RegisterRoutes(mux)

	// Course 接口
	courseHandler := course.NewHandler(h.store, h.opts.AuthConfig)
	courseHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用 CORS 中间件
	return corsMiddleware(h.opts.CORSOrigins, apiHandler)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
