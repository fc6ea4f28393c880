// Package bootcamp 训练营领域 - HTTP 处理
package bootcamp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/apiserver/httpapi"
	"bootcamp-admin/internal/apiserver/query"
	"bootcamp-admin/internal/shared/apperr"
	"bootcamp-admin/internal/shared/geocode"
	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/photostore"
	"bootcamp-admin/internal/shared/storage"
)

// earthRadiusKM 地球半径，半径查询把距离（公里）换算成弧度
const earthRadiusKM = 6378

// DefaultMaxUploadBytes 照片上传大小上限缺省值（1MB）
const DefaultMaxUploadBytes = 1 << 20

// Store 训练营处理器所需的存储接口
type Store interface {
	storage.BootcampStore
	storage.QueryRunner
	// DeleteCoursesByBootcamp 删除训练营时级联清理课程
	DeleteCoursesByBootcamp(ctx context.Context, bootcampID string) error
}

// Handler 训练营领域 HTTP 处理器
type Handler struct {
	store     Store
	geocoder  geocode.Geocoder
	photos    photostore.Store
	authCfg   auth.Config
	maxUpload int64 // 照片大小上限（字节）
}

// NewHandler 创建训练营处理器
func NewHandler(store Store, geocoder geocode.Geocoder, photos photostore.Store, authCfg auth.Config, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{store: store, geocoder: geocoder, photos: photos, authCfg: authCfg, maxUpload: maxUpload}
}

// RegisterRoutes 注册训练营相关路由
//
// 变更接口统一套 Protect + publisher/admin 角色门卫；
// 所有权细查在各处理函数内按重新取出的实体进行。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := auth.Protect(h.authCfg)
	publisher := auth.RequireRoles(model.UserRolePublisher, model.UserRoleAdmin)

	mux.HandleFunc("GET /api/v1/bootcamps", httpapi.Wrap(h.List))
	mux.HandleFunc("GET /api/v1/bootcamps/radius/{zipcode}/{distance}", httpapi.Wrap(h.ListInRadius))
	mux.HandleFunc("GET /api/v1/bootcamp/{id}", httpapi.Wrap(h.Get))
	mux.HandleFunc("POST /api/v1/bootcamp/create", httpapi.Wrap(protect(publisher(h.Create))))
	mux.HandleFunc("PUT /api/v1/bootcamp/{id}", httpapi.Wrap(protect(publisher(h.Update))))
	mux.HandleFunc("DELETE /api/v1/bootcamp/{id}", httpapi.Wrap(protect(publisher(h.Delete))))
	mux.HandleFunc("PUT /api/v1/bootcamp/{id}/photo", httpapi.Wrap(protect(publisher(h.UploadPhoto))))
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Website       string         `json:"website"`
	Phone         string         `json:"phone"`
	Email         string         `json:"email"`
	Address       string         `json:"address"`
	Careers       []model.Career `json:"careers"`
	Housing       bool           `json:"housing"`
	JobAssistance bool           `json:"job_assistance"`
	JobGuarantee  bool           `json:"job_guarantee"`
	AcceptGIBill  bool           `json:"accept_gi_bill"`
	AverageCost   float64        `json:"average_cost"`
}

// updatableFields 部分更新白名单；user/_id/photo/created_at 永不接受客户端值
var updatableFields = map[string]bool{
	"name":           true,
	"description":    true,
	"website":        true,
	"phone":          true,
	"email":          true,
	"careers":        true,
	"housing":        true,
	"job_assistance": true,
	"job_guarantee":  true,
	"accept_gi_bill": true,
	"average_cost":   true,
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// List 列出训练营
// GET /api/v1/bootcamps
//
// 全量查询参数交给查询翻译器：filter/sort/select/page/limit
func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	spec, err := query.Parse(r.URL.Query())
	if err != nil {
		return err
	}

	result, err := h.store.RunQuery(r.Context(), storage.ColBootcamps, spec)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "list bootcamps")
	}
	return httpapi.OKPage(w, result.Count, result.Pagination, result.Data)
}

// Get 获取单个训练营
// GET /api/v1/bootcamp/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	b, err := h.store.GetBootcamp(r.Context(), id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get bootcamp")
	}
	if b == nil {
		return apperr.New(apperr.KindNotFound, "no bootcamp found with id %s", id)
	}
	return httpapi.OK(w, http.StatusOK, b)
}

// ListInRadius 半径范围查询
// GET /api/v1/bootcamps/radius/{zipcode}/{distance}
//
// 邮编经地理编码转坐标，distance（公里）除以地球半径得到弧度半径。
func (h *Handler) ListInRadius(w http.ResponseWriter, r *http.Request) error {
	zipcode := r.PathValue("zipcode")
	distance, err := strconv.ParseFloat(r.PathValue("distance"), 64)
	if err != nil || distance <= 0 {
		return apperr.New(apperr.KindBadRequest, "distance must be a positive number")
	}

	loc, err := h.geocoder.Geocode(r.Context(), zipcode)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "geocode zipcode")
	}

	radius := distance / earthRadiusKM
	bootcamps, err := h.store.FindBootcampsWithinRadius(r.Context(), loc.Lng, loc.Lat, radius)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "radius query")
	}
	return httpapi.OKList(w, len(bootcamps), bootcamps)
}

// Create 创建训练营
// POST /api/v1/bootcamp/create
//
// 非 admin 已拥有训练营时返回 Conflict（一人一训练营）。
// 检查与写入同属一次请求，并发创建的竞态见 DESIGN.md。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	actor := auth.GetAuthUser(r.Context())

	var req createRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		return err
	}
	if req.Name == "" || req.Description == "" || req.Address == "" {
		return apperr.New(apperr.KindBadRequest, "name, description, address are required")
	}

	if actor.Role != model.UserRoleAdmin {
		existing, err := h.store.GetBootcampByOwner(r.Context(), actor.ID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "check published bootcamp")
		}
		if existing != nil {
			return apperr.New(apperr.KindConflict,
				"the user with id %s has already published a bootcamp", actor.ID)
		}
	}

	location, err := h.geocodeAddress(r.Context(), req.Address)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "geocode address")
	}

	now := time.Now()
	b := &model.Bootcamp{
		ID:            model.NewID("camp"),
		Name:          req.Name,
		Description:   req.Description,
		Website:       req.Website,
		Phone:         req.Phone,
		Email:         req.Email,
		Location:      location,
		Careers:       req.Careers,
		Housing:       req.Housing,
		JobAssistance: req.JobAssistance,
		JobGuarantee:  req.JobGuarantee,
		AcceptGIBill:  req.AcceptGIBill,
		AverageCost:   req.AverageCost,
		UserID:        actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.store.CreateBootcamp(r.Context(), b); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create bootcamp")
	}

	return httpapi.OKMsg(w, http.StatusCreated, b, "Created a new bootcamp")
}

// Update 更新训练营
// PUT /api/v1/bootcamp/{id}
//
// 先按 ID 重新取出实体做所有权检查，再应用白名单字段；
// 提交了 address 时重新地理编码并落 location。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if _, err := h.fetchOwned(r, id, "update"); err != nil {
		return err
	}

	var body map[string]interface{}
	if err := httpapi.DecodeBody(r, &body); err != nil {
		return err
	}

	fields := map[string]interface{}{}
	for k, v := range body {
		if updatableFields[k] {
			fields[k] = v
		}
	}
	if addr, ok := body["address"].(string); ok && addr != "" {
		location, err := h.geocodeAddress(r.Context(), addr)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "geocode address")
		}
		fields["location"] = location
	}
	if len(fields) == 0 {
		return apperr.New(apperr.KindBadRequest, "no updatable fields in request body")
	}

	if err := h.store.UpdateBootcamp(r.Context(), id, fields); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "no bootcamp found with id %s", id)
		}
		return apperr.Wrap(apperr.KindInternal, err, "update bootcamp")
	}

	updated, err := h.store.GetBootcamp(r.Context(), id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get bootcamp")
	}
	return httpapi.OKMsg(w, http.StatusOK, updated, fmt.Sprintf("Updated the bootcamp: %s", id))
}

// Delete 删除训练营（级联清理课程）
// DELETE /api/v1/bootcamp/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if _, err := h.fetchOwned(r, id, "delete"); err != nil {
		return err
	}

	if err := h.store.DeleteCoursesByBootcamp(r.Context(), id); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "delete courses of bootcamp")
	}
	if err := h.store.DeleteBootcamp(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "no bootcamp found with id %s", id)
		}
		return apperr.Wrap(apperr.KindInternal, err, "delete bootcamp")
	}

	return httpapi.OKMsg(w, http.StatusOK, map[string]interface{}{},
		fmt.Sprintf("Deleted bootcamp: %s", id))
}

// UploadPhoto 上传训练营照片
// PUT /api/v1/bootcamp/{id}/photo
//
// multipart 字段名 file；仅接受 image/* 且不超过配置上限。
// 文件名固定为 photo_<id><ext>，重传自然覆盖。
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if _, err := h.fetchOwned(r, id, "update"); err != nil {
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1024)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, err, "please upload a file")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return apperr.New(apperr.KindBadRequest, "please upload a file")
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		return apperr.New(apperr.KindBadRequest,
			"please upload an image less than %d bytes", h.maxUpload)
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return apperr.New(apperr.KindBadRequest, "please upload an image file")
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		return apperr.New(apperr.KindBadRequest, "file name must carry an extension")
	}

	name := fmt.Sprintf("photo_%s%s", id, ext)
	if err := h.photos.Save(r.Context(), name, file, header.Size, contentType); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "problem with file upload")
	}

	if err := h.store.UpdateBootcamp(r.Context(), id, map[string]interface{}{"photo": name}); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "update bootcamp photo")
	}
	return httpapi.OK(w, http.StatusOK, name)
}

// ============================================================================
// 辅助函数
// ============================================================================

// fetchOwned 按 ID 取出训练营并做所有权检查
func (h *Handler) fetchOwned(r *http.Request, id, action string) (*model.Bootcamp, error) {
	b, err := h.store.GetBootcamp(r.Context(), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "get bootcamp")
	}
	if b == nil {
		return nil, apperr.New(apperr.KindNotFound, "no bootcamp found with id %s", id)
	}

	actor := auth.GetAuthUser(r.Context())
	if !auth.CanManage(actor, b.UserID) {
		return nil, apperr.New(apperr.KindForbidden,
			"user %s is not authorized to %s this bootcamp", actor.ID, action)
	}
	return b, nil
}

// geocodeAddress 地址 → GeoJSON Point
func (h *Handler) geocodeAddress(ctx context.Context, address string) (*model.Location, error) {
	loc, err := h.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	return &model.Location{
		Type:             "Point",
		Coordinates:      []float64{loc.Lng, loc.Lat},
		FormattedAddress: loc.FormattedAddress,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.Zipcode,
		Country:          loc.Country,
	}, nil
}
