// Package course 课程领域 - HTTP 处理
package course

import (
	"errors"
	"net/http"
	"time"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/apiserver/httpapi"
	"bootcamp-admin/internal/apiserver/query"
	"bootcamp-admin/internal/shared/apperr"
	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage"
)

// Handler 课程领域 HTTP 处理器
type Handler struct {
	store   courseStore
	authCfg auth.Config
}

type courseStore interface {
	storage.CourseStore
	storage.BootcampStore
	storage.QueryRunner
}

// NewHandler 创建课程处理器
func NewHandler(store courseStore, authCfg auth.Config) *Handler {
	return &Handler{store: store, authCfg: authCfg}
}

// RegisterRoutes 注册课程相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := auth.Protect(h.authCfg)
	publisher := auth.RequireRoles(model.UserRolePublisher, model.UserRoleAdmin)

	mux.HandleFunc("GET /api/v1/courses", httpapi.Wrap(h.List))
	mux.HandleFunc("GET /api/v1/bootcamp/{id}/courses", httpapi.Wrap(h.ListByBootcamp))
	mux.HandleFunc("GET /api/v1/course/{id}", httpapi.Wrap(h.Get))
	mux.HandleFunc("POST /api/v1/bootcamps/{bootcampId}/course", httpapi.Wrap(protect(publisher(h.Create))))
	mux.HandleFunc("PUT /api/v1/course/{id}", httpapi.Wrap(protect(publisher(h.Update))))
	mux.HandleFunc("DELETE /api/v1/course/{id}", httpapi.Wrap(protect(publisher(h.Delete))))
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Weeks                int     `json:"weeks"`
	Tuition              float64 `json:"tuition"`
	MinimumSkill         string  `json:"minimum_skill"`
	ScholarshipAvailable bool    `json:"scholarship_available"`
}

// updatableFields 部分更新白名单；bootcamp/user/_id/created_at 永不接受客户端值
var updatableFields = map[string]bool{
	"title":                 true,
	"description":           true,
	"weeks":                 true,
	"tuition":               true,
	"minimum_skill":         true,
	"scholarship_available": true,
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// List 列出全部课程
// GET /api/v1/courses
//
// 走查询翻译器，并把 bootcamp 外键填充为 {name, description}
func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	spec, err := query.Parse(r.URL.Query())
	if err != nil {
		return err
	}
	spec.WithPopulate("bootcamp", storage.ColBootcamps, "name", "description")

	result, err := h.store.RunQuery(r.Context(), storage.ColCourses, spec)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "list courses")
	}
	return httpapi.OKPage(w, result.Count, result.Pagination, result.Data)
}

// ListByBootcamp 列出某训练营下的课程（平铺，不分页）
// GET /api/v1/bootcamp/{id}/courses
func (h *Handler) ListByBootcamp(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	courses, err := h.store.ListCoursesByBootcamp(r.Context(), id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "list courses of bootcamp")
	}
	return httpapi.OKList(w, len(courses), courses)
}

// Get 获取单个课程（内嵌所属训练营的 name/description）
// GET /api/v1/course/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	c, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get course")
	}
	if c == nil {
		return apperr.New(apperr.KindNotFound, "no course found with id %s", id)
	}

	payload := map[string]interface{}{
		"_id":                   c.ID,
		"title":                 c.Title,
		"description":           c.Description,
		"weeks":                 c.Weeks,
		"tuition":               c.Tuition,
		"minimum_skill":         c.MinimumSkill,
		"scholarship_available": c.ScholarshipAvailable,
		"user":                  c.UserID,
		"created_at":            c.CreatedAt,
		"updated_at":            c.UpdatedAt,
		"bootcamp":              c.BootcampID,
	}
	if b, err := h.store.GetBootcamp(r.Context(), c.BootcampID); err == nil && b != nil {
		payload["bootcamp"] = map[string]interface{}{
			"_id":         b.ID,
			"name":        b.Name,
			"description": b.Description,
		}
	}
	return httpapi.OK(w, http.StatusOK, payload)
}

// Create 在指定训练营下创建课程
// POST /api/v1/bootcamps/{bootcampId}/course
//
// 所有权按父训练营的 owner 检查；课程的 user 字段在此刻固化为
// 该 owner，之后训练营转让也不回溯。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	bootcampID := r.PathValue("bootcampId")

	b, err := h.store.GetBootcamp(r.Context(), bootcampID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get bootcamp")
	}
	if b == nil {
		return apperr.New(apperr.KindNotFound, "no bootcamp found with id %s", bootcampID)
	}

	actor := auth.GetAuthUser(r.Context())
	if !auth.CanManage(actor, b.UserID) {
		return apperr.New(apperr.KindForbidden,
			"user %s is not authorized to add a course to bootcamp %s", actor.ID, bootcampID)
	}

	var req createRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		return err
	}
	if req.Title == "" || req.Description == "" {
		return apperr.New(apperr.KindBadRequest, "title, description are required")
	}
	skill := model.CourseSkill(req.MinimumSkill)
	if req.MinimumSkill != "" && !skill.Valid() {
		return apperr.New(apperr.KindBadRequest,
			"minimum_skill must be beginner, intermediate or advanced")
	}
	if skill == "" {
		skill = model.CourseSkillBeginner
	}

	now := time.Now()
	c := &model.Course{
		ID:                   model.NewID("course"),
		Title:                req.Title,
		Description:          req.Description,
		Weeks:                req.Weeks,
		Tuition:              req.Tuition,
		MinimumSkill:         skill,
		ScholarshipAvailable: req.ScholarshipAvailable,
		BootcampID:           bootcampID,
		UserID:               b.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := h.store.CreateCourse(r.Context(), c); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "create course")
	}
	return httpapi.OK(w, http.StatusOK, c)
}

// Update 更新课程
// PUT /api/v1/course/{id}
//
// 所有权看课程自身的 user 字段（创建时固化）。
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
	if skill, ok := fields["minimum_skill"].(string); ok && !model.CourseSkill(skill).Valid() {
		return apperr.New(apperr.KindBadRequest,
			"minimum_skill must be beginner, intermediate or advanced")
	}
	if len(fields) == 0 {
		return apperr.New(apperr.KindBadRequest, "no updatable fields in request body")
	}

	if err := h.store.UpdateCourse(r.Context(), id, fields); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "no course found with id %s", id)
		}
		return apperr.Wrap(apperr.KindInternal, err, "update course")
	}

	updated, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get course")
	}
	return httpapi.OK(w, http.StatusOK, updated)
}

// Delete 删除课程
// DELETE /api/v1/course/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if _, err := h.fetchOwned(r, id, "delete"); err != nil {
		return err
	}

	if err := h.store.DeleteCourse(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "no course found with id %s", id)
		}
		return apperr.Wrap(apperr.KindInternal, err, "delete course")
	}
	return httpapi.OKMsg(w, http.StatusOK, map[string]interface{}{}, "Course deleted")
}

// fetchOwned 按 ID 取出课程并做所有权检查
func (h *Handler) fetchOwned(r *http.Request, id, action string) (*model.Course, error) {
	c, err := h.store.GetCourse(r.Context(), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "get course")
	}
	if c == nil {
		return nil, apperr.New(apperr.KindNotFound, "no course found with id %s", id)
	}

	actor := auth.GetAuthUser(r.Context())
	if !auth.CanManage(actor, c.UserID) {
		return nil, apperr.New(apperr.KindForbidden,
			"user %s is not authorized to %s course %s", actor.ID, action, id)
	}
	return c, nil
}
