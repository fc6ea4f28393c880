// 训练营接口 HTTP 测试
package bootcamp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/shared/geocode"
	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage"
)

// fakeGeocoder 固定坐标，记录每次查询的地址
type fakeGeocoder struct {
	calls []string
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*geocode.Location, error) {
	g.calls = append(g.calls, address)
	return &geocode.Location{
		Lng:              -71.104028,
		Lat:              42.350846,
		FormattedAddress: address,
		City:             "Boston",
		Zipcode:          "02215",
		Country:          "US",
	}, nil
}

type testEnv struct {
	mux      *http.ServeMux
	store    *storage.MockStore
	geocoder *fakeGeocoder
	cfg      auth.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := auth.DefaultConfig()
	cfg.JWTSecret = "test-secret"

	store := storage.NewMockStore()
	g := &fakeGeocoder{}
	h := NewHandler(store, g, memPhotoStore{}, cfg, 0)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testEnv{mux: mux, store: store, geocoder: g, cfg: cfg}
}

// memPhotoStore 丢弃内容的照片存储
type memPhotoStore struct{}

func (memPhotoStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	return nil
}

// seedUser 入库一个用户并返回其 Bearer 令牌
func (e *testEnv) seedUser(t *testing.T, id string, role model.UserRole) string {
	t.Helper()
	u := &model.User{ID: id, Name: id, Email: id + "@example.com", Role: role}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	token, err := auth.GenerateToken(e.cfg, u)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func bodyJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const createBody = `{"name":"Devworks","description":"Full stack bootcamp","address":"233 Bay State Rd Boston","careers":["Web Development"],"housing":true,"average_cost":10000}`

// ============================================================================
// 创建
// ============================================================================

// TestCreate_PublisherSucceeds 发布者创建成功，owner 取自令牌
func TestCreate_PublisherSucceeds(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "user-pub1", model.UserRolePublisher)

	rec := env.do("POST", "/api/v1/bootcamp/create", token, createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := bodyJSON(t, rec)
	assert.Equal(t, "Created a new bootcamp", body["msg"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "user-pub1", data["user"])

	// 地址走了地理编码，落库的是 location
	loc := data["location"].(map[string]interface{})
	assert.Equal(t, "Point", loc["type"])
	require.Len(t, env.geocoder.calls, 1)
}

// TestCreate_SecondBootcampConflicts 非 admin 一人一训练营
func TestCreate_SecondBootcampConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "user-pub1", model.UserRolePublisher)

	require.Equal(t, http.StatusCreated, env.do("POST", "/api/v1/bootcamp/create", token, createBody).Code)

	rec := env.do("POST", "/api/v1/bootcamp/create", token, createBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, bodyJSON(t, rec)["error"], "already published")
}

// TestCreate_AdminOwnsMany admin 不受一人一训练营限制
func TestCreate_AdminOwnsMany(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "user-adm1", model.UserRoleAdmin)

	assert.Equal(t, http.StatusCreated, env.do("POST", "/api/v1/bootcamp/create", token, createBody).Code)
	assert.Equal(t, http.StatusCreated, env.do("POST", "/api/v1/bootcamp/create", token, createBody).Code)
}

// TestCreate_RoleGate user 角色与匿名都进不来
func TestCreate_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.seedUser(t, "user-plain", model.UserRoleUser)

	assert.Equal(t, http.StatusForbidden, env.do("POST", "/api/v1/bootcamp/create", userToken, createBody).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do("POST", "/api/v1/bootcamp/create", "", createBody).Code)
}

// TestCreate_RequiredFields 缺必填字段返回 400
func TestCreate_RequiredFields(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "user-pub1", model.UserRolePublisher)

	rec := env.do("POST", "/api/v1/bootcamp/create", token, `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// 列表 / 详情
// ============================================================================

func (e *testEnv) seedBootcamp(t *testing.T, id, owner string, cost float64) {
	t.Helper()
	now := time.Now()
	require.NoError(t, e.store.CreateBootcamp(context.Background(), &model.Bootcamp{
		ID: id, Name: "Camp " + id, Description: "d", UserID: owner,
		AverageCost: cost, Careers: []model.Career{model.CareerWebDevelopment},
		Location: &model.Location{Type: "Point", Coordinates: []float64{-71.1, 42.35}, City: "Boston"},
		CreatedAt: now, UpdatedAt: now,
	}))
}

// TestList_FilterAndPaginate 操作符过滤 + 分页元数据
func TestList_FilterAndPaginate(t *testing.T) {
	env := newTestEnv(t)
	for i := 1; i <= 7; i++ {
		env.seedBootcamp(t, fmt.Sprintf("camp-%02d", i), fmt.Sprintf("user-%02d", i), float64(i*1000))
	}

	// cost > 2000 共 5 个，limit=2 page=2 → count=2 且有 next/prev
	rec := env.do("GET", "/api/v1/bootcamps?average_cost[gt]=2000&limit=2&page=2&sort=average_cost", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := bodyJSON(t, rec)
	assert.Equal(t, float64(2), body["count"])
	pagination := body["pagination"].(map[string]interface{})
	assert.NotNil(t, pagination["next"])
	assert.NotNil(t, pagination["prev"])

	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, float64(5000), first["average_cost"])
}

// TestList_UnknownOperatorRejected 未知操作符 → 400
func TestList_UnknownOperatorRejected(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/api/v1/bootcamps?average_cost[foo]=1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestList_SelectProjection select 只保留指定字段和 _id
func TestList_SelectProjection(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootcamp(t, "camp-01", "user-01", 1000)

	rec := env.do("GET", "/api/v1/bootcamps?select=name", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := bodyJSON(t, rec)["data"].([]interface{})
	require.Len(t, data, 1)
	doc := data[0].(map[string]interface{})
	assert.Contains(t, doc, "name")
	assert.Contains(t, doc, "_id")
	assert.NotContains(t, doc, "description")
}

// TestGet_IDKeyMatchesList 详情和列表的 ID 键一致（均为 _id）
func TestGet_IDKeyMatchesList(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootcamp(t, "camp-01", "user-01", 1000)

	rec := env.do("GET", "/api/v1/bootcamp/camp-01", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	single := bodyJSON(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "camp-01", single["_id"])
	assert.NotContains(t, single, "id")

	rec = env.do("GET", "/api/v1/bootcamps", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := bodyJSON(t, rec)["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "camp-01", listed["_id"])
}

// TestGet_NotFound 不存在的 ID → 404
func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do("GET", "/api/v1/bootcamp/camp-nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================================
// 更新 / 删除所有权
// ============================================================================

// TestUpdate_OwnershipEnforced 非所有者 403，所有者与 admin 放行
func TestUpdate_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.seedUser(t, "user-owner", model.UserRolePublisher)
	otherToken := env.seedUser(t, "user-other", model.UserRolePublisher)
	adminToken := env.seedUser(t, "user-admin", model.UserRoleAdmin)
	env.seedBootcamp(t, "camp-01", "user-owner", 1000)

	patch := `{"name":"Renamed"}`
	assert.Equal(t, http.StatusForbidden, env.do("PUT", "/api/v1/bootcamp/camp-01", otherToken, patch).Code)
	assert.Equal(t, http.StatusOK, env.do("PUT", "/api/v1/bootcamp/camp-01", ownerToken, patch).Code)
	assert.Equal(t, http.StatusOK, env.do("PUT", "/api/v1/bootcamp/camp-01", adminToken, `{"name":"Admin Renamed"}`).Code)

	b, err := env.store.GetBootcamp(context.Background(), "camp-01")
	require.NoError(t, err)
	assert.Equal(t, "Admin Renamed", b.Name)
}

// TestUpdate_OwnerFieldIgnored user 字段不在白名单，提交也不生效
func TestUpdate_OwnerFieldIgnored(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.seedUser(t, "user-owner", model.UserRolePublisher)
	env.seedBootcamp(t, "camp-01", "user-owner", 1000)

	rec := env.do("PUT", "/api/v1/bootcamp/camp-01", ownerToken, `{"name":"n2","user":"user-hacker"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	b, err := env.store.GetBootcamp(context.Background(), "camp-01")
	require.NoError(t, err)
	assert.Equal(t, "user-owner", b.UserID)
}

// TestUpdate_AddressTriggersGeocode 提交 address 时重新编码出 location
func TestUpdate_AddressTriggersGeocode(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.seedUser(t, "user-owner", model.UserRolePublisher)
	env.seedBootcamp(t, "camp-01", "user-owner", 1000)

	rec := env.do("PUT", "/api/v1/bootcamp/camp-01", ownerToken, `{"address":"New Street 1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, env.geocoder.calls, 1)
	assert.Equal(t, "New Street 1", env.geocoder.calls[0])
}

// TestDelete_CascadesCourses 删除训练营连带清空其课程
func TestDelete_CascadesCourses(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.seedUser(t, "user-owner", model.UserRolePublisher)
	env.seedBootcamp(t, "camp-01", "user-owner", 1000)
	env.seedBootcamp(t, "camp-02", "user-keep", 2000)

	now := time.Now()
	for i, campID := range []string{"camp-01", "camp-01", "camp-02"} {
		require.NoError(t, env.store.CreateCourse(context.Background(), &model.Course{
			ID: fmt.Sprintf("course-%02d", i), Title: "c", BootcampID: campID,
			UserID: "user-owner", CreatedAt: now, UpdatedAt: now,
		}))
	}

	rec := env.do("DELETE", "/api/v1/bootcamp/camp-01", ownerToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	gone, err := env.store.GetBootcamp(context.Background(), "camp-01")
	require.NoError(t, err)
	assert.Nil(t, gone)

	orphans, err := env.store.ListCoursesByBootcamp(context.Background(), "camp-01")
	require.NoError(t, err)
	assert.Empty(t, orphans)

	survivors, err := env.store.ListCoursesByBootcamp(context.Background(), "camp-02")
	require.NoError(t, err)
	assert.Len(t, survivors, 1)
}

// ============================================================================
// 半径查询 / 照片上传
// ============================================================================

// TestListInRadius 邮编经地理编码后按半径过滤
func TestListInRadius(t *testing.T) {
	env := newTestEnv(t)
	env.seedBootcamp(t, "camp-near", "user-a", 1000) // 种子坐标即编码结果附近

	far := &model.Bootcamp{
		ID: "camp-far", Name: "Far", Description: "d", UserID: "user-b",
		Location:  &model.Location{Type: "Point", Coordinates: []float64{120.0, 30.0}},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, env.store.CreateBootcamp(context.Background(), far))

	rec := env.do("GET", "/api/v1/bootcamps/radius/02215/100", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := bodyJSON(t, rec)
	assert.Equal(t, float64(1), body["count"])
}

// TestListInRadius_BadDistance 距离必须为正数
func TestListInRadius_BadDistance(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/v1/bootcamps/radius/02215/abc", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/v1/bootcamps/radius/02215/-5", "", "").Code)
}

// TestUploadPhoto 成功上传后 photo 字段落库
func TestUploadPhoto(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.seedUser(t, "user-owner", model.UserRolePublisher)
	env.seedBootcamp(t, "camp-01", "user-owner", 1000)

	rec := env.doUpload(t, "/api/v1/bootcamp/camp-01/photo", ownerToken, "photo.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "photo_camp-01.jpg", bodyJSON(t, rec)["data"])

	b, err := env.store.GetBootcamp(context.Background(), "camp-01")
	require.NoError(t, err)
	assert.Equal(t, "photo_camp-01.jpg", b.Photo)
}

// TestUploadPhoto_RejectsNonImage 非图片 Content-Type → 400
func TestUploadPhoto_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.seedUser(t, "user-owner", model.UserRolePublisher)
	env.seedBootcamp(t, "camp-01", "user-owner", 1000)

	rec := env.doUpload(t, "/api/v1/bootcamp/camp-01/photo", ownerToken, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// doUpload 构造 multipart 上传请求
func (e *testEnv) doUpload(t *testing.T, path, token, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("PUT", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}
