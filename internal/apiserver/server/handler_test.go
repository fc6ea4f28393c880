// 路由装配与中间件测试
package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/shared/geocode"
	"bootcamp-admin/internal/shared/storage"
)

type noopGeocoder struct{}

func (noopGeocoder) Geocode(ctx context.Context, address string) (*geocode.Location, error) {
	return &geocode.Location{Lng: -71.1, Lat: 42.35}, nil
}

type noopPhotoStore struct{}

func (noopPhotoStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, to, subject, body string) error { return nil }

func newTestRouter(origins []string) http.Handler {
	cfg := auth.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	h := NewHandler(storage.NewMockStore(), noopGeocoder{}, noopPhotoStore{}, noopMailer{}, Options{
		AuthConfig:  cfg,
		CORSOrigins: origins,
	})
	return h.Router()
}

// TestRouter_Health 健康检查直通
func TestRouter_Health(t *testing.T) {
	router := newTestRouter([]string{"*"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// TestRouter_DomainRoutesMounted 各领域路由都挂上了
func TestRouter_DomainRoutesMounted(t *testing.T) {
	router := newTestRouter([]string{"*"})

	cases := []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/v1/bootcamps", http.StatusOK},
		{"GET", "/api/v1/courses", http.StatusOK},
		{"GET", "/api/v1/bootcamp/camp-x", http.StatusNotFound},
		{"GET", "/api/v1/auth/me", http.StatusUnauthorized},
		{"POST", "/api/v1/bootcamp/create", http.StatusUnauthorized},
		{"GET", "/metrics", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}

// TestCORS_AllowedOrigin 白名单来源回显并带凭据头
func TestCORS_AllowedOrigin(t *testing.T) {
	router := newTestRouter([]string{"https://admin.example.com"})

	req := httptest.NewRequest("GET", "/api/v1/bootcamps", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

// TestCORS_UnknownOriginRejected 名单外来源直接 403，不进入路由
func TestCORS_UnknownOriginRejected(t *testing.T) {
	router := newTestRouter([]string{"https://admin.example.com"})

	for _, method := range []string{"GET", "OPTIONS"} {
		req := httptest.NewRequest(method, "/api/v1/bootcamps", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, method)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), method)
	}
}

// TestCORS_NoOriginPassesThrough 不带 Origin 头视为同源放行
func TestCORS_NoOriginPassesThrough(t *testing.T) {
	router := newTestRouter([]string{"https://admin.example.com"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/bootcamps", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// TestCORS_Preflight OPTIONS 预检直接 200 返回
func TestCORS_Preflight(t *testing.T) {
	router := newTestRouter([]string{"*"})

	req := httptest.NewRequest("OPTIONS", "/api/v1/bootcamps", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

// TestNormalizePath 指标路径归一化
func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/v1/bootcamp/camp-123":           "/api/v1/bootcamp/{id}",
		"/api/v1/bootcamp/camp-123/photo":     "/api/v1/bootcamp/{id}/photo",
		"/api/v1/bootcamp/camp-123/courses":   "/api/v1/bootcamp/{id}/courses",
		"/api/v1/bootcamps/camp-123/course":   "/api/v1/bootcamps/{id}/course",
		"/api/v1/course/course-9":             "/api/v1/course/{id}",
		"/api/v1/bootcamps/radius/02215/100":  "/api/v1/bootcamps/radius/{zipcode}/{distance}",
		"/api/v1/auth/resetpassword/deadbeef": "/api/v1/auth/resetpassword/{token}",
		"/api/v1/bootcamps":                   "/api/v1/bootcamps",
		"/health":                             "/health",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePath(in), in)
	}
}
