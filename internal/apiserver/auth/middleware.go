package auth

import (
	"net/http"
	"strings"

	"bootcamp-admin/internal/apiserver/httpapi"
	"bootcamp-admin/internal/shared/apperr"
	"bootcamp-admin/internal/shared/model"
)

// CookieName 会话令牌 cookie 名
const CookieName = "token"

// Protect 会话认证中间件
//
// 优先取 Authorization: Bearer 头，其次取 token cookie；
// 解析成功后把 AuthUser 注入 context。
func Protect(cfg Config) httpapi.Middleware {
	return func(next httpapi.HandlerFunc) httpapi.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(CookieName); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				return apperr.New(apperr.KindUnauthorized, "not authorized to access this route")
			}

			claims, err := ParseToken(cfg, raw)
			if err != nil {
				return apperr.Wrap(apperr.KindUnauthorized, err, "not authorized to access this route")
			}

			user := &AuthUser{
				ID:    claims.Subject,
				Email: claims.Email,
				Role:  model.UserRole(claims.Role),
			}
			return next(w, r.WithContext(WithAuthUser(r.Context(), user)))
		}
	}
}

// RequireRoles 角色门卫，必须套在 Protect 之内
func RequireRoles(roles ...model.UserRole) httpapi.Middleware {
	return func(next httpapi.HandlerFunc) httpapi.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			user := GetAuthUser(r.Context())
			if user == nil {
				return apperr.New(apperr.KindUnauthorized, "not authorized to access this route")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(w, r)
				}
			}
			return apperr.New(apperr.KindForbidden,
				"user role %q is not authorized to access this route", user.Role)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
