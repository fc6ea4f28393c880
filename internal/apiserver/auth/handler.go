package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"bootcamp-admin/internal/apiserver/httpapi"
	"bootcamp-admin/internal/shared/apperr"
	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage"
)

// UserStore 认证所需的用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	SetUserResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	ClearUserResetToken(ctx context.Context, id string) error
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
}

// Mailer 出站邮件接口（重置令牌投递）
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store  UserStore
	cfg    Config
	mailer Mailer
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config, mailer Mailer) *Handler {
	return &Handler{store: store, cfg: cfg, mailer: mailer}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := Protect(h.cfg)

	mux.HandleFunc("POST /api/v1/auth/register", httpapi.Wrap(h.Register))
	mux.HandleFunc("POST /api/v1/auth/login", httpapi.Wrap(h.Login))
	mux.HandleFunc("GET /api/v1/auth/me", httpapi.Wrap(protect(h.Me)))
	mux.HandleFunc("POST /api/v1/auth/forgotpassword", httpapi.Wrap(h.ForgotPassword))
	mux.HandleFunc("PUT /api/v1/auth/resetpassword/{resetToken}", httpapi.Wrap(h.ResetPassword))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
// POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		return err
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperr.New(apperr.KindBadRequest, "name, email, password are required")
	}
	if !isValidEmail(req.Email) {
		return apperr.New(apperr.KindBadRequest, "invalid email format")
	}
	if len(req.Password) < 6 {
		return apperr.New(apperr.KindBadRequest, "password must be at least 6 characters")
	}

	// 角色缺省为 user；admin 不能自助注册
	role := model.UserRoleUser
	if req.Role != "" {
		role = model.UserRole(req.Role)
		if !role.Registerable() {
			return apperr.New(apperr.KindBadRequest, "role must be user or publisher")
		}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "hash password")
	}

	now := time.Now()
	user := &model.User{
		ID:           model.NewID("user"),
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return apperr.New(apperr.KindConflict, "email already registered")
		}
		return apperr.Wrap(apperr.KindInternal, err, "create user")
	}

	return h.writeTokenResponse(w, http.StatusOK, user)
}

// Login 用户登录
// POST /api/v1/auth/login
//
// 未知邮箱与密码错误返回同一个 401 文案，避免账号枚举。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperr.New(apperr.KindBadRequest, "please provide an email and password")
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get user")
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		return apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	return h.writeTokenResponse(w, http.StatusOK, user)
}

// Me 当前登录用户信息
// GET /api/v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	actor := GetAuthUser(r.Context())
	user, err := h.store.GetUserByID(r.Context(), actor.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get user")
	}
	if user == nil {
		return apperr.New(apperr.KindNotFound, "no user found with id %s", actor.ID)
	}
	return httpapi.OK(w, http.StatusOK, user)
}

// ForgotPassword 申请密码重置
// POST /api/v1/auth/forgotpassword
//
// 无论邮箱是否注册都返回同一个 201 响应体（防枚举）。
// 邮件发送失败会回滚刚写入的重置字段再上抛 Internal。
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req forgotPasswordRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return apperr.New(apperr.KindBadRequest, "email is required")
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get user")
	}
	if user == nil {
		return httpapi.OK(w, http.StatusCreated, "Email sent")
	}

	token, tokenHash, err := NewResetToken()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "generate reset token")
	}
	expire := time.Now().Add(h.cfg.ResetTokenTTL)
	if err := h.store.SetUserResetToken(r.Context(), user.ID, tokenHash, expire); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "set reset token")
	}

	resetURL := fmt.Sprintf("%s://%s/api/v1/auth/resetpassword/%s", requestScheme(r), r.Host, token)
	body := fmt.Sprintf("You are receiving this email because you or someone else has requested "+
		"a password reset. Please make a PUT request to:\n\n%s", resetURL)

	if err := h.mailer.Send(r.Context(), user.Email, "Password reset token", body); err != nil {
		// 回滚重置字段，令牌作废
		if clearErr := h.store.ClearUserResetToken(r.Context(), user.ID); clearErr != nil {
			err = fmt.Errorf("%w (rollback failed: %v)", err, clearErr)
		}
		return apperr.Wrap(apperr.KindInternal, err, "email could not be sent")
	}

	return httpapi.OK(w, http.StatusCreated, "Email sent")
}

// ResetPassword 完成密码重置
// PUT /api/v1/auth/resetpassword/{resetToken}
//
// 查找条件同时要求哈希匹配且未过期；成功后清除重置字段并签发新会话令牌，
// 同一令牌第二次提交必然失败。
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	var req resetPasswordRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		return err
	}
	if len(req.Password) < 6 {
		return apperr.New(apperr.KindBadRequest, "password must be at least 6 characters")
	}

	tokenHash := HashResetToken(r.PathValue("resetToken"))
	user, err := h.store.GetUserByResetToken(r.Context(), tokenHash, time.Now())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "get user by reset token")
	}
	if user == nil {
		return apperr.New(apperr.KindBadRequest, "invalid token")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "hash password")
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "update password")
	}
	if err := h.store.ClearUserResetToken(r.Context(), user.ID); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "clear reset token")
	}

	return h.writeTokenResponse(w, http.StatusOK, user)
}

// writeTokenResponse 签发会话令牌：JSON 体 + http-only cookie
func (h *Handler) writeTokenResponse(w http.ResponseWriter, status int, user *model.User) error {
	token, err := GenerateToken(h.cfg, user)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "sign token")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.cfg.CookieExpireDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		Path:     "/",
	})

	httpapi.WriteJSON(w, status, map[string]interface{}{
		"success":      true,
		"access_token": token,
	})
	return nil
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
