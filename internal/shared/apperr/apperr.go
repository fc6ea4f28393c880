// Package apperr 定义业务错误分类
//
// 所有处理器以 error 形式上抛预期失败，由 httpapi 统一映射为
// HTTP 状态码和 {success:false, error} 响应体。底层存储错误
// （storage.ErrNotFound / ErrDuplicate）在这里翻译为对应分类。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind int

const (
	KindInternal     Kind = iota // 未预期的存储/传输失败
	KindBadRequest               // 输入格式错误、缺少必填字段、非法文件
	KindUnauthorized             // 令牌缺失/无效/过期、登录凭据错误
	KindForbidden                // 已认证但非所有者/管理员
	KindNotFound                 // 按 ID 查无实体
	KindConflict                 // 一人一训练营冲突、唯一键冲突
)

// Error 带分类的业务错误
type Error struct {
	Kind Kind
	Msg  string // 返回给客户端的消息
	Err  error  // 底层原因，只进日志不出站
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建指定分类的错误
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误并指定分类
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 提取错误分类，非 *Error 返回 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message 提取出站消息；Internal 类错误统一返回固定文案，不泄漏细节
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal error"
}

// Status 分类对应的 HTTP 状态码
func Status(kind Kind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
