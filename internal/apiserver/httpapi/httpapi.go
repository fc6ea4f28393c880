// Package httpapi 提供 HTTP 响应封装与集中错误映射
//
// 处理器统一写成 func(w, r) error：预期失败以 apperr 分类错误上抛，
// 由 Wrap 统一映射状态码并输出 {success:false, error}；
// Internal 类错误只进日志，出站固定文案，不泄漏堆栈。
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"bootcamp-admin/internal/shared/apperr"
)

// HandlerFunc 可返回错误的处理函数
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Middleware HandlerFunc 级中间件
type Middleware func(HandlerFunc) HandlerFunc

// Wrap 转为标准 http.HandlerFunc，集中处理错误
func Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		kind := apperr.KindOf(err)
		if kind == apperr.KindInternal {
			log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, err)
		}
		WriteJSON(w, apperr.Status(kind), Envelope{
			Success: false,
			Error:   apperr.Message(err),
		})
	}
}

// Envelope 统一响应体
type Envelope struct {
	Success    bool        `json:"success"`
	Count      *int        `json:"count,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Msg        string      `json:"msg,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// WriteJSON 将数据以 JSON 格式写入 HTTP 响应
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// OK 输出 {success:true, data}
func OK(w http.ResponseWriter, status int, data interface{}) error {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
	return nil
}

// OKMsg 输出 {success:true, data, msg}
func OKMsg(w http.ResponseWriter, status int, data interface{}, msg string) error {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Msg: msg})
	return nil
}

// OKList 输出带 count 的列表响应
func OKList(w http.ResponseWriter, count int, data interface{}) error {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: data})
	return nil
}

// OKPage 输出带 count + pagination 的分页响应
func OKPage(w http.ResponseWriter, count int, pagination, data interface{}) error {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Pagination: pagination, Data: data})
	return nil
}

// DecodeBody 解析 JSON 请求体，格式错误归为 BadRequest
func DecodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, err, "invalid request body")
	}
	return nil
}
