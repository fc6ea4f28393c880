// Package query 将客户端查询参数翻译为受控的查询规格
//
// 列表接口接受任意 filter/sort/select/page/limit 参数，本包负责把
// 原始 url.Values 解析为带标签的 Spec（字段 + 操作符枚举 + 已转型的值），
// 由存储层翻译为对目标集合的有界查询。解析阶段拒绝未知操作符；
// 未知字段不做校验直接透传（与底层文档库的宽松语义一致）。
package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"bootcamp-admin/internal/shared/apperr"
)

// 保留参数，不参与过滤条件
const (
	paramSelect = "select"
	paramSort   = "sort"
	paramPage   = "page"
	paramLimit  = "limit"
)

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 5
)

// Op 过滤操作符
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

// validOps 括号形式允许的操作符；裸字段固定为 OpEq
var validOps = map[Op]bool{
	OpGt:  true,
	OpGte: true,
	OpLt:  true,
	OpLte: true,
	OpIn:  true,
}

// keyPattern 匹配 field 或 field[op] 形式的参数名
var keyPattern = regexp.MustCompile(`^([A-Za-z0-9_.]+)(?:\[([A-Za-z]+)\])?$`)

// Condition 单个过滤条件
//
// Value 已按字面量转型：整数 → int64，小数 → float64，
// true/false → bool，其余 → string；OpIn 的值为 []interface{}
type Condition struct {
	Field string
	Op    Op
	Value interface{}
}

// SortKey 排序键
type SortKey struct {
	Field string
	Desc  bool
}

// Populate 关联填充请求：把结果中 Field 外键解析为 From 集合的
// 文档并内嵌，投影限定为 Select 字段
type Populate struct {
	Field  string
	From   string
	Select []string
}

// Spec 请求作用域的查询规格
type Spec struct {
	Conditions []Condition
	Select     []string
	Sort       []SortKey
	Page       int
	Limit      int
	Populate   *Populate
}

// Skip 计算跳过的文档数
func (s *Spec) Skip() int64 {
	return int64((s.Page - 1) * s.Limit)
}

// Where 追加服务端固定条件（如限定某训练营下的课程）
func (s *Spec) Where(field string, value interface{}) *Spec {
	s.Conditions = append(s.Conditions, Condition{Field: field, Op: OpEq, Value: value})
	return s
}

// WithPopulate 设置关联填充
func (s *Spec) WithPopulate(field, from string, sel ...string) *Spec {
	s.Populate = &Populate{Field: field, From: from, Select: sel}
	return s
}

// Parse 解析原始查询参数
//
// 未知操作符（如 price[foo]=1）返回 BadRequest；
// 同名参数出现多次时取第一个值。
func Parse(values url.Values) (*Spec, error) {
	spec := &Spec{
		Page:  parsePositiveInt(values.Get(paramPage), DefaultPage),
		Limit: parsePositiveInt(values.Get(paramLimit), DefaultLimit),
	}

	if sel := values.Get(paramSelect); sel != "" {
		spec.Select = splitNonEmpty(sel)
	}

	spec.Sort = parseSort(values.Get(paramSort))

	for key, vals := range values {
		switch key {
		case paramSelect, paramSort, paramPage, paramLimit:
			continue
		}
		if len(vals) == 0 {
			continue
		}

		m := keyPattern.FindStringSubmatch(key)
		if m == nil {
			return nil, apperr.New(apperr.KindBadRequest, "invalid filter parameter %q", key)
		}
		field, opToken := m[1], m[2]

		cond := Condition{Field: field, Op: OpEq}
		if opToken != "" {
			op := Op(strings.ToLower(opToken))
			if !validOps[op] {
				return nil, apperr.New(apperr.KindBadRequest, "unknown filter operator %q in %q", opToken, key)
			}
			cond.Op = op
		}

		if cond.Op == OpIn {
			var list []interface{}
			for _, part := range splitNonEmpty(vals[0]) {
				list = append(list, coerceValue(part))
			}
			cond.Value = list
		} else {
			cond.Value = coerceValue(vals[0])
		}

		spec.Conditions = append(spec.Conditions, cond)
	}

	return spec, nil
}

// parseSort 解析 "a,-b" 形式的排序参数，缺省按创建时间倒序
func parseSort(raw string) []SortKey {
	if raw == "" {
		return []SortKey{{Field: "created_at", Desc: true}}
	}
	var keys []SortKey
	for _, part := range splitNonEmpty(raw) {
		if strings.HasPrefix(part, "-") {
			keys = append(keys, SortKey{Field: part[1:], Desc: true})
		} else {
			keys = append(keys, SortKey{Field: part})
		}
	}
	if len(keys) == 0 {
		return []SortKey{{Field: "created_at", Desc: true}}
	}
	return keys
}

// parsePositiveInt 解析正整数，非法或缺省回退默认值
func parsePositiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// coerceValue 按字面量转型参数值
func coerceValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ============================================================================
// 分页结果
// ============================================================================

// PageRef 相邻页描述
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination 分页元数据：next 仅当窗口之后仍有匹配文档，
// prev 仅当当前页大于 1
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// NewPagination 根据总匹配数计算分页元数据
func NewPagination(spec *Spec, total int64) Pagination {
	var p Pagination
	if spec.Skip()+int64(spec.Limit) < total {
		p.Next = &PageRef{Page: spec.Page + 1, Limit: spec.Limit}
	}
	if spec.Page > 1 {
		p.Prev = &PageRef{Page: spec.Page - 1, Limit: spec.Limit}
	}
	return p
}

// Result 列表查询结果
type Result struct {
	Count      int                      `json:"count"`
	Pagination Pagination               `json:"pagination"`
	Data       []map[string]interface{} `json:"data"`
}

// String 调试输出
func (c Condition) String() string {
	return fmt.Sprintf("%s[%s]=%v", c.Field, c.Op, c.Value)
}
