// Package query 查询翻译器测试
package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 过滤条件解析
// ============================================================================

// TestParse_BareFieldIsEquality 裸字段固定为相等条件
func TestParse_BareFieldIsEquality(t *testing.T) {
	spec, err := Parse(url.Values{"housing": {"true"}})
	require.NoError(t, err)
	require.Len(t, spec.Conditions, 1)

	cond := spec.Conditions[0]
	assert.Equal(t, "housing", cond.Field)
	assert.Equal(t, OpEq, cond.Op)
	assert.Equal(t, true, cond.Value)
}

// TestParse_BracketOperators 括号操作符逐一解析
func TestParse_BracketOperators(t *testing.T) {
	cases := []struct {
		key  string
		op   Op
		raw  string
		want interface{}
	}{
		{"average_cost[gt]", OpGt, "5000", int64(5000)},
		{"average_cost[gte]", OpGte, "5000.5", 5000.5},
		{"average_cost[lt]", OpLt, "10000", int64(10000)},
		{"average_cost[lte]", OpLte, "10000", int64(10000)},
	}
	for _, tc := range cases {
		spec, err := Parse(url.Values{tc.key: {tc.raw}})
		require.NoError(t, err, tc.key)
		require.Len(t, spec.Conditions, 1)
		assert.Equal(t, "average_cost", spec.Conditions[0].Field)
		assert.Equal(t, tc.op, spec.Conditions[0].Op)
		assert.Equal(t, tc.want, spec.Conditions[0].Value)
	}
}

// TestParse_InOperatorSplitsList in 操作符按逗号拆成列表
func TestParse_InOperatorSplitsList(t *testing.T) {
	spec, err := Parse(url.Values{"careers[in]": {"Business,UI/UX"}})
	require.NoError(t, err)
	require.Len(t, spec.Conditions, 1)

	cond := spec.Conditions[0]
	assert.Equal(t, OpIn, cond.Op)
	assert.Equal(t, []interface{}{"Business", "UI/UX"}, cond.Value)
}

// TestParse_UnknownOperatorRejected 未知操作符直接拒绝，不落库
func TestParse_UnknownOperatorRejected(t *testing.T) {
	_, err := Parse(url.Values{"average_cost[regex]": {".*"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regex")
}

// TestParse_MalformedKeyRejected 畸形参数名拒绝
func TestParse_MalformedKeyRejected(t *testing.T) {
	_, err := Parse(url.Values{"cost[gt": {"1"}})
	require.Error(t, err)
}

// TestParse_DottedFieldAllowed 嵌套字段路径可以过滤
func TestParse_DottedFieldAllowed(t *testing.T) {
	spec, err := Parse(url.Values{"location.city": {"Boston"}})
	require.NoError(t, err)
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, "location.city", spec.Conditions[0].Field)
	assert.Equal(t, "Boston", spec.Conditions[0].Value)
}

// ============================================================================
// 保留参数
// ============================================================================

// TestParse_ReservedParamsNotConditions select/sort/page/limit 不进过滤条件
func TestParse_ReservedParamsNotConditions(t *testing.T) {
	spec, err := Parse(url.Values{
		"select": {"name,description"},
		"sort":   {"-average_cost,name"},
		"page":   {"2"},
		"limit":  {"10"},
	})
	require.NoError(t, err)

	assert.Empty(t, spec.Conditions)
	assert.Equal(t, []string{"name", "description"}, spec.Select)
	assert.Equal(t, 2, spec.Page)
	assert.Equal(t, 10, spec.Limit)
	require.Len(t, spec.Sort, 2)
	assert.Equal(t, SortKey{Field: "average_cost", Desc: true}, spec.Sort[0])
	assert.Equal(t, SortKey{Field: "name"}, spec.Sort[1])
}

// TestParse_Defaults 缺省值：第 1 页、每页 5 条、按创建时间倒序
func TestParse_Defaults(t *testing.T) {
	spec, err := Parse(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPage, spec.Page)
	assert.Equal(t, DefaultLimit, spec.Limit)
	require.Len(t, spec.Sort, 1)
	assert.Equal(t, SortKey{Field: "created_at", Desc: true}, spec.Sort[0])
}

// TestParse_InvalidPageFallsBack 非法分页参数回退默认值
func TestParse_InvalidPageFallsBack(t *testing.T) {
	spec, err := Parse(url.Values{"page": {"0"}, "limit": {"abc"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, spec.Page)
	assert.Equal(t, DefaultLimit, spec.Limit)
}

// ============================================================================
// 分页元数据
// ============================================================================

// TestNewPagination 相邻页只在确有数据时出现
func TestNewPagination(t *testing.T) {
	spec := &Spec{Page: 1, Limit: 5}

	// 总数正好一页：无 next / prev
	p := NewPagination(spec, 5)
	assert.Nil(t, p.Next)
	assert.Nil(t, p.Prev)

	// 窗口之后仍有数据：有 next
	p = NewPagination(spec, 6)
	require.NotNil(t, p.Next)
	assert.Equal(t, 2, p.Next.Page)
	assert.Equal(t, 5, p.Next.Limit)
	assert.Nil(t, p.Prev)

	// 第 2 页：有 prev，尾页无 next
	spec.Page = 2
	p = NewPagination(spec, 6)
	assert.Nil(t, p.Next)
	require.NotNil(t, p.Prev)
	assert.Equal(t, 1, p.Prev.Page)

	// 空结果集翻到后页：有 prev 无 next
	p = NewPagination(spec, 0)
	assert.Nil(t, p.Next)
	require.NotNil(t, p.Prev)
}

// TestSpec_Skip 跳过数随页码线性增长
func TestSpec_Skip(t *testing.T) {
	assert.Equal(t, int64(0), (&Spec{Page: 1, Limit: 5}).Skip())
	assert.Equal(t, int64(5), (&Spec{Page: 2, Limit: 5}).Skip())
	assert.Equal(t, int64(20), (&Spec{Page: 3, Limit: 10}).Skip())
}

// TestSpec_Where 服务端追加条件
func TestSpec_Where(t *testing.T) {
	spec := &Spec{}
	spec.Where("bootcamp", "bootcamp-abc")
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, OpEq, spec.Conditions[0].Op)
	assert.Equal(t, "bootcamp-abc", spec.Conditions[0].Value)
}
