// Package storage 提供存储层抽象
//
// mock.go 提供用于测试的内存实现，行为对齐 mongostore：
// 查不到返回 (nil, nil)，唯一邮箱冲突返回 ErrDuplicate，
// RunQuery 产出与 MongoDB 解码一致的 _id 键文档。
package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"bootcamp-admin/internal/apiserver/query"
	"bootcamp-admin/internal/shared/model"
)

// MockStore 内存存储（仅测试用）
type MockStore struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	bootcamps map[string]*model.Bootcamp
	courses   map[string]*model.Course
}

// NewMockStore 创建内存存储
func NewMockStore() *MockStore {
	return &MockStore{
		users:     make(map[string]*model.User),
		bootcamps: make(map[string]*model.Bootcamp),
		courses:   make(map[string]*model.Course),
	}
}

// Close 实现 Store 接口
func (s *MockStore) Close() error { return nil }

var _ Store = (*MockStore)(nil)

// ============================================================================
// UserStore
// ============================================================================

func (s *MockStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return ErrDuplicate
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MockStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MockStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MockStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MockStore) SetUserResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.ResetPasswordHash = tokenHash
	u.ResetPasswordExpire = &expire
	return nil
}

func (s *MockStore) ClearUserResetToken(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.ResetPasswordHash = ""
	u.ResetPasswordExpire = nil
	return nil
}

func (s *MockStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ResetPasswordHash == tokenHash && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// ============================================================================
// BootcampStore
// ============================================================================

func (s *MockStore) CreateBootcamp(ctx context.Context, b *model.Bootcamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bootcamps[b.ID]; ok {
		return ErrDuplicate
	}
	cp := *b
	s.bootcamps[b.ID] = &cp
	return nil
}

func (s *MockStore) GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.bootcamps[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (s *MockStore) GetBootcampByOwner(ctx context.Context, userID string) (*model.Bootcamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bootcamps {
		if b.UserID == userID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MockStore) UpdateBootcamp(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bootcamps[id]
	if !ok {
		return ErrNotFound
	}
	updated, err := applyFields(b, fields)
	if err != nil {
		return err
	}
	updated.ID = id
	s.bootcamps[id] = updated
	return nil
}

func (s *MockStore) DeleteBootcamp(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bootcamps[id]; !ok {
		return ErrNotFound
	}
	delete(s.bootcamps, id)
	return nil
}

func (s *MockStore) FindBootcampsWithinRadius(ctx context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// 平面近似足以覆盖测试场景
	var out []*model.Bootcamp
	for _, b := range s.bootcamps {
		if b.Location == nil || len(b.Location.Coordinates) != 2 {
			continue
		}
		dx := (b.Location.Coordinates[0] - lng) * radPerDegree
		dy := (b.Location.Coordinates[1] - lat) * radPerDegree
		if dx*dx+dy*dy <= radius*radius {
			cp := *b
			out = append(out, &cp)
		}
	}
	if out == nil {
		out = []*model.Bootcamp{}
	}
	return out, nil
}

const radPerDegree = 0.017453292519943295

// ============================================================================
// CourseStore
// ============================================================================

func (s *MockStore) CreateCourse(ctx context.Context, c *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[c.ID]; ok {
		return ErrDuplicate
	}
	cp := *c
	s.courses[c.ID] = &cp
	return nil
}

func (s *MockStore) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *MockStore) ListCoursesByBootcamp(ctx context.Context, bootcampID string) ([]*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.Course{}
	for _, c := range s.courses {
		if c.BootcampID == bootcampID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MockStore) UpdateCourse(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return ErrNotFound
	}
	updated, err := applyFields(c, fields)
	if err != nil {
		return err
	}
	updated.ID = id
	s.courses[id] = updated
	return nil
}

func (s *MockStore) DeleteCourse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

func (s *MockStore) DeleteCoursesByBootcamp(ctx context.Context, bootcampID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.courses {
		if c.BootcampID == bootcampID {
			delete(s.courses, id)
		}
	}
	return nil
}

// applyFields 通过 JSON 往返把部分字段合并进实体
func applyFields[T any](entity *T, fields map[string]interface{}) (*T, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	doc := map[string]interface{}{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// QueryRunner
// ============================================================================

// RunQuery 在内存文档上执行查询规格
//
// 语义对齐 mongostore：先用同一过滤条件计数，再应用排序和
// skip/limit 窗口，最后做关联填充。文档键为 bson 字段名（_id 等）。
func (s *MockStore) RunQuery(ctx context.Context, collection string, spec *query.Spec) (*query.Result, error) {
	s.mu.RLock()
	docs := s.collectionDocs(collection)
	s.mu.RUnlock()

	var matched []map[string]interface{}
	for _, doc := range docs {
		if matchesAll(doc, spec.Conditions) {
			matched = append(matched, doc)
		}
	}
	total := int64(len(matched))

	sortDocs(matched, spec.Sort)

	start := spec.Skip()
	if start > total {
		start = total
	}
	end := start + int64(spec.Limit)
	if end > total {
		end = total
	}
	page := matched[start:end]

	if spec.Populate != nil {
		s.mu.RLock()
		from := s.collectionDocs(spec.Populate.From)
		s.mu.RUnlock()
		byID := map[interface{}]map[string]interface{}{}
		for _, doc := range from {
			byID[doc["_id"]] = projectDoc(doc, spec.Populate.Select)
		}
		for _, doc := range page {
			if ref, ok := byID[doc[spec.Populate.Field]]; ok {
				doc[spec.Populate.Field] = ref
			}
		}
	}

	if len(spec.Select) > 0 {
		for i, doc := range page {
			page[i] = projectDoc(doc, spec.Select)
		}
	}

	if page == nil {
		page = []map[string]interface{}{}
	}
	return &query.Result{
		Count:      len(page),
		Pagination: query.NewPagination(spec, total),
		Data:       page,
	}, nil
}

func (s *MockStore) collectionDocs(collection string) []map[string]interface{} {
	var out []map[string]interface{}
	switch collection {
	case ColUsers:
		for _, u := range s.users {
			out = append(out, toDoc(u))
		}
	case ColBootcamps:
		for _, b := range s.bootcamps {
			out = append(out, toDoc(b))
		}
	case ColCourses:
		for _, c := range s.courses {
			out = append(out, toDoc(c))
		}
	}
	return out
}

// toDoc 转为文档形式（json 标签与 bson 标签一致，键风格相同）
func toDoc(entity interface{}) map[string]interface{} {
	raw, _ := json.Marshal(entity)
	doc := map[string]interface{}{}
	json.Unmarshal(raw, &doc)
	return doc
}

func projectDoc(doc map[string]interface{}, fields []string) map[string]interface{} {
	if len(fields) == 0 {
		return doc
	}
	out := map[string]interface{}{"_id": doc["_id"]}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

func matchesAll(doc map[string]interface{}, conds []query.Condition) bool {
	for _, c := range conds {
		if !matches(doc[c.Field], c) {
			return false
		}
	}
	return true
}

func matches(val interface{}, c query.Condition) bool {
	switch c.Op {
	case query.OpEq:
		return compareValues(val, c.Value) == 0
	case query.OpGt:
		return compareValues(val, c.Value) > 0
	case query.OpGte:
		return compareValues(val, c.Value) >= 0
	case query.OpLt:
		return compareValues(val, c.Value) < 0
	case query.OpLte:
		return compareValues(val, c.Value) <= 0
	case query.OpIn:
		list, ok := c.Value.([]interface{})
		if !ok {
			return false
		}
		// 数组字段与候选集相交即命中（与 $in 一致）
		if arr, ok := val.([]interface{}); ok {
			for _, item := range arr {
				for _, want := range list {
					if compareValues(item, want) == 0 {
						return true
					}
				}
			}
			return false
		}
		for _, want := range list {
			if compareValues(val, want) == 0 {
				return true
			}
		}
		return false
	}
	return false
}

// compareValues 宽松比较：数值走 float64，布尔相等比较，其余按字符串
func compareValues(a, b interface{}) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			if ab == bb {
				return 0
			}
			return 1
		}
	}
	as, bs := toString(a), toString(b)
	return strings.Compare(as, bs)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func sortDocs(docs []map[string]interface{}, keys []query.SortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareValues(docs[i][k.Field], docs[j][k.Field])
			if cmp == 0 {
				continue
			}
			if k.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
