package mongostore

import (
	"context"
	"fmt"

	"bootcamp-admin/internal/apiserver/query"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// QueryRunner - 查询翻译器的执行端
// ============================================================================

// RunQuery 在目标集合上执行查询规格
//
// 执行顺序：
//  1. 条件翻译为 bson 过滤器（$gt/$gte/$lt/$lte/$in）
//  2. 用同一过滤器 CountDocuments，在 skip/limit 之前计数，
//     分页元数据才能反映全部匹配文档
//  3. Find：排序 + 投影 + skip/limit 窗口
//  4. 关联填充：批量 $in 取关联文档并按受限投影内嵌
func (s *Store) RunQuery(ctx context.Context, collection string, spec *query.Spec) (*query.Result, error) {
	col := s.col(collection)
	filter := buildFilter(spec.Conditions)

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", collection, wrapError(err))
	}

	opts := options.Find().
		SetSort(buildSort(spec.Sort)).
		SetSkip(spec.Skip()).
		SetLimit(int64(spec.Limit))
	if len(spec.Select) > 0 {
		opts.SetProjection(buildProjection(spec.Select))
	}

	docs, err := findMany[bson.M](ctx, col, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	data := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		data[i] = map[string]interface{}(*d)
	}

	if spec.Populate != nil {
		if err := s.populateDocs(ctx, data, spec.Populate); err != nil {
			return nil, fmt.Errorf("populate %s.%s: %w", collection, spec.Populate.Field, err)
		}
	}

	return &query.Result{
		Count:      len(data),
		Pagination: query.NewPagination(spec, total),
		Data:       data,
	}, nil
}

// buildFilter 把条件集合翻译为 bson 过滤器
//
// 同一字段的多个区间操作符合并进一个子文档
// （price[gt]=5&price[lt]=9 → {price: {$gt:5, $lt:9}}）
func buildFilter(conds []query.Condition) bson.D {
	filter := bson.D{}
	rangeOps := map[string]bson.D{} // field → 已合并的操作符子文档
	order := []string{}

	for _, c := range conds {
		if c.Op == query.OpEq {
			filter = append(filter, bson.E{Key: c.Field, Value: c.Value})
			continue
		}
		sub, ok := rangeOps[c.Field]
		if !ok {
			order = append(order, c.Field)
		}
		if c.Op == query.OpIn {
			list, _ := c.Value.([]interface{})
			sub = append(sub, bson.E{Key: "$in", Value: bson.A(list)})
		} else {
			sub = append(sub, bson.E{Key: "$" + string(c.Op), Value: c.Value})
		}
		rangeOps[c.Field] = sub
	}

	for _, field := range order {
		filter = append(filter, bson.E{Key: field, Value: rangeOps[field]})
	}
	return filter
}

func buildSort(keys []query.SortKey) bson.D {
	sorts := bson.D{}
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		sorts = append(sorts, bson.E{Key: k.Field, Value: dir})
	}
	return sorts
}

func buildProjection(fields []string) bson.D {
	proj := bson.D{}
	for _, f := range fields {
		proj = append(proj, bson.E{Key: f, Value: 1})
	}
	return proj
}

// populateDocs 解析外键并内嵌关联文档
func (s *Store) populateDocs(ctx context.Context, docs []map[string]interface{}, p *query.Populate) error {
	ids := bson.A{}
	seen := map[interface{}]bool{}
	for _, d := range docs {
		if v, ok := d[p.Field]; ok && v != nil && !seen[v] {
			seen[v] = true
			ids = append(ids, v)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	opts := options.Find()
	if len(p.Select) > 0 {
		opts.SetProjection(buildProjection(p.Select))
	}
	refs, err := findMany[bson.M](ctx, s.col(p.From), bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
	}, opts)
	if err != nil {
		return err
	}

	byID := map[interface{}]bson.M{}
	for _, r := range refs {
		byID[(*r)["_id"]] = *r
	}
	for _, d := range docs {
		if ref, ok := byID[d[p.Field]]; ok {
			d[p.Field] = map[string]interface{}(ref)
		}
	}
	return nil
}
