// Package mongostore 实现基于 MongoDB 的 storage.Store
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"bootcamp-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store 实现 storage.Store 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Store)(nil)

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "bootcamp_admin"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// DropCollections 清空业务集合（种子工具的 -d 模式使用）
func (s *Store) DropCollections(ctx context.Context) error {
	for _, name := range []string{storage.ColUsers, storage.ColBootcamps, storage.ColCourses} {
		if err := s.col(name).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// ensureIndexes 创建所有必要的索引
//
// 注意：bootcamps.user 不是唯一索引：admin 可以拥有多个训练营，
// 而角色存在 users 集合里，无法用部分索引表达"仅限非 admin"，
// 一人一训练营约束只能在创建接口内检查。
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{storage.ColUsers, bson.D{{Key: "email", Value: 1}}, true},
		{storage.ColUsers, bson.D{{Key: "reset_password_hash", Value: 1}}, false},

		// bootcamps
		{storage.ColBootcamps, bson.D{{Key: "user", Value: 1}}, false},
		{storage.ColBootcamps, bson.D{{Key: "location", Value: "2dsphere"}}, false},
		{storage.ColBootcamps, bson.D{{Key: "created_at", Value: -1}}, false},

		// courses
		{storage.ColCourses, bson.D{{Key: "bootcamp", Value: 1}}, false},
		{storage.ColCourses, bson.D{{Key: "user", Value: 1}}, false},
		{storage.ColCourses, bson.D{{Key: "created_at", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
