// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置
//   - 处理器只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"
	"time"

	"bootcamp-admin/internal/apiserver/query"
	"bootcamp-admin/internal/shared/model"
)

// 集合名（RunQuery 的目标实体集合）
const (
	ColUsers     = "users"
	ColBootcamps = "bootcamps"
	ColCourses   = "courses"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	// 密码重置字段只存令牌哈希与过期时间
	SetUserResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	ClearUserResetToken(ctx context.Context, id string) error
	// GetUserByResetToken 按令牌哈希查找且要求未过期；查不到返回 (nil, nil)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
}

// BootcampStore 训练营存储接口
type BootcampStore interface {
	CreateBootcamp(ctx context.Context, b *model.Bootcamp) error
	GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error)
	// GetBootcampByOwner 返回用户已发布的训练营；没有返回 (nil, nil)
	GetBootcampByOwner(ctx context.Context, userID string) (*model.Bootcamp, error)
	UpdateBootcamp(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteBootcamp(ctx context.Context, id string) error
	// FindBootcampsWithinRadius 球面半径查询，radius 单位为弧度
	FindBootcampsWithinRadius(ctx context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error)
}

// CourseStore 课程存储接口
type CourseStore interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListCoursesByBootcamp(ctx context.Context, bootcampID string) ([]*model.Course, error)
	UpdateCourse(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteCourse(ctx context.Context, id string) error
	DeleteCoursesByBootcamp(ctx context.Context, bootcampID string) error
}

// QueryRunner 执行查询翻译器产出的规格
type QueryRunner interface {
	RunQuery(ctx context.Context, collection string, spec *query.Spec) (*query.Result, error)
}

// Store 完整持久化存储
type Store interface {
	UserStore
	BootcampStore
	CourseStore
	QueryRunner
	Close() error
}
