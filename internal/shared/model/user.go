// Package model 定义核心数据模型
//
// 各实体统一使用 string ID（"<prefix>-xxxxxxxxxxxx"），通过 bson tag
// 映射到 MongoDB 的 _id。PasswordHash / 重置令牌哈希永不出现在 JSON 中。
package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRolePublisher UserRole = "publisher"
	UserRoleAdmin     UserRole = "admin"
)

// Valid 角色是否合法
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRolePublisher, UserRoleAdmin:
		return true
	}
	return false
}

// Registerable 注册接口是否允许自选该角色
// admin 只能通过种子数据或运维工具创建
func (r UserRole) Registerable() bool {
	return r == UserRoleUser || r == UserRolePublisher
}

// User 用户
type User struct {
	ID           string   `json:"_id" bson:"_id"`
	Name         string   `json:"name" bson:"name"`
	Email        string   `json:"email" bson:"email"` // 唯一索引
	PasswordHash string   `json:"-" bson:"password_hash"`
	Role         UserRole `json:"role" bson:"role"`

	// 密码重置：只存令牌的 SHA-256 哈希，明文令牌仅通过邮件送达
	ResetPasswordHash   string     `json:"-" bson:"reset_password_hash,omitempty"`
	ResetPasswordExpire *time.Time `json:"-" bson:"reset_password_expire,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
