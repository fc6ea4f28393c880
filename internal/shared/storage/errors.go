// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 具体驱动实现（mongostore / 测试用内存实现）负责将底层错误转换为领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（如重复邮箱注册）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
