package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bootcamp-admin/internal/shared/model"
)

// TestCanManage 所有权判定：admin 全放行，其余只认 ID 相等
func TestCanManage(t *testing.T) {
	owner := &AuthUser{ID: "user-aaa", Role: model.UserRolePublisher}
	other := &AuthUser{ID: "user-bbb", Role: model.UserRolePublisher}
	admin := &AuthUser{ID: "user-ccc", Role: model.UserRoleAdmin}

	assert.True(t, CanManage(owner, "user-aaa"))
	assert.False(t, CanManage(other, "user-aaa"))
	assert.True(t, CanManage(admin, "user-aaa"))

	// admin 管理自己名下资源同样放行
	assert.True(t, CanManage(admin, "user-ccc"))

	// 未认证
	assert.False(t, CanManage(nil, "user-aaa"))
}
