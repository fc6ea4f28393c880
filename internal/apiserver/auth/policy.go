package auth

import "bootcamp-admin/internal/shared/model"

// CanManage 所有权授权检查
//
// admin 可以操作任何实体；其余角色只能操作 owner 字段等于自己的实体。
// 调用方必须先按 ID 重新取出目标实体再比对 owner，永远不信任
// 客户端提交的 owner 字段。
func CanManage(actor *AuthUser, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.Role == model.UserRoleAdmin || actor.ID == ownerID
}
