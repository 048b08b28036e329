package access

import (
	"github.com/3Eeeecho/go-linktrack/internal/models"
)

// 访问控制守卫：无状态、无副作用
// 规则对读写一致：管理员或链接所有者
// 调用方对未通过的读取必须返回"未找到"而非"无权限"，避免泄露记录是否存在

// CanAccess 判断用户是否可读取链接
func CanAccess(user *models.User, link *models.TrackedLink) bool {
	if user == nil || link == nil {
		return false
	}
	return user.IsAdmin() || link.OwnerID == user.ID
}

// CanMutate 判断用户是否可修改或删除链接
func CanMutate(user *models.User, link *models.TrackedLink) bool {
	return CanAccess(user, link)
}
