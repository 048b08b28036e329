package access

import (
	"testing"

	"github.com/3Eeeecho/go-linktrack/internal/models"
)

func TestCanAccess(t *testing.T) {
	owner := &models.User{ID: 1, Role: models.RoleUser}
	other := &models.User{ID: 2, Role: models.RoleUser}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}
	link := &models.TrackedLink{ID: 10, OwnerID: 1}

	tests := []struct {
		name string
		user *models.User
		link *models.TrackedLink
		want bool
	}{
		{"所有者可访问自己的链接", owner, link, true},
		{"其他普通用户不可访问", other, link, false},
		{"管理员可访问任意链接", admin, link, true},
		{"nil 用户不可访问", nil, link, false},
		{"nil 链接不可访问", owner, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.user, tt.link); got != tt.want {
				t.Errorf("CanAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

// 读写规则一致：CanMutate 与 CanAccess 的判定必须完全相同
func TestCanMutateMatchesCanAccess(t *testing.T) {
	link := &models.TrackedLink{ID: 10, OwnerID: 1}
	users := []*models.User{
		{ID: 1, Role: models.RoleUser},
		{ID: 2, Role: models.RoleUser},
		{ID: 3, Role: models.RoleAdmin},
		nil,
	}
	for _, u := range users {
		if CanMutate(u, link) != CanAccess(u, link) {
			t.Errorf("CanMutate and CanAccess disagree for user %+v", u)
		}
	}
}
