package models

import (
	"time"
)

// 用户角色，访问控制的唯一判据
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User 对应 users 表
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"type:varchar(255);unique;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	Role         Role   `gorm:"type:varchar(16);not null;default:user" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}

// IsAdmin 判断用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
