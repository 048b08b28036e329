package models

import (
	"time"
)

// SharePolicy 对应 share_policies 表，组织级分享策略配置
// 核心逻辑只读，仅管理员接口可修改
type SharePolicy struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MaxDurationInternal int       `gorm:"not null;default:365" json:"max_duration_internal"` // 内部(restricted)链接最长有效天数
	MaxDurationExternal int       `gorm:"not null;default:30" json:"max_duration_external"`  // 外部(public)链接最长有效天数
	AllowPublicSharing  bool      `gorm:"not null;default:false" json:"allow_public_sharing"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SharePolicy) TableName() string {
	return "share_policies"
}
