package models

import (
	"time"
)

// 链接可见性级别
type VisibilityClass string

const (
	VisibilityRestricted VisibilityClass = "restricted" // 仅限指定收件人访问
	VisibilityPublic     VisibilityClass = "public"     // 任何持有链接的人都可访问
)

// 收件人权限级别
type PermissionLevel string

const (
	PermissionView          PermissionLevel = "view"
	PermissionEdit          PermissionLevel = "edit"
	PermissionBlockDownload PermissionLevel = "block_download"
)

// TrackedLink 对应 tracked_links 表，记录一条对外可见的文件分享链接
type TrackedLink struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FileIdentity string          `gorm:"type:char(64);not null;index" json:"file_identity"`      // 文件路径的 SHA-256 哈希，基于路径而非文件内容
	FileName     string          `gorm:"type:varchar(255);not null" json:"file_name"`            // 文件名，同步时可被覆盖
	FilePath     string          `gorm:"type:varchar(1024);not null" json:"file_path"`           // 文件逻辑路径
	Visibility   VisibilityClass `gorm:"type:varchar(16);not null" json:"visibility"`            // restricted / public
	LinkURL      string          `gorm:"type:varchar(512);not null;uniqueIndex" json:"link_url"` // 外部分享链接，同步时的自然主键
	OwnerID      uint64          `gorm:"not null;index" json:"owner_id"`                         // 链接所有者ID
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`                                   // 过期时间，创建时由策略计算生效值
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 收件人列表归属于链接本身，链接删除时级联删除
	Recipients []LinkRecipient `gorm:"foreignKey:TrackedLinkID;constraint:OnDelete:CASCADE" json:"recipients"`

	// 关联所有者模型，方便预加载，不参与级联
	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

// 指定gorm的表名
func (TrackedLink) TableName() string {
	return "tracked_links"
}

// LinkRecipient 对应 link_recipients 表，一条链接的一个收件人及其权限
type LinkRecipient struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TrackedLinkID       uint64          `gorm:"not null;index" json:"tracked_link_id"`
	RecipientIdentifier string          `gorm:"type:varchar(255);not null" json:"recipient_identifier"` // 通常是邮箱
	PermissionLevel     PermissionLevel `gorm:"type:varchar(32);not null" json:"permission_level"`
}

func (LinkRecipient) TableName() string {
	return "link_recipients"
}
