package models

import (
	"time"
)

// 审计动作名称
const (
	AuditActionLinkTracked   = "link.tracked"
	AuditActionLinkUpdated   = "link.updated"
	AuditActionLinkUntracked = "link.untracked"
	AuditActionPolicyUpdated = "policy.updated"
	AuditActionSyncCompleted = "sync.completed"
)

// AuditLog 对应 audit_logs 表，只追加，核心逻辑不修改不删除
type AuditLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"event_id"` // 事件UUID
	ActorID   uint64    `gorm:"not null;index" json:"actor_id"`                        // 操作者ID，系统任务为 0
	Action    string    `gorm:"type:varchar(64);not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"` // JSON 序列化的结构化详情
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
