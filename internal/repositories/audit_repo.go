package repositories

import (
	"context"
	"fmt"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"gorm.io/gorm"
)

// AuditLogRepository 只提供追加和查询，审计记录不修改不删除
type AuditLogRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	FindRecent(ctx context.Context, page, pageSize int) ([]models.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

var _ AuditLogRepository = (*auditLogRepository)(nil)

// NewAuditLogRepository 创建新的auditLogRepository实例
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("写入审计记录失败: %w", err)
	}
	return nil
}

func (r *auditLogRepository) FindRecent(ctx context.Context, page, pageSize int) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	if page < 1 {
		page = 1
	}
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计审计记录总数失败: %w", err)
	}
	err := query.Order("created_at desc, id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询审计记录失败: %w", err)
	}
	return entries, total, nil
}
