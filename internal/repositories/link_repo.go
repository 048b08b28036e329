package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"gorm.io/gorm"
)

// LinkFilter 列表查询过滤条件
// OwnerID 为 nil 表示不限制所有者（仅管理员调用方可这样传）
type LinkFilter struct {
	OwnerID *uint64
}

type LinkRepository interface {
	Create(ctx context.Context, link *models.TrackedLink) error
	FindByID(ctx context.Context, id uint64) (*models.TrackedLink, error)
	FindByLinkURL(ctx context.Context, linkURL string) (*models.TrackedLink, error)
	FindMany(ctx context.Context, filter LinkFilter, page, pageSize int) ([]models.TrackedLink, int64, error)
	FindAll(ctx context.Context) ([]models.TrackedLink, error)
	Update(ctx context.Context, link *models.TrackedLink) error
	Delete(ctx context.Context, id uint64) error
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.TrackedLink, error)
}

type linkRepository struct {
	db *gorm.DB
}

var _ LinkRepository = (*linkRepository)(nil)

// NewLinkRepository 创建新的linkRepository实例
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// 创建新的链接记录，收件人随主记录一起写入
func (r *linkRepository) Create(ctx context.Context, link *models.TrackedLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("创建链接记录失败: %w", err)
	}
	return nil
}

// 根据ID查找记录，未找到时返回 nil, nil
func (r *linkRepository) FindByID(ctx context.Context, id uint64) (*models.TrackedLink, error) {
	var link models.TrackedLink
	err := r.db.WithContext(ctx).Preload("Recipients").Where("id = ?", id).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询链接记录失败: %w", err)
	}
	return &link, nil
}

// 根据外部链接URL查找记录，URL 是同步时的自然主键
func (r *linkRepository) FindByLinkURL(ctx context.Context, linkURL string) (*models.TrackedLink, error) {
	var link models.TrackedLink
	err := r.db.WithContext(ctx).Preload("Recipients").Where("link_url = ?", linkURL).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询链接记录失败: %w", err)
	}
	return &link, nil
}

// 分页查询链接列表
// 按创建时间倒序排列，id 作为次级排序键保证分页稳定
func (r *linkRepository) FindMany(ctx context.Context, filter LinkFilter, page, pageSize int) ([]models.TrackedLink, int64, error) {
	var links []models.TrackedLink
	var total int64

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	query := r.db.WithContext(ctx).Model(&models.TrackedLink{})
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计链接总数失败: %w", err)
	}

	err := query.Order("created_at desc, id desc").Offset(offset).Limit(pageSize).Preload("Recipients").Find(&links).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询链接列表失败: %w", err)
	}
	return links, total, nil
}

// 查询全部本地链接，供同步引擎构建本地快照
func (r *linkRepository) FindAll(ctx context.Context) ([]models.TrackedLink, error) {
	var links []models.TrackedLink
	err := r.db.WithContext(ctx).Preload("Recipients").Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("查询全部链接失败: %w", err)
	}
	return links, nil
}

// Update 更新链接记录
// 收件人集合整体替换（先删后插），与主记录字段在同一事务内提交，
// 避免出现收件人已换新而主记录未更新的半写状态
func (r *linkRepository) Update(ctx context.Context, link *models.TrackedLink) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipients").Save(link).Error; err != nil {
			return err
		}
		if err := tx.Where("tracked_link_id = ?", link.ID).Delete(&models.LinkRecipient{}).Error; err != nil {
			return err
		}
		if len(link.Recipients) == 0 {
			return nil
		}
		for i := range link.Recipients {
			link.Recipients[i].ID = 0
			link.Recipients[i].TrackedLinkID = link.ID
		}
		return tx.Create(&link.Recipients).Error
	})
	if err != nil {
		return fmt.Errorf("更新链接记录失败: %w", err)
	}
	return nil
}

// 删除链接记录及其收件人
func (r *linkRepository) Delete(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tracked_link_id = ?", id).Delete(&models.LinkRecipient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TrackedLink{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("删除链接记录失败: %w", err)
	}
	return nil
}

// FindExpiringBetween 查询过期时间落在 (from, to] 区间内的链接
// 下界开区间：已过期的链接不在通知范围内
func (r *linkRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]models.TrackedLink, error) {
	var links []models.TrackedLink
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?", from, to).
		Order("owner_id, expires_at").
		Preload("Recipients").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("查询即将过期链接失败: %w", err)
	}
	return links, nil
}
