package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/cache"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 策略缓存有效期，策略变更低频，命中后省去每次创建链接的查库
const policyCacheTTL = 10 * time.Minute

type PolicyRepository interface {
	// GetActive 返回当前生效的策略，不存在时创建并返回默认策略
	GetActive(ctx context.Context) (*models.SharePolicy, error)
	// Update 更新策略并使缓存失效
	Update(ctx context.Context, policy *models.SharePolicy) error
}

type policyRepository struct {
	db    *gorm.DB
	cache cache.Cache
}

var _ PolicyRepository = (*policyRepository)(nil)

// NewPolicyRepository 创建一个新的 PolicyRepository 实例
// cache 可为 nil（测试场景），此时直接查库
func NewPolicyRepository(db *gorm.DB, c cache.Cache) PolicyRepository {
	return &policyRepository{db: db, cache: c}
}

func (r *policyRepository) GetActive(ctx context.Context) (*models.SharePolicy, error) {
	if r.cache != nil {
		var cached models.SharePolicy
		if err := r.cache.Get(ctx, cache.SharePolicyKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var policy models.SharePolicy
	err := r.db.WithContext(ctx).Order("id").First(&policy).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("查询分享策略失败: %w", err)
		}
		// 首次启动时落一条默认策略
		policy = models.SharePolicy{
			MaxDurationInternal: 365,
			MaxDurationExternal: 30,
			AllowPublicSharing:  false,
		}
		if err := r.db.WithContext(ctx).Create(&policy).Error; err != nil {
			return nil, fmt.Errorf("创建默认分享策略失败: %w", err)
		}
		logger.Info("Created default share policy", zap.Uint64("policyID", policy.ID))
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cache.SharePolicyKey, &policy, policyCacheTTL); err != nil {
			logger.Warn("Failed to cache share policy", zap.Error(err))
		}
	}
	return &policy, nil
}

func (r *policyRepository) Update(ctx context.Context, policy *models.SharePolicy) error {
	if err := r.db.WithContext(ctx).Save(policy).Error; err != nil {
		return fmt.Errorf("更新分享策略失败: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Del(ctx, cache.SharePolicyKey); err != nil {
			logger.Warn("Failed to invalidate share policy cache", zap.Error(err))
		}
	}
	return nil
}
