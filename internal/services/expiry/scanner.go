package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"go.uber.org/zap"
)

// OwnerExpiringLinks 按所有者分组的即将过期链接，每个所有者收到一封合并通知
type OwnerExpiringLinks struct {
	Owner models.User          `json:"owner"`
	Links []models.TrackedLink `json:"links"`
}

// Dispatcher 通知分发器，负责把一组通知投递出去
// 投递失败由调用方记录日志，单个所有者的失败不阻塞其他所有者
type Dispatcher interface {
	Dispatch(ctx context.Context, group OwnerExpiringLinks) error
}

// Scanner 过期扫描器：选出通知窗口内的链接并按所有者分组
type Scanner struct {
	linkRepo   repositories.LinkRepository
	userRepo   repositories.UserRepository
	dispatcher Dispatcher
	now        func() time.Time // 可注入的时钟，便于测试
}

// NewScanner 创建一个新的过期扫描器实例
func NewScanner(linkRepo repositories.LinkRepository, userRepo repositories.UserRepository, dispatcher Dispatcher) *Scanner {
	return &Scanner{
		linkRepo:   linkRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// FindExpiringLinks 返回 daysThreshold 天内即将过期（但尚未过期）的链接，按所有者分组
// 边界：expiresAt == now 不算（已过期），expiresAt == now+threshold 算（含上界）
func (s *Scanner) FindExpiringLinks(ctx context.Context, daysThreshold int) ([]OwnerExpiringLinks, error) {
	now := s.now()
	until := now.AddDate(0, 0, daysThreshold)

	links, err := s.linkRepo.FindExpiringBetween(ctx, now, until)
	if err != nil {
		logger.Error("FindExpiringLinks: 查询即将过期链接失败", zap.Error(err))
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}

	// 按所有者分组，保持仓库返回的 owner_id 顺序
	var ownerOrder []uint64
	byOwner := make(map[uint64][]models.TrackedLink)
	for _, l := range links {
		if _, ok := byOwner[l.OwnerID]; !ok {
			ownerOrder = append(ownerOrder, l.OwnerID)
		}
		byOwner[l.OwnerID] = append(byOwner[l.OwnerID], l)
	}

	owners, err := s.userRepo.GetUsersByIDs(ctx, ownerOrder)
	if err != nil {
		logger.Error("FindExpiringLinks: 批量查询所有者失败", zap.Error(err))
		return nil, fmt.Errorf("批量查询链接所有者失败: %w", err)
	}

	groups := make([]OwnerExpiringLinks, 0, len(ownerOrder))
	for _, ownerID := range ownerOrder {
		owner, ok := owners[ownerID]
		if !ok {
			// 所有者记录缺失的链接无处可通知，记下来继续处理其他人
			logger.Warn("FindExpiringLinks: 链接所有者不存在，跳过该组",
				zap.Uint64("ownerID", ownerID), zap.Int("links", len(byOwner[ownerID])))
			continue
		}
		groups = append(groups, OwnerExpiringLinks{
			Owner: owner,
			Links: byOwner[ownerID],
		})
	}
	return groups, nil
}

// NotifyExpiring 扫描并逐组分发通知
// 单组分发失败只记日志，继续处理剩余的组
func (s *Scanner) NotifyExpiring(ctx context.Context, daysThreshold int) error {
	groups, err := s.FindExpiringLinks(ctx, daysThreshold)
	if err != nil {
		return err
	}

	var dispatched int
	for _, group := range groups {
		if err := s.dispatcher.Dispatch(ctx, group); err != nil {
			logger.Error("NotifyExpiring: 通知分发失败",
				zap.Uint64("ownerID", group.Owner.ID),
				zap.String("ownerEmail", group.Owner.Email),
				zap.Error(err))
			continue
		}
		dispatched++
	}

	logger.Info("NotifyExpiring: 过期通知扫描完成",
		zap.Int("groups", len(groups)),
		zap.Int("dispatched", dispatched),
		zap.Int("daysThreshold", daysThreshold))
	return nil
}
