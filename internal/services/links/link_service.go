package links

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/utils"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"github.com/3Eeeecho/go-linktrack/internal/services/access"
	"github.com/3Eeeecho/go-linktrack/internal/services/audit"
	"github.com/3Eeeecho/go-linktrack/internal/services/policy"
	"go.uber.org/zap"
)

// RecipientInput 创建/更新链接时的收件人输入
type RecipientInput struct {
	Identifier string                 `json:"identifier" binding:"required"`
	Permission models.PermissionLevel `json:"permission" binding:"required"`
}

// TrackLinkRequest 跟踪一条新链接的请求
type TrackLinkRequest struct {
	FileName   string                 `json:"file_name" binding:"required"`
	FilePath   string                 `json:"file_path" binding:"required"`
	LinkURL    string                 `json:"link_url" binding:"required"`
	Visibility models.VisibilityClass `json:"visibility" binding:"required"`
	ExpiresAt  *time.Time             `json:"expires_at"`
	Recipients []RecipientInput       `json:"recipients"`
}

// UpdateLinkRequest 更新链接的请求，nil 字段表示不修改
// Recipients 一旦提供则整体替换现有收件人集合，调用方必须传完整的目标集合
type UpdateLinkRequest struct {
	FileName   *string                 `json:"file_name"`
	Visibility *models.VisibilityClass `json:"visibility"`
	ExpiresAt  *time.Time              `json:"expires_at"`
	Recipients *[]RecipientInput       `json:"recipients"`
}

// LinkService 定义了链接跟踪服务需要实现的接口
type LinkService interface {
	// TrackLink 将一条外部分享链接纳入跟踪，过期时间经策略校验后生效
	TrackLink(ctx context.Context, actor *models.User, req *TrackLinkRequest) (*models.TrackedLink, error)
	// GetLink 获取单条链接详情，无权访问与不存在统一返回 ErrLinkNotFound
	GetLink(ctx context.Context, actor *models.User, id uint64) (*models.TrackedLink, error)
	// ListLinks 分页列出链接，非管理员只能看到自己的
	ListLinks(ctx context.Context, actor *models.User, page, pageSize int) ([]models.TrackedLink, int64, error)
	// UpdateLink 更新链接，可见性或过期时间变化时重新执行策略校验
	UpdateLink(ctx context.Context, actor *models.User, id uint64, req *UpdateLinkRequest) (*models.TrackedLink, error)
	// UntrackLink 将链接移出跟踪
	UntrackLink(ctx context.Context, actor *models.User, id uint64) error
}

// linkService 是 LinkService 接口的具体实现
type linkService struct {
	linkRepo   repositories.LinkRepository
	policyRepo repositories.PolicyRepository
	recorder   audit.Recorder
	now        func() time.Time // 可注入的时钟，便于测试
}

var _ LinkService = (*linkService)(nil)

// NewLinkService 创建一个新的 LinkService 实例
func NewLinkService(linkRepo repositories.LinkRepository, policyRepo repositories.PolicyRepository, recorder audit.Recorder) LinkService {
	return &linkService{
		linkRepo:   linkRepo,
		policyRepo: policyRepo,
		recorder:   recorder,
		now:        time.Now,
	}
}

// TrackLink 处理跟踪新链接的业务逻辑
func (s *linkService) TrackLink(ctx context.Context, actor *models.User, req *TrackLinkRequest) (*models.TrackedLink, error) {
	// 1. linkURL 全局唯一，重复跟踪直接拒绝
	existing, err := s.linkRepo.FindByLinkURL(ctx, req.LinkURL)
	if err != nil {
		logger.Error("TrackLink: 查询现有链接失败", zap.String("linkURL", req.LinkURL), zap.Error(err))
		return nil, fmt.Errorf("检查链接是否已跟踪失败: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrLinkAlreadyTracked
	}

	// 2. 策略校验，计算生效过期时间
	pol, err := s.policyRepo.GetActive(ctx)
	if err != nil {
		logger.Error("TrackLink: 读取分享策略失败", zap.Error(err))
		return nil, fmt.Errorf("读取分享策略失败: %w", err)
	}
	expiresAt, err := policy.EvaluateExpiration(req.Visibility, req.ExpiresAt, pol, s.now())
	if err != nil {
		return nil, err
	}

	// 3. 构造并持久化新记录
	link := &models.TrackedLink{
		FileIdentity: utils.FileIdentity(req.FilePath),
		FileName:     req.FileName,
		FilePath:     req.FilePath,
		Visibility:   req.Visibility,
		LinkURL:      req.LinkURL,
		OwnerID:      actor.ID,
		ExpiresAt:    &expiresAt,
		Recipients:   toRecipients(req.Recipients),
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		logger.Error("TrackLink: 创建链接记录失败", zap.String("linkURL", req.LinkURL), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, actor.ID, models.AuditActionLinkTracked, map[string]any{
		"link_id":    link.ID,
		"link_url":   link.LinkURL,
		"visibility": link.Visibility,
		"expires_at": link.ExpiresAt,
	})
	logger.Info("TrackLink: 链接已纳入跟踪",
		zap.Uint64("linkID", link.ID),
		zap.Uint64("ownerID", actor.ID),
		zap.String("linkURL", link.LinkURL))
	return link, nil
}

// GetLink 获取链接详情，包含权限校验
func (s *linkService) GetLink(ctx context.Context, actor *models.User, id uint64) (*models.TrackedLink, error) {
	link, err := s.linkRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("GetLink: 查询链接失败", zap.Uint64("linkID", id), zap.Error(err))
		return nil, err
	}
	if link == nil {
		return nil, xerr.ErrLinkNotFound
	}
	if !access.CanAccess(actor, link) {
		// 对外表现与不存在一致，避免泄露记录存在性
		logger.Warn("GetLink: 越权访问被拒绝",
			zap.Uint64("linkID", id), zap.Uint64("actorID", actor.ID))
		return nil, xerr.ErrLinkNotFound
	}
	return link, nil
}

// ListLinks 分页列出链接
// 非管理员的过滤条件强制为 ownerId == 本人，这是列表级RBAC的执行点
func (s *linkService) ListLinks(ctx context.Context, actor *models.User, page, pageSize int) ([]models.TrackedLink, int64, error) {
	filter := repositories.LinkFilter{}
	if !actor.IsAdmin() {
		ownerID := actor.ID
		filter.OwnerID = &ownerID
	}
	links, total, err := s.linkRepo.FindMany(ctx, filter, page, pageSize)
	if err != nil {
		logger.Error("ListLinks: 查询链接列表失败", zap.Uint64("actorID", actor.ID), zap.Error(err))
		return nil, 0, err
	}
	return links, total, nil
}

// UpdateLink 处理更新链接的业务逻辑
func (s *linkService) UpdateLink(ctx context.Context, actor *models.User, id uint64, req *UpdateLinkRequest) (*models.TrackedLink, error) {
	link, err := s.linkRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("UpdateLink: 查询链接失败", zap.Uint64("linkID", id), zap.Error(err))
		return nil, err
	}
	if link == nil {
		return nil, xerr.ErrLinkNotFound
	}
	if !access.CanMutate(actor, link) {
		logger.Warn("UpdateLink: 越权修改被拒绝",
			zap.Uint64("linkID", id), zap.Uint64("actorID", actor.ID))
		return nil, xerr.ErrLinkNotFound
	}

	if req.FileName != nil {
		link.FileName = *req.FileName
	}

	// 可见性或过期时间发生变化时必须重新执行策略校验，读取不触发
	if req.Visibility != nil || req.ExpiresAt != nil {
		if req.Visibility != nil {
			link.Visibility = *req.Visibility
		}
		requested := link.ExpiresAt
		if req.ExpiresAt != nil {
			requested = req.ExpiresAt
		}
		pol, err := s.policyRepo.GetActive(ctx)
		if err != nil {
			logger.Error("UpdateLink: 读取分享策略失败", zap.Error(err))
			return nil, fmt.Errorf("读取分享策略失败: %w", err)
		}
		expiresAt, err := policy.EvaluateExpiration(link.Visibility, requested, pol, s.now())
		if err != nil {
			return nil, err
		}
		link.ExpiresAt = &expiresAt
	}

	// 收件人一旦提供则整体替换，不做合并
	if req.Recipients != nil {
		link.Recipients = toRecipients(*req.Recipients)
	}

	if err := s.linkRepo.Update(ctx, link); err != nil {
		logger.Error("UpdateLink: 更新链接记录失败", zap.Uint64("linkID", id), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, actor.ID, models.AuditActionLinkUpdated, map[string]any{
		"link_id":    link.ID,
		"link_url":   link.LinkURL,
		"visibility": link.Visibility,
		"expires_at": link.ExpiresAt,
	})
	logger.Info("UpdateLink: 链接更新成功",
		zap.Uint64("linkID", link.ID), zap.Uint64("actorID", actor.ID))
	return link, nil
}

// UntrackLink 将链接移出跟踪
func (s *linkService) UntrackLink(ctx context.Context, actor *models.User, id uint64) error {
	link, err := s.linkRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("UntrackLink: 查询链接失败", zap.Uint64("linkID", id), zap.Error(err))
		return err
	}
	if link == nil {
		return xerr.ErrLinkNotFound
	}
	if !access.CanMutate(actor, link) {
		logger.Warn("UntrackLink: 越权删除被拒绝",
			zap.Uint64("linkID", id), zap.Uint64("actorID", actor.ID))
		return xerr.ErrLinkNotFound
	}

	if err := s.linkRepo.Delete(ctx, id); err != nil {
		logger.Error("UntrackLink: 删除链接记录失败", zap.Uint64("linkID", id), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, actor.ID, models.AuditActionLinkUntracked, map[string]any{
		"link_id":  link.ID,
		"link_url": link.LinkURL,
	})
	logger.Info("UntrackLink: 链接已移出跟踪",
		zap.Uint64("linkID", id), zap.Uint64("actorID", actor.ID))
	return nil
}

func toRecipients(inputs []RecipientInput) []models.LinkRecipient {
	recipients := make([]models.LinkRecipient, 0, len(inputs))
	for _, in := range inputs {
		recipients = append(recipients, models.LinkRecipient{
			RecipientIdentifier: in.Identifier,
			PermissionLevel:     in.Permission,
		})
	}
	return recipients
}
