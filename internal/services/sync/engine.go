package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/utils"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"github.com/3Eeeecho/go-linktrack/internal/services/audit"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RemoteRecipient 远端记录中的一个收件人
type RemoteRecipient struct {
	Identifier string                 `json:"identifier"`
	Permission models.PermissionLevel `json:"permission"`
}

// RemoteLink 远端分享平台返回的一条链接记录（已归一化）
type RemoteLink struct {
	FileName   string                 `json:"file_name"`
	FilePath   string                 `json:"file_path"`
	LinkURL    string                 `json:"link_url"`
	OwnerID    uint64                 `json:"owner_id"`
	Visibility models.VisibilityClass `json:"visibility"`
	ExpiresAt  *time.Time             `json:"expires_at"`
	Recipients []RemoteRecipient      `json:"recipients"`
}

// RemoteSource 远端分享平台的列表接口
// FetchAll 返回整个组织的完整链接集合，分页（如果有）由实现内部消化
type RemoteSource interface {
	FetchAll(ctx context.Context) ([]RemoteLink, error)
}

// Engine 同步引擎：将本地跟踪集收敛到远端权威集
//
// 远端永远是事实来源：本地记录被整体覆盖或删除以匹配远端，
// 两次同步之间发生的本地修改（例如用户手动延长的过期时间）
// 会在下一次同步时被远端值覆盖，这是确定的设计属性而非缺陷。
type Engine struct {
	remote   RemoteSource
	linkRepo repositories.LinkRepository
	recorder audit.Recorder
	sf       singleflight.Group // 同一时刻只允许一趟同步在跑
}

// NewEngine 创建一个新的同步引擎实例
func NewEngine(remote RemoteSource, linkRepo repositories.LinkRepository, recorder audit.Recorder) *Engine {
	return &Engine{
		remote:   remote,
		linkRepo: linkRepo,
		recorder: recorder,
	}
}

// Synchronize 执行一趟完整同步
// 并发调用会合流到进行中的那一趟并共享其结果，不会重复执行
// 任何失败都包装为 ErrSyncFailed 返回；失败点之前已落库的变更不回滚
func (e *Engine) Synchronize(ctx context.Context) error {
	_, err, shared := e.sf.Do("synchronize", func() (any, error) {
		return nil, e.synchronize(ctx)
	})
	if shared {
		logger.Debug("Synchronize: 合流到进行中的同步")
	}
	if err != nil {
		return fmt.Errorf("%w: %w", xerr.ErrSyncFailed, err)
	}
	return nil
}

func (e *Engine) synchronize(ctx context.Context) error {
	start := time.Now()

	// 1. 先完整拉取远端集合，拉取失败则在任何本地写入发生前中止，
	//    避免基于不完整的远端快照做差异
	remoteLinks, err := e.remote.FetchAll(ctx)
	if err != nil {
		logger.Error("Synchronize: 拉取远端链接集合失败", zap.Error(err))
		return fmt.Errorf("拉取远端链接集合失败: %w", err)
	}

	// 2. 拉取本地全量快照，按 linkURL 建立索引
	localLinks, err := e.linkRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Synchronize: 读取本地链接集合失败", zap.Error(err))
		return fmt.Errorf("读取本地链接集合失败: %w", err)
	}
	localByURL := make(map[string]*models.TrackedLink, len(localLinks))
	for i := range localLinks {
		localByURL[localLinks[i].LinkURL] = &localLinks[i]
	}

	var created, updated, deleted int

	// 3. 远端存在的：本地有则原地覆盖，本地无则新插入
	remoteURLs := make(map[string]struct{}, len(remoteLinks))
	for _, r := range remoteLinks {
		if _, dup := remoteURLs[r.LinkURL]; dup {
			// 远端不应出现重复 linkURL，按处理顺序后者覆盖前者
			logger.Warn("Synchronize: 远端集合存在重复 linkURL，后写覆盖先写",
				zap.String("linkURL", r.LinkURL))
		}
		remoteURLs[r.LinkURL] = struct{}{}

		if local, ok := localByURL[r.LinkURL]; ok {
			applyRemote(local, &r)
			if err := e.linkRepo.Update(ctx, local); err != nil {
				logger.Error("Synchronize: 覆盖本地链接失败",
					zap.String("linkURL", r.LinkURL), zap.Error(err))
				return fmt.Errorf("覆盖本地链接失败: %w", err)
			}
			updated++
		} else {
			link := &models.TrackedLink{}
			applyRemote(link, &r)
			if err := e.linkRepo.Create(ctx, link); err != nil {
				logger.Error("Synchronize: 导入远端链接失败",
					zap.String("linkURL", r.LinkURL), zap.Error(err))
				return fmt.Errorf("导入远端链接失败: %w", err)
			}
			localByURL[r.LinkURL] = link
			created++
		}
	}

	// 4. 远端不存在的本地记录一律删除
	for _, l := range localLinks {
		if _, ok := remoteURLs[l.LinkURL]; ok {
			continue
		}
		if err := e.linkRepo.Delete(ctx, l.ID); err != nil {
			logger.Error("Synchronize: 删除过期本地链接失败",
				zap.Uint64("linkID", l.ID), zap.String("linkURL", l.LinkURL), zap.Error(err))
			return fmt.Errorf("删除过期本地链接失败: %w", err)
		}
		deleted++
	}

	e.recorder.Record(ctx, audit.SystemActorID, models.AuditActionSyncCompleted, map[string]any{
		"remote_total": len(remoteLinks),
		"created":      created,
		"updated":      updated,
		"deleted":      deleted,
	})
	logger.Info("Synchronize: 同步完成",
		zap.Int("remoteTotal", len(remoteLinks)),
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("deleted", deleted),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// applyRemote 用远端记录的全部字段覆盖本地记录，收件人集合整体替换
// fileIdentity 与主动跟踪时使用同一套路径哈希，保证两种来源的记录标识一致
func applyRemote(local *models.TrackedLink, r *RemoteLink) {
	local.FileIdentity = utils.FileIdentity(r.FilePath)
	local.FileName = r.FileName
	local.FilePath = r.FilePath
	local.LinkURL = r.LinkURL
	local.OwnerID = r.OwnerID
	local.Visibility = r.Visibility
	local.ExpiresAt = r.ExpiresAt

	recipients := make([]models.LinkRecipient, 0, len(r.Recipients))
	for _, rec := range r.Recipients {
		recipients = append(recipients, models.LinkRecipient{
			RecipientIdentifier: rec.Identifier,
			PermissionLevel:     rec.Permission,
		})
	}
	local.Recipients = recipients
}
