package audit

import (
	"context"
	"encoding/json"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SystemActorID 定时任务等非用户触发的动作使用的操作者ID
const SystemActorID uint64 = 0

// Recorder 审计记录器接口，fire-and-forget：记录失败不影响触发它的业务操作
type Recorder interface {
	Record(ctx context.Context, actorID uint64, action string, details map[string]any)
}

type recorder struct {
	auditRepo repositories.AuditLogRepository
}

var _ Recorder = (*recorder)(nil)

// NewRecorder 创建一个新的审计记录器
func NewRecorder(auditRepo repositories.AuditLogRepository) Recorder {
	return &recorder{auditRepo: auditRepo}
}

// Record 追加一条审计记录
// 序列化或写入失败只记日志，绝不向调用方返回错误
func (r *recorder) Record(ctx context.Context, actorID uint64, action string, details map[string]any) {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Error("Failed to marshal audit details",
				zap.String("action", action), zap.Error(err))
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		EventID: uuid.New().String(),
		ActorID: actorID,
		Action:  action,
		Details: detailsJSON,
	}
	if err := r.auditRepo.Append(ctx, entry); err != nil {
		logger.Error("Failed to append audit log",
			zap.String("action", action),
			zap.Uint64("actorID", actorID),
			zap.Error(err))
	}
}
