package handlers

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/utils"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"github.com/3Eeeecho/go-linktrack/internal/services/audit"
	"github.com/3Eeeecho/go-linktrack/internal/services/sync"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler 管理员专属接口：策略配置、手动同步、审计查询
type AdminHandler struct {
	policyRepo repositories.PolicyRepository
	auditRepo  repositories.AuditLogRepository
	recorder   audit.Recorder
	engine     *sync.Engine
}

func NewAdminHandler(policyRepo repositories.PolicyRepository, auditRepo repositories.AuditLogRepository, recorder audit.Recorder, engine *sync.Engine) *AdminHandler {
	return &AdminHandler{
		policyRepo: policyRepo,
		auditRepo:  auditRepo,
		recorder:   recorder,
		engine:     engine,
	}
}

type UpdatePolicyRequest struct {
	MaxDurationInternal int  `json:"max_duration_internal" binding:"required,min=1"`
	MaxDurationExternal int  `json:"max_duration_external" binding:"required,min=1"`
	AllowPublicSharing  bool `json:"allow_public_sharing"`
}

// GetPolicy 返回当前生效的分享策略
func (h *AdminHandler) GetPolicy(c *gin.Context) {
	policy, err := h.policyRepo.GetActive(c.Request.Context())
	if err != nil {
		logger.Error("GetPolicy: 读取分享策略失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "读取分享策略失败")
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享策略成功", gin.H{"policy": policy})
}

// UpdatePolicy 更新分享策略并使缓存失效
func (h *AdminHandler) UpdatePolicy(c *gin.Context) {
	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	actor, ok := utils.GetUserFromContext(c)
	if !ok {
		return
	}

	policy, err := h.policyRepo.GetActive(c.Request.Context())
	if err != nil {
		logger.Error("UpdatePolicy: 读取分享策略失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "读取分享策略失败")
		return
	}

	policy.MaxDurationInternal = req.MaxDurationInternal
	policy.MaxDurationExternal = req.MaxDurationExternal
	policy.AllowPublicSharing = req.AllowPublicSharing
	if err := h.policyRepo.Update(c.Request.Context(), policy); err != nil {
		logger.Error("UpdatePolicy: 更新分享策略失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "更新分享策略失败")
		return
	}

	h.recorder.Record(c.Request.Context(), actor.ID, models.AuditActionPolicyUpdated, map[string]any{
		"max_duration_internal": policy.MaxDurationInternal,
		"max_duration_external": policy.MaxDurationExternal,
		"allow_public_sharing":  policy.AllowPublicSharing,
	})
	xerr.Success(c, http.StatusOK, "分享策略更新成功", gin.H{"policy": policy})
}

// TriggerSync 手动触发一趟同步
// 与定时同步共用同一个引擎实例，重叠调用会合流到进行中的那一趟
func (h *AdminHandler) TriggerSync(c *gin.Context) {
	if err := h.engine.Synchronize(c.Request.Context()); err != nil {
		logger.Error("TriggerSync: 同步失败", zap.Error(err))
		xerr.Error(c, http.StatusBadGateway, xerr.SyncErrorCode, err.Error())
		return
	}
	xerr.Success(c, http.StatusOK, "同步完成", nil)
}

// ListAuditLogs 分页查询审计记录
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	entries, total, err := h.auditRepo.FindRecent(c.Request.Context(), page, pageSize)
	if err != nil {
		logger.Error("ListAuditLogs: 查询审计记录失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "查询审计记录失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取审计记录成功", gin.H{
		"items":     entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
