package handlers

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/services/expiry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExpiryHandler 即将过期链接的预览接口（管理员）
type ExpiryHandler struct {
	scanner *expiry.Scanner
}

func NewExpiryHandler(scanner *expiry.Scanner) *ExpiryHandler {
	return &ExpiryHandler{scanner: scanner}
}

// ListExpiring 按所有者分组返回 days 天内即将过期的链接
func (h *ExpiryHandler) ListExpiring(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的 days 参数")
		return
	}

	groups, err := h.scanner.FindExpiringLinks(c.Request.Context(), days)
	if err != nil {
		logger.Error("ListExpiring: 查询即将过期链接失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.DatabaseErrorCode, "查询即将过期链接失败")
		return
	}

	xerr.Success(c, http.StatusOK, "获取即将过期链接成功", gin.H{
		"days":   days,
		"groups": groups,
	})
}
