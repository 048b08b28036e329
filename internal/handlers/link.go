package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/utils"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/services/links"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	linkService links.LinkService
}

func NewLinkHandler(linkService links.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// TrackLink 将一条外部分享链接纳入跟踪
func (h *LinkHandler) TrackLink(c *gin.Context) {
	var req links.TrackLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	actor, ok := utils.GetUserFromContext(c)
	if !ok {
		return
	}

	link, err := h.linkService.TrackLink(c.Request.Context(), actor, &req)
	if err != nil {
		h.writeLinkError(c, err, "TrackLink")
		return
	}

	xerr.Success(c, http.StatusOK, "链接已纳入跟踪", gin.H{"link": link})
}

// GetLink 获取单条链接详情
func (h *LinkHandler) GetLink(c *gin.Context) {
	id, ok := parseLinkID(c)
	if !ok {
		return
	}
	actor, ok := utils.GetUserFromContext(c)
	if !ok {
		return
	}

	link, err := h.linkService.GetLink(c.Request.Context(), actor, id)
	if err != nil {
		h.writeLinkError(c, err, "GetLink")
		return
	}

	xerr.Success(c, http.StatusOK, "获取链接详情成功", gin.H{"link": link})
}

// ListLinks 分页列出链接，非管理员只能看到自己的
func (h *LinkHandler) ListLinks(c *gin.Context) {
	actor, ok := utils.GetUserFromContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.linkService.ListLinks(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		h.writeLinkError(c, err, "ListLinks")
		return
	}

	xerr.Success(c, http.StatusOK, "获取链接列表成功", gin.H{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// UpdateLink 更新链接
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	id, ok := parseLinkID(c)
	if !ok {
		return
	}
	actor, ok := utils.GetUserFromContext(c)
	if !ok {
		return
	}

	var req links.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	link, err := h.linkService.UpdateLink(c.Request.Context(), actor, id, &req)
	if err != nil {
		h.writeLinkError(c, err, "UpdateLink")
		return
	}

	xerr.Success(c, http.StatusOK, "链接更新成功", gin.H{"link": link})
}

// UntrackLink 将链接移出跟踪
func (h *LinkHandler) UntrackLink(c *gin.Context) {
	id, ok := parseLinkID(c)
	if !ok {
		return
	}
	actor, ok := utils.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := h.linkService.UntrackLink(c.Request.Context(), actor, id); err != nil {
		h.writeLinkError(c, err, "UntrackLink")
		return
	}

	xerr.Success(c, http.StatusOK, "链接已移出跟踪", nil)
}

// writeLinkError 统一的链接服务错误映射
func (h *LinkHandler) writeLinkError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, xerr.ErrLinkNotFound):
		xerr.Error(c, http.StatusNotFound, xerr.LinkNotFoundCode, err.Error())
	case errors.Is(err, xerr.ErrLinkAlreadyTracked):
		xerr.Error(c, http.StatusConflict, xerr.LinkAlreadyTrackedCode, err.Error())
	case errors.Is(err, xerr.ErrPublicSharingDisabled):
		xerr.Error(c, http.StatusForbidden, xerr.PublicSharingDisabledCode, err.Error())
	case errors.Is(err, xerr.ErrExpiresExceedsLimit):
		xerr.Error(c, http.StatusForbidden, xerr.ExpiresExceedsLimitCode, err.Error())
	default:
		logger.Error(op+": 处理请求失败", zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "服务器内部错误")
	}
}

func parseLinkID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("link_id"), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的链接ID")
		return 0, false
	}
	return id, true
}
