package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/services/admin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService admin.AuthService
}

func NewAuthHandler(authService admin.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	user, err := h.authService.RegisterUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrEmailAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.EmailAlreadyExistsCode, err.Error())
		} else {
			logger.Error("Register: 用户注册失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "注册失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "注册成功", gin.H{"user": user})
}

// Login 处理用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	token, err := h.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrInvalidCredentials) {
			xerr.Error(c, http.StatusUnauthorized, xerr.InvalidCredentialsCode, err.Error())
		} else {
			logger.Error("Login: 用户登录失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "登录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "登录成功", gin.H{"token": token})
}
