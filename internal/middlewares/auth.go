package middlewares

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/utils"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从请求头获取 Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Authorization header is required")
			return
		}

		// Token 格式通常是 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Invalid Authorization header format")
			return
		}
		tokenString := parts[1]

		// 2. 解析和验证 Token
		claims, err := utils.ParseToken(tokenString, cfg.SecretKey)
		if err != nil {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, "Invalid or malformed token: "+err.Error())
			return
		}

		// 3. 将用户信息存储到 Gin Context 中，以便后续 Handler 使用
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next() // Token 有效，继续处理请求
	}
}

// AdminRequired 限制路由只对管理员开放，必须挂在 AuthMiddleware 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			xerr.AbortWithError(c, http.StatusForbidden, xerr.AdminRequiredCode, "Admin privilege required")
			return
		}
		if r, ok := role.(models.Role); !ok || r != models.RoleAdmin {
			xerr.AbortWithError(c, http.StatusForbidden, xerr.AdminRequiredCode, "Admin privilege required")
			return
		}
		c.Next()
	}
}
