package router

import (
	"net/http"

	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/handlers"
	"github.com/3Eeeecho/go-linktrack/internal/middlewares"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// InitRouter 初始化 Gin 引擎并注册全部路由
// 所有 handler 由调用方构造完依赖后传入
func InitRouter(
	authHandler *handlers.AuthHandler,
	linkHandler *handlers.LinkHandler,
	adminHandler *handlers.AdminHandler,
	expiryHandler *handlers.ExpiryHandler,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(&cfg.JWT))

		// 链接相关路由
		linkGroup := authenticated.Group("/links")
		{
			linkGroup.POST("", linkHandler.TrackLink)
			linkGroup.GET("", linkHandler.ListLinks)
			linkGroup.GET("/:link_id", linkHandler.GetLink)
			linkGroup.PUT("/:link_id", linkHandler.UpdateLink)
			linkGroup.DELETE("/:link_id", linkHandler.UntrackLink)
		}

		// 管理员路由
		adminGroup := authenticated.Group("/admin")
		adminGroup.Use(middlewares.AdminRequired())
		{
			adminGroup.GET("/policy", adminHandler.GetPolicy)
			adminGroup.PUT("/policy", adminHandler.UpdatePolicy)
			adminGroup.POST("/sync", adminHandler.TriggerSync)
			adminGroup.GET("/audit-logs", adminHandler.ListAuditLogs)
			adminGroup.GET("/expiring-links", expiryHandler.ListExpiring)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
