package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/handlers"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/cache"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/mq"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/remote"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"github.com/3Eeeecho/go-linktrack/internal/router"
	"github.com/3Eeeecho/go-linktrack/internal/scheduler"
	"github.com/3Eeeecho/go-linktrack/internal/services/admin"
	"github.com/3Eeeecho/go-linktrack/internal/services/audit"
	"github.com/3Eeeecho/go-linktrack/internal/services/expiry"
	"github.com/3Eeeecho/go-linktrack/internal/services/links"
	syncsvc "github.com/3Eeeecho/go-linktrack/internal/services/sync"
	"github.com/3Eeeecho/go-linktrack/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	db             *gorm.DB
	redisClient    *redis.Client
	rabbitMQClient *mq.RabbitMQClient
	sched          *scheduler.Scheduler
}

// NewServer 负责构建所有依赖
// 所有组件显式构造并通过引用传递，不依赖包级全局实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	db, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	// 初始化 Redis 连接
	redisClient, err := setup.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// 初始化 RabbitMQ
	rabbitMQClient, err := mq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// 初始化 Repositories
	redisCache := cache.NewRedisCache(redisClient)
	linkRepo := repositories.NewLinkRepository(db)
	userRepo := repositories.NewUserRepository(db)
	policyRepo := repositories.NewPolicyRepository(db, redisCache)
	auditRepo := repositories.NewAuditLogRepository(db)

	// 初始化 Services
	recorder := audit.NewRecorder(auditRepo)
	authService := admin.NewAuthService(userRepo, &cfg.JWT)
	linkService := links.NewLinkService(linkRepo, policyRepo, recorder)
	remoteClient := remote.NewClient(&cfg.Remote)
	engine := syncsvc.NewEngine(remoteClient, linkRepo, recorder)
	dispatcher, err := expiry.NewMQDispatcher(rabbitMQClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notify dispatcher: %w", err)
	}
	scanner := expiry.NewScanner(linkRepo, userRepo, dispatcher)

	// 初始化 Handlers
	authHandler := handlers.NewAuthHandler(authService)
	linkHandler := handlers.NewLinkHandler(linkService)
	adminHandler := handlers.NewAdminHandler(policyRepo, auditRepo, recorder, engine)
	expiryHandler := handlers.NewExpiryHandler(scanner)

	// 启动所有后台 Worker
	worker.StartAllWorkers(rabbitMQClient)

	// 初始化定时任务
	sched := scheduler.NewScheduler(&cfg.Scheduler, engine, scanner)

	// 初始化 Gin 引擎和注册路由
	engineRouter := router.InitRouter(authHandler, linkHandler, adminHandler, expiryHandler, cfg)

	addr := ":" + cfg.Server.Port
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engineRouter,
	}

	return &Server{
		router:         engineRouter,
		httpServer:     httpServer,
		db:             db,
		redisClient:    redisClient,
		rabbitMQClient: rabbitMQClient,
		sched:          sched,
	}, nil
}

// Run 启动服务器和定时任务，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	// GORM v2 依赖连接池，通常不需要手动关闭。Redis和MQ需要
	defer s.rabbitMQClient.Close()
	defer s.redisClient.Close()

	if err := s.sched.Start(); err != nil {
		logger.Fatal("Scheduler failed to start", zap.Error(err))
	}

	// 启动 HTTP 服务器
	go func() {
		logger.Info(fmt.Sprintf("Server is running on %s", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	s.sched.Stop()

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
