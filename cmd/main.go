package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/3Eeeecho/go-linktrack/cmd/server"
	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// 初始化日志
	logger.InitLogger(cfg.Log.OutputPath, cfg.Log.ErrorPath, cfg.Log.Level)
	defer logger.Sync()

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	// 监听退出信号
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	srv.Run(context.Background(), stopChan)
}
