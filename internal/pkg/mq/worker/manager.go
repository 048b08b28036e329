package worker

import (
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/mq"
	"go.uber.org/zap"
)

// StartAllWorkers 启动应用中所有定义的后台 Worker
func StartAllWorkers(mqClient *mq.RabbitMQClient) {
	// --- 启动过期通知 Worker ---
	notifyWorker := NewNotifyWorker(mqClient)
	if err := notifyWorker.Start(); err != nil {
		logger.Fatal("Failed to start notify worker", zap.Error(err))
	}

	// --- 在这里启动其他 Worker ---

	logger.Info("所有后台工作进程已启动。")
}
