package scheduler

import (
	"context"

	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/services/expiry"
	"github.com/3Eeeecho/go-linktrack/internal/services/sync"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 定时调度同步任务和过期通知任务
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.SchedulerConfig
	engine  *sync.Engine
	scanner *expiry.Scanner
}

// NewScheduler 创建一个新的调度器实例
func NewScheduler(cfg *config.SchedulerConfig, engine *sync.Engine, scanner *expiry.Scanner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		engine:  engine,
		scanner: scanner,
	}
}

// Start 注册任务并启动调度
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.SyncCron, s.runSync); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ExpiryCron, s.runExpiryScan); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Scheduler started",
		zap.String("syncCron", s.cfg.SyncCron),
		zap.String("expiryCron", s.cfg.ExpiryCron))
	return nil
}

// Stop 停止调度，等待进行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Scheduler stopped")
}

func (s *Scheduler) runSync() {
	if err := s.engine.Synchronize(context.Background()); err != nil {
		logger.Error("Scheduled synchronize failed", zap.Error(err))
	}
}

func (s *Scheduler) runExpiryScan() {
	if err := s.scanner.NotifyExpiring(context.Background(), s.cfg.ExpiryDaysAhead); err != nil {
		logger.Error("Scheduled expiry scan failed", zap.Error(err))
	}
}
