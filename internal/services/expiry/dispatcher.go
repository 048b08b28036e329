package expiry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/3Eeeecho/go-linktrack/internal/pkg/mq"
)

// NotifyQueueName 过期通知队列名，通知投递由独立 worker 消费
const NotifyQueueName = "link_expiry_notify_queue"

// MQDispatcher 把每组通知发布到 RabbitMQ，由 worker 异步投递
type MQDispatcher struct {
	mqClient *mq.RabbitMQClient
}

var _ Dispatcher = (*MQDispatcher)(nil)

// NewMQDispatcher 创建分发器并声明队列
func NewMQDispatcher(mqClient *mq.RabbitMQClient) (*MQDispatcher, error) {
	if _, err := mqClient.DeclareQueue(NotifyQueueName); err != nil {
		return nil, fmt.Errorf("failed to declare notify queue: %w", err)
	}
	return &MQDispatcher{mqClient: mqClient}, nil
}

func (d *MQDispatcher) Dispatch(ctx context.Context, group OwnerExpiringLinks) error {
	body, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("序列化通知消息失败: %w", err)
	}
	if err := d.mqClient.Publish(NotifyQueueName, body); err != nil {
		return fmt.Errorf("发布通知消息失败: %w", err)
	}
	return nil
}
