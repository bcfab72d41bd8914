package sender

import (
	"context"

	"github.com/wyfcoding/cardstore/internal/notification/domain"
	"github.com/wyfcoding/pkg/logging"
)

// MockEmailSender 模拟邮件发送器，开发环境免配 SMTP
type MockEmailSender struct{}

// NewMockEmailSender 创建模拟邮件发送器
func NewMockEmailSender() domain.Sender {
	return &MockEmailSender{}
}

// Send 只打日志，不真正发送
func (s *MockEmailSender) Send(ctx context.Context, target, subject, content string) error {
	logging.Info(ctx, "Sending email notification",
		"sender", "MockEmailSender",
		"target", target,
		"subject", subject,
	)
	return nil
}
