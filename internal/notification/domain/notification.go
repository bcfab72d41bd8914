// Package domain 通知模块的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Type 通知类型
type Type string

const (
	TypeEmail Type = "EMAIL"
)

// Status 通知状态
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Notification 通知记录。发送失败只落 FAILED，不阻塞业务流程。
type Notification struct {
	gorm.Model
	Type         Type       `gorm:"column:tipo;type:varchar(20);not null" json:"tipo"`
	Subject      string     `gorm:"column:assunto;type:varchar(150);not null" json:"assunto"`
	Content      string     `gorm:"column:conteudo;type:text" json:"conteudo"`
	Target       string     `gorm:"column:destinatario;type:varchar(100);not null" json:"destinatario"`
	Status       Status     `gorm:"column:status;type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	ErrorMessage string     `gorm:"column:erro;type:text" json:"erro,omitempty"`
	SentAt       *time.Time `gorm:"column:enviado_em" json:"enviado_em,omitempty"`
}

func (Notification) TableName() string { return "notificacoes" }

// NotificationRepository 通知仓储
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Notification, error)
}

// Sender 通知发送端口
type Sender interface {
	Send(ctx context.Context, target, subject, content string) error
}
