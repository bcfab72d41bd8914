// 生成摘要：通知分发服务。
// 订单与库存事件到达后渲染 pt-BR 邮件并发送；发送失败只记录 FAILED，
// 绝不让通知失败影响订单或库存流程。
package application

import (
	"context"
	"fmt"
	"time"

	catalogdomain "github.com/wyfcoding/cardstore/internal/catalog/domain"
	"github.com/wyfcoding/cardstore/internal/notification/domain"
	orderdomain "github.com/wyfcoding/cardstore/internal/order/domain"
	"github.com/wyfcoding/pkg/logging"
)

// Dispatcher 通知分发服务
type Dispatcher struct {
	repo         domain.NotificationRepository
	sender       domain.Sender
	opsRecipient string
}

// NewDispatcher 创建分发服务；opsRecipient 为库存告警的运营收件人
func NewDispatcher(repo domain.NotificationRepository, sender domain.Sender, opsRecipient string) *Dispatcher {
	return &Dispatcher{repo: repo, sender: sender, opsRecipient: opsRecipient}
}

// NotifyOrderPaid 支付确认邮件
func (d *Dispatcher) NotifyOrderPaid(ctx context.Context, event *orderdomain.OrderEvent) {
	subject := fmt.Sprintf("Pagamento Confirmado - Pedido %s", event.OrderNo)
	content := fmt.Sprintf(
		"Ola!\n\nRecebemos o pagamento do seu pedido %s no valor de R$ %s.\nJa estamos preparando o envio.\n\nObrigado pela compra!",
		event.OrderNo, event.Total.StringFixed(2))
	d.dispatch(ctx, event.Email, subject, content)
}

// NotifyOrderShipped 发货邮件，附物流单号
func (d *Dispatcher) NotifyOrderShipped(ctx context.Context, event *orderdomain.OrderEvent) {
	subject := fmt.Sprintf("Pedido Enviado - %s", event.OrderNo)
	content := fmt.Sprintf(
		"Ola!\n\nSeu pedido %s foi enviado.\nCodigo de rastreio: %s\n\nAcompanhe a entrega pelo site da transportadora.",
		event.OrderNo, event.TrackingCode)
	d.dispatch(ctx, event.Email, subject, content)
}

// NotifyOrderDelivered 送达邮件
func (d *Dispatcher) NotifyOrderDelivered(ctx context.Context, event *orderdomain.OrderEvent) {
	subject := fmt.Sprintf("Pedido Entregue - %s", event.OrderNo)
	content := fmt.Sprintf(
		"Ola!\n\nSeu pedido %s foi entregue.\nEsperamos que aproveite suas cartas!",
		event.OrderNo)
	d.dispatch(ctx, event.Email, subject, content)
}

// NotifyOrderCancelled 取消邮件
func (d *Dispatcher) NotifyOrderCancelled(ctx context.Context, event *orderdomain.OrderEvent) {
	subject := fmt.Sprintf("Pedido Cancelado - %s", event.OrderNo)
	content := fmt.Sprintf(
		"Ola!\n\nSeu pedido %s foi cancelado e o estorno sera processado.\nQualquer duvida, fale com a gente.",
		event.OrderNo)
	d.dispatch(ctx, event.Email, subject, content)
}

// NotifyStockAlert 库存告警邮件，发给运营
func (d *Dispatcher) NotifyStockAlert(ctx context.Context, event *catalogdomain.StockAlertEvent) {
	var subject, content string
	if event.Kind == catalogdomain.AlertOutStock {
		subject = fmt.Sprintf("ESTOQUE ESGOTADO: %s", event.Name)
		content = fmt.Sprintf("O produto %q (ID %d) esgotou.\nReponha o estoque para voltar a vender.", event.Name, event.ProductID)
	} else {
		subject = fmt.Sprintf("Estoque baixo: %s", event.Name)
		content = fmt.Sprintf("O produto %q (ID %d) esta com estoque baixo: restam %d unidades.", event.Name, event.ProductID, event.Stock)
	}
	d.dispatch(ctx, d.opsRecipient, subject, content)
}

// dispatch 落记录、发送、回写结果。任何失败仅记日志。
func (d *Dispatcher) dispatch(ctx context.Context, target, subject, content string) {
	notification := &domain.Notification{
		Type:    domain.TypeEmail,
		Subject: subject,
		Content: content,
		Target:  target,
		Status:  domain.StatusPending,
	}
	if err := d.repo.Save(ctx, notification); err != nil {
		logging.Error(ctx, "falha ao registrar notificacao", "target", target, "subject", subject, "error", err)
		return
	}

	if err := d.sender.Send(ctx, target, subject, content); err != nil {
		notification.Status = domain.StatusFailed
		notification.ErrorMessage = err.Error()
		logging.Error(ctx, "falha ao enviar notificacao", "target", target, "subject", subject, "error", err)
	} else {
		now := time.Now()
		notification.Status = domain.StatusSent
		notification.SentAt = &now
	}
	if err := d.repo.Save(ctx, notification); err != nil {
		logging.Error(ctx, "falha ao atualizar notificacao", "id", notification.ID, "error", err)
	}
}
