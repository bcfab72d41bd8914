package sender

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/wyfcoding/cardstore/internal/notification/domain"
)

// SMTPSender 经 SMTP 发送邮件
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(host, port, username, password, from string) domain.Sender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, target, subject, content string) error {
	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + target + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		content + "\r\n")

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, auth, s.from, []string{target}, msg)
}
