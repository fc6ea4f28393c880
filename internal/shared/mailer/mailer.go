// Package mailer 封装出站邮件外部协作方
//
// 基于 SMTP（gomail），仅用于密码重置令牌投递。
// 发送失败直接上抛，由发起请求决定回滚；本层不重试。
package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Config SMTP 配置
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// Mailer SMTP 邮件发送器
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New 创建邮件发送器
func New(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
	}
}

// Send 发送纯文本邮件
//
// gomail 不支持 context 取消，这里只在发送前检查一次 ctx，
// 连接/发送超时由 SMTP 拨号内部控制。
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
