package mailer

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/notify"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// SMTP未設定（notify側で送信失敗と区別する）
var ErrNotConfigured = notify.ErrMailerNotConfigured

// SMTPMailer はSMTPでHTMLメールを送る。送信ごとに接続する。
type SMTPMailer struct {
	cfg config.SMTPConfig
	log *logrus.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, log *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) Configured() bool {
	return m.cfg.Configured()
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject string, html string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	msg, err := m.buildMessage(to, subject, html)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return errors.Wrap(err, "failed to create smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	m.log.WithFields(logrus.Fields{
		"recipients": to,
		"subject":    subject,
	}).Debug("email sent")
	return nil
}

func (m *SMTPMailer) buildMessage(to []string, subject string, html string) (*mail.Msg, error) {
	if len(to) == 0 {
		return nil, errors.New("no recipients")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, errors.Wrapf(err, "invalid from address %q", m.cfg.From)
	}
	if err := msg.To(to...); err != nil {
		return nil, errors.Wrap(err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	return msg, nil
}

// 465はSMTPS、それ以外はSTARTTLSを試す
func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	return opts
}
