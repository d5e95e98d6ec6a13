package notify

import (
	"context"
	"errors"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	recentTransactionsInMail = 5
	defaultSendTimeout       = 15 * time.Second
)

// Dispatcher はメールを1通組み立てて送り、結果を通知ログに残す。
// 送信の失敗は呼び出し元に返さない。
type Dispatcher struct {
	items   ItemStore
	txs     TransactionReader
	logs    LogStore
	mailer  Mailer
	clock   Clock
	log     *logrus.Logger
	timeout time.Duration
	appURL  string
}

// Dispatch は recipients が空なら何もしない（false）。
// 送信できたら true。ログは成功・失敗どちらでも1件書く。
func (d *Dispatcher) Dispatch(ctx context.Context, it model.Item, t model.NotificationType, recipients []string) bool {
	if len(recipients) == 0 {
		return false
	}
	entry := d.log.WithFields(logrus.Fields{
		"item_id":           it.ID,
		"notification_type": t,
		"recipients":        recipients,
	})

	// 関連付きで読み直す（取れなければ手元の値で送る）
	detail, err := d.items.FindByID(ctx, it.ID)
	if err != nil {
		entry.WithError(err).Warn("failed to load item detail")
		detail = it
	}
	txs, err := d.txs.ListRecentByItem(ctx, it.ID, recentTransactionsInMail)
	if err != nil {
		entry.WithError(err).Warn("failed to load recent transactions")
		txs = nil
	}

	now := d.clock.Now()
	status := model.ComputeStatus(detail, now)

	subject, body, err := renderAlert(detail, t, txs, d.appURL)
	if err == nil {
		err = d.send(ctx, recipients, subject, body)
	} else {
		subject = alertSubject(detail, t)
	}

	meta := model.NotificationMeta{EmailSent: err == nil, ItemStatus: status}
	if err != nil {
		subject = "FAILED: " + subject
		meta.Error = err.Error()
		if errors.Is(err, ErrMailerNotConfigured) {
			entry.Warn("notification not sent: smtp not configured")
		} else {
			entry.WithError(err).Error("notification send failed")
		}
	} else {
		entry.Info("notification sent")
	}

	logRow := model.NotificationLog{
		ItemID:           it.ID,
		NotificationType: t,
		Recipients:       datatypes.JSONSlice[string](recipients),
		Subject:          subject,
		Body:             body,
		SentAt:           now,
		Meta:             datatypes.NewJSONType(meta),
	}
	if lerr := d.logs.Create(ctx, logRow); lerr != nil {
		entry.WithError(lerr).Error("failed to write notification log")
	}

	return err == nil
}

// 送信は timeout で打ち切る
func (d *Dispatcher) send(ctx context.Context, to []string, subject string, body string) error {
	if !d.mailer.Configured() {
		return ErrMailerNotConfigured
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.mailer.Send(sendCtx, to, subject, body)
}
