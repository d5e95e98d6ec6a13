// Package notify は在庫ステータスの変化を検知してメール通知を送る。
//
// 判定（Decide）は純粋関数で、送信と last_notified_status の更新は Notifier が行う。
// 送信の失敗は通知ログとアプリログに残し、呼び出し元の処理は止めない。
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	"github.com/IgesAI/AMautomation/internal/validator"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	sweepLockKey   = "inventory:notify:sweep"
	defaultLockTTL = 10 * time.Minute
)

var ErrInvalidEmail = errors.New("valid email address is required")

type Config struct {
	DefaultRecipients []string
	SendTimeout       time.Duration
	AppURL            string
	From              string
	LockTTL           time.Duration
}

// Locker と Clock は省略可
type Deps struct {
	Items        ItemStore
	Rules        RuleStore
	Transactions TransactionReader
	Logs         LogStore
	Mailer       Mailer
	Locker       Locker
	Clock        Clock
	Log          *logrus.Logger
}

type Notifier struct {
	items      ItemStore
	resolver   *Resolver
	dispatcher *Dispatcher
	mailer     Mailer
	locker     Locker
	clock      Clock
	log        *logrus.Logger
	cfg        Config
}

// DI
func New(deps Deps, cfg Config) *Notifier {
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	return &Notifier{
		items:    deps.Items,
		resolver: NewResolver(deps.Rules, cfg.DefaultRecipients),
		dispatcher: &Dispatcher{
			items:   deps.Items,
			txs:     deps.Transactions,
			logs:    deps.Logs,
			mailer:  deps.Mailer,
			clock:   deps.Clock,
			log:     deps.Log,
			timeout: cfg.SendTimeout,
			appURL:  cfg.AppURL,
		},
		mailer: deps.Mailer,
		locker: deps.Locker,
		clock:  deps.Clock,
		log:    deps.Log,
		cfg:    cfg,
	}
}

// スイープ1回分の集計
type ScanResult struct {
	Scanned   int `json:"scanned"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type CheckResult struct {
	ExpiringSoon ScanResult `json:"expiring_soon"`
	LowStock     ScanResult `json:"low_stock"`
	// 他のインスタンスが実行中だった
	Skipped bool `json:"skipped"`
}

// ProcessItem は判定して、必要なら送信し、ステータスが変わっていれば記録する。
func (n *Notifier) ProcessItem(ctx context.Context, it model.Item) (Decision, error) {
	d := Decide(it, n.clock.Now())
	if !d.Changed() {
		return d, nil
	}

	for _, t := range d.Emit {
		recipients, err := n.resolver.Resolve(ctx, it, t)
		if err != nil {
			return d, pkgerrors.Wrapf(err, "resolve recipients for item %s", it.ID)
		}
		n.dispatcher.Dispatch(ctx, it, t, recipients)
	}

	// 送る通知がなくても（回復など）記録する
	if err := n.items.UpdateLastNotifiedStatus(ctx, it.ID, d.Current); err != nil {
		return d, pkgerrors.Wrapf(err, "update last notified status for item %s", it.ID)
	}
	return d, nil
}

// CheckExpiringSoon は期限間近でまだ通知していない品目を順に処理する
func (n *Notifier) CheckExpiringSoon(ctx context.Context) (ScanResult, error) {
	from, to := model.ExpiringWindow(n.clock.Now())
	items, err := n.items.ListExpiringCandidates(ctx, from, to)
	if err != nil {
		return ScanResult{}, pkgerrors.Wrap(err, "list expiring candidates")
	}
	return n.scan(ctx, "expiring_soon", items), nil
}

// CheckLowStock は在庫少でまだ通知していない品目を順に処理する
func (n *Notifier) CheckLowStock(ctx context.Context) (ScanResult, error) {
	items, err := n.items.ListLowStockCandidates(ctx)
	if err != nil {
		return ScanResult{}, pkgerrors.Wrap(err, "list low stock candidates")
	}
	return n.scan(ctx, "low_stock", items), nil
}

// 1件の失敗でスキャン全体は止めない
func (n *Notifier) scan(ctx context.Context, name string, items []model.Item) ScanResult {
	res := ScanResult{Scanned: len(items)}
	for _, it := range items {
		if ctx.Err() != nil {
			res.Failed += len(items) - res.Processed - res.Failed
			break
		}
		if _, err := n.ProcessItem(ctx, it); err != nil {
			res.Failed++
			n.log.WithError(err).WithFields(logrus.Fields{
				"sweep":   name,
				"item_id": it.ID,
			}).Error("sweep item failed")
			continue
		}
		res.Processed++
	}
	n.log.WithFields(logrus.Fields{
		"sweep":     name,
		"scanned":   res.Scanned,
		"processed": res.Processed,
		"failed":    res.Failed,
	}).Info("sweep finished")
	return res
}

// RunChecks は期限→在庫少の順に両方のスイープを実行する。
// Locker があれば取れたときだけ実行する。
func (n *Notifier) RunChecks(ctx context.Context) (CheckResult, error) {
	if n.locker != nil {
		unlock, ok, err := n.locker.TryLock(ctx, sweepLockKey, n.cfg.LockTTL)
		if err != nil {
			// ロック基盤が落ちていてもスイープは止めない
			n.log.WithError(err).Warn("sweep lock unavailable, running without lock")
		} else if !ok {
			n.log.Info("sweep already running elsewhere, skipped")
			return CheckResult{Skipped: true}, nil
		} else {
			defer unlock()
		}
	}

	var out CheckResult
	var firstErr error

	exp, err := n.CheckExpiringSoon(ctx)
	if err != nil {
		firstErr = err
	}
	out.ExpiringSoon = exp

	low, err := n.CheckLowStock(ctx)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	out.LowStock = low

	return out, firstErr
}

// ForceResend は前回の通知状態を無視して、在庫切れ/在庫少の品目に通知を送り直す。
// 宛先が1件以上あって送信を試みた品目数を返す。
func (n *Notifier) ForceResend(ctx context.Context, includeLow bool, includeOutOfStock bool) (int, error) {
	items, err := n.items.ListActive(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "list active items")
	}

	now := n.clock.Now()
	count := 0
	for _, it := range items {
		status := model.ComputeStatus(it, now)

		var t model.NotificationType
		switch {
		case includeOutOfStock && status == model.ItemStatusOutOfStock:
			t = model.NotificationOutOfStock
		case includeLow && status == model.ItemStatusLow:
			t = model.NotificationLowStock
		default:
			continue
		}

		entry := n.log.WithFields(logrus.Fields{"item_id": it.ID, "notification_type": t})
		recipients, err := n.resolver.Resolve(ctx, it, t)
		if err != nil {
			entry.WithError(err).Error("force resend: resolve recipients failed")
			continue
		}
		if len(recipients) > 0 {
			n.dispatcher.Dispatch(ctx, it, t, recipients)
			count++
		}

		if err := n.items.UpdateLastNotifiedStatus(ctx, it.ID, status); err != nil {
			entry.WithError(err).Error("force resend: update last notified status failed")
		}
	}
	return count, nil
}

// SendTest は設定確認用のテストメールを1通送る
func (n *Notifier) SendTest(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !validator.Email(email) {
		return ErrInvalidEmail
	}
	if !n.mailer.Configured() {
		return ErrMailerNotConfigured
	}

	body, err := renderTest(n.cfg.From, n.clock.Now())
	if err != nil {
		return pkgerrors.Wrap(err, "render test email")
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout)
	defer cancel()
	if err := n.mailer.Send(sendCtx, []string{email}, testSubject, body); err != nil {
		n.log.WithError(err).WithField("recipient", email).Error("test email failed")
		return err
	}
	n.log.WithField("recipient", email).Info("test email sent")
	return nil
}
