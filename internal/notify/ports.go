package notify

import (
	"context"
	"errors"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
)

// SMTPが未設定のときに Mailer が返す
var ErrMailerNotConfigured = errors.New("smtp not configured")

// 通知処理が使う品目の操作（last_notified_status を書くのはここだけ）
type ItemStore interface {
	FindByID(ctx context.Context, id string) (model.Item, error)
	UpdateLastNotifiedStatus(ctx context.Context, id string, status model.ItemStatus) error
	ListActive(ctx context.Context) ([]model.Item, error)
	ListExpiringCandidates(ctx context.Context, from time.Time, to time.Time) ([]model.Item, error)
	ListLowStockCandidates(ctx context.Context) ([]model.Item, error)
}

type RuleStore interface {
	ListActiveForItem(ctx context.Context, itemID string) ([]model.NotificationRule, error)
	ListActiveCategoryWide(ctx context.Context, categoryID string) ([]model.NotificationRule, error)
}

type TransactionReader interface {
	ListRecentByItem(ctx context.Context, itemID string, limit int) ([]model.InventoryTransaction, error)
}

type LogStore interface {
	Create(ctx context.Context, log model.NotificationLog) error
}

// メール送信
type Mailer interface {
	Send(ctx context.Context, to []string, subject string, html string) error
	Configured() bool
}

// 複数台で同時にスイープしないためのロック。unlock は ok のときだけ呼ぶ。
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
