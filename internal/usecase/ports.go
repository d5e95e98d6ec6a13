package usecase

import (
	"context"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	"github.com/IgesAI/AMautomation/internal/notify"

	"github.com/sirupsen/logrus"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 取引のあとに通知判定を走らせる（notify.Notifier）
type ItemProcessor interface {
	ProcessItem(ctx context.Context, it model.Item) (notify.Decision, error)
}

// 通知APIが使う操作（notify.Notifier）
type NotificationService interface {
	RunChecks(ctx context.Context) (notify.CheckResult, error)
	ForceResend(ctx context.Context, includeLow bool, includeOutOfStock bool) (int, error)
	SendTest(ctx context.Context, email string) error
}

// サマリのキャッシュ（cache.RedisCache）。無効時は Get がエラーを返す。
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const summaryCacheKey = "inventory:summary"

// 件数が変わる操作のあとに呼ぶ。失敗しても TTL で消えるのでログだけ。
func invalidateSummary(ctx context.Context, c Cache, log *logrus.Logger) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, summaryCacheKey); err != nil {
		log.WithError(err).Warn("summary cache invalidation failed")
	}
}

func orDefaultLogger(log *logrus.Logger) *logrus.Logger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func orSystemClock(c Clock) Clock {
	if c == nil {
		return systemClock{}
	}
	return c
}
