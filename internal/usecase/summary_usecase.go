package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	summaryTTL              = 30 * time.Second
	summaryRecentTransLimit = 10
)

// ダッシュボード
type Summary struct {
	repo.ItemCounts
	RecentTransactions []model.InventoryTransaction `json:"recent_transactions"`
}

type SummaryUsecase struct {
	items repo.ItemRepository
	txs   repo.TransactionRepository
	cache Cache
	clock Clock
	log   *logrus.Logger
}

// DI
func NewSummaryUsecase(items repo.ItemRepository, txs repo.TransactionRepository, cache Cache, clock Clock, log *logrus.Logger) *SummaryUsecase {
	return &SummaryUsecase{
		items: items,
		txs:   txs,
		cache: cache,
		clock: orSystemClock(clock),
		log:   orDefaultLogger(log),
	}
}

// Get はキャッシュがあればそれを返す。キャッシュの失敗はDBから読むだけ。
func (u *SummaryUsecase) Get(ctx context.Context) (Summary, error) {
	if u.cache != nil {
		var cached Summary
		if err := u.cache.Get(ctx, summaryCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	counts, err := u.items.Counts(ctx, u.clock.Now())
	if err != nil {
		u.log.WithError(err).Error("summary counts failed")
		return Summary{}, NewHTTPError(http.StatusInternalServerError, "Failed to fetch summary")
	}
	recent, err := u.txs.List(ctx, repo.TransactionFilter{Limit: summaryRecentTransLimit})
	if err != nil {
		u.log.WithError(err).Error("summary transactions failed")
		return Summary{}, NewHTTPError(http.StatusInternalServerError, "Failed to fetch summary")
	}

	s := Summary{ItemCounts: counts, RecentTransactions: recent}
	if u.cache != nil {
		if err := u.cache.Set(ctx, summaryCacheKey, s, summaryTTL); err != nil {
			u.log.WithError(err).Debug("summary cache write failed")
		}
	}
	return s, nil
}
