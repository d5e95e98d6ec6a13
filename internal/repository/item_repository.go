package repository

import (
	"context"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 品目一覧の検索条件
type ItemListQuery struct {
	Status     *model.ItemStatus
	CategoryID string
	Search     string
	Limit      int
	Offset     int
	Now        time.Time
}

// ダッシュボード用の件数
type ItemCounts struct {
	Total        int64 `json:"total_items"`
	Low          int64 `json:"low_stock_items"`
	OutOfStock   int64 `json:"out_of_stock_items"`
	ExpiringSoon int64 `json:"expiring_soon_items"`
}

// 品目の永続化
type ItemRepository interface {
	List(ctx context.Context, q ItemListQuery) ([]model.Item, error)
	// カテゴリ/保管場所/仕入先をpreloadして返す
	FindByID(ctx context.Context, id string) (model.Item, error)

	Create(ctx context.Context, it model.Item) (model.Item, error)
	// 属性としきい値だけ更新（数量と last_notified_status は触らない）
	Update(ctx context.Context, it model.Item) error
	Deactivate(ctx context.Context, id string) error

	// 数量を delta だけ動かす。結果が負になる場合は ErrInsufficientStock
	ApplyQuantityChange(ctx context.Context, id string, delta decimal.Decimal) error

	UpdateLastNotifiedStatus(ctx context.Context, id string, status model.ItemStatus) error

	ListActive(ctx context.Context) ([]model.Item, error)
	ListExpiringCandidates(ctx context.Context, from time.Time, to time.Time) ([]model.Item, error)
	ListLowStockCandidates(ctx context.Context) ([]model.Item, error)

	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	CountByLocation(ctx context.Context, locationID string) (int64, error)
	CountBySupplier(ctx context.Context, supplierID string) (int64, error)
	Counts(ctx context.Context, now time.Time) (ItemCounts, error)
}
