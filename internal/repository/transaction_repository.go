package repository

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/domain/model"
)

// 取引履歴の絞り込み条件
type TransactionFilter struct {
	ItemID        string
	Type          *model.TransactionType
	PerformedBy   string
	MachineOrArea string
	JobReference  string
	Limit         int
	Offset        int
}

// 取引履歴の保存・一覧取得の約束（更新・削除はしない）
type TransactionRepository interface {
	Create(ctx context.Context, t model.InventoryTransaction) (model.InventoryTransaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]model.InventoryTransaction, error)
	ListRecentByItem(ctx context.Context, itemID string, limit int) ([]model.InventoryTransaction, error)
}
