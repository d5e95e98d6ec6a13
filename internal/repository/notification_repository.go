package repository

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/domain/model"
)

// 通知ルールの永続化
type NotificationRuleRepository interface {
	// itemID が空なら全件（有効なもの、priority降順）
	ListActive(ctx context.Context, itemID string) ([]model.NotificationRule, error)
	ListActiveForItem(ctx context.Context, itemID string) ([]model.NotificationRule, error)
	// item_id が NULL のカテゴリ全体ルールだけ
	ListActiveCategoryWide(ctx context.Context, categoryID string) ([]model.NotificationRule, error)
	CountActive(ctx context.Context) (int64, error)

	FindByID(ctx context.Context, id string) (model.NotificationRule, error)
	FindByItemID(ctx context.Context, itemID string) (model.NotificationRule, error)
	Create(ctx context.Context, r model.NotificationRule) (model.NotificationRule, error)
	Update(ctx context.Context, r model.NotificationRule) (model.NotificationRule, error)
	Delete(ctx context.Context, id string) error
}

// 通知ログ（追記のみ）
type NotificationLogRepository interface {
	Create(ctx context.Context, log model.NotificationLog) error
	ListRecent(ctx context.Context, limit int) ([]model.NotificationLog, error)
}
