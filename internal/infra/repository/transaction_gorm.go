package repository

import (
	"context"
	"strings"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"gorm.io/gorm"
)

type TransactionGormRepository struct {
	db *gorm.DB
}

func NewTransactionGormRepository(db *gorm.DB) *TransactionGormRepository {
	return &TransactionGormRepository{db: db}
}

func (r *TransactionGormRepository) Create(ctx context.Context, t model.InventoryTransaction) (model.InventoryTransaction, error) {
	if err := r.db.WithContext(ctx).Omit("Item").Create(&t).Error; err != nil {
		return model.InventoryTransaction{}, err
	}
	return t, nil
}

func (r *TransactionGormRepository) List(ctx context.Context, filter repo.TransactionFilter) ([]model.InventoryTransaction, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryTransaction{}).
		Preload("Item").
		Preload("Item.Category")

	if filter.ItemID != "" {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	q = containsScope(q, "performed_by", filter.PerformedBy)
	q = containsScope(q, "machine_or_area", filter.MachineOrArea)
	q = containsScope(q, "job_reference", filter.JobReference)

	//新しい順
	q = q.Order("created_at DESC").Order("id DESC")

	// limit/offset
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	q = q.Limit(limit).Offset(filter.Offset)

	ts := []model.InventoryTransaction{}
	if err := q.Find(&ts).Error; err != nil {
		return []model.InventoryTransaction{}, err
	}
	return ts, nil
}

// メール本文用の直近履歴
func (r *TransactionGormRepository) ListRecentByItem(ctx context.Context, itemID string, limit int) ([]model.InventoryTransaction, error) {
	ts := []model.InventoryTransaction{}
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&ts).Error
	if err != nil {
		return []model.InventoryTransaction{}, err
	}
	return ts, nil
}

// 大文字小文字を区別しない部分一致
func containsScope(q *gorm.DB, column string, value string) *gorm.DB {
	v := strings.TrimSpace(value)
	if v == "" {
		return q
	}
	return q.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(v)+"%")
}
