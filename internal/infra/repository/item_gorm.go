package repository

import (
	"context"
	"strings"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewItemGormRepository(db *gorm.DB) *ItemGormRepository {
	return &ItemGormRepository{db: db}
}

func (r *ItemGormRepository) withRelations(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Category").Preload("Location").Preload("Supplier")
}

// 有効な品目を、ステータス/カテゴリ/検索/ページング付きで返す。
func (r *ItemGormRepository) List(ctx context.Context, q repo.ItemListQuery) ([]model.Item, error) {
	tx := r.withRelations(r.db.WithContext(ctx).Model(&model.Item{})).
		Where("is_active = ?", true)

	if q.CategoryID != "" {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}

	// name / sku を対象（DBに依らないようLOWERで比較）
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", like, like)
	}

	if q.Status != nil {
		now := q.Now
		if now.IsZero() {
			now = time.Now()
		}
		tx = statusScope(tx, *q.Status, now)
	}

	tx = tx.Order("name asc").Order("id asc")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	items := []model.Item{}
	if err := tx.Find(&items).Error; err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// statusScope は model.ComputeStatus と同じ判定をSQLで行う。
// 4つの条件は互いに排他。
func statusScope(tx *gorm.DB, status model.ItemStatus, now time.Time) *gorm.DB {
	from, to := model.ExpiringWindow(now)
	switch status {
	case model.ItemStatusOutOfStock:
		return tx.Where("current_quantity <= 0")
	case model.ItemStatusLow:
		return tx.Where("current_quantity > 0 AND current_quantity <= minimum_quantity")
	case model.ItemStatusExpiringSoon:
		return tx.Where("current_quantity > 0 AND current_quantity > minimum_quantity").
			Where("expiration_date IS NOT NULL AND expiration_date >= ? AND expiration_date < ?", from, to)
	case model.ItemStatusOK:
		return tx.Where("current_quantity > 0 AND current_quantity > minimum_quantity").
			Where("(expiration_date IS NULL OR expiration_date < ? OR expiration_date >= ?)", from, to)
	default:
		return tx
	}
}

// IDで品目を取得（関連もまとめて）
func (r *ItemGormRepository) FindByID(ctx context.Context, id string) (model.Item, error) {
	var it model.Item
	err := r.withRelations(r.db.WithContext(ctx)).First(&it, "id = ?", id).Error
	if isNotFound(err) {
		return model.Item{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// 品目の作成
func (r *ItemGormRepository) Create(ctx context.Context, it model.Item) (model.Item, error) {
	if err := r.db.WithContext(ctx).Omit("Category", "Location", "Supplier").Create(&it).Error; err != nil {
		return model.Item{}, translate(err)
	}
	return it, nil
}

// 品目の更新。数量と last_notified_status は含めない。
func (r *ItemGormRepository) Update(ctx context.Context, it model.Item) error {
	res := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", it.ID).Updates(map[string]interface{}{
		"name":             it.Name,
		"sku":              it.SKU,
		"category_id":      it.CategoryID,
		"location_id":      it.LocationID,
		"supplier_id":      it.SupplierID,
		"unit_of_measure":  it.UnitOfMeasure,
		"minimum_quantity": it.MinimumQuantity,
		"reorder_quantity": it.ReorderQuantity,
		"expiration_date":  it.ExpirationDate,
		"is_active":        it.IsActive,
		"notes":            it.Notes,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 論理削除
func (r *ItemGormRepository) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 結果が0以上になるときだけ数量を動かす
func (r *ItemGormRepository) ApplyQuantityChange(ctx context.Context, id string, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ? AND current_quantity + ? >= 0", id, delta).
		Update("current_quantity", gorm.Expr("current_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// 0件なら「存在しない」か「足りない」
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrInsufficientStock
}

// updated_at は動かさない
func (r *ItemGormRepository) UpdateLastNotifiedStatus(ctx context.Context, id string, status model.ItemStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", id).
		UpdateColumn("last_notified_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ItemGormRepository) ListActive(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Order("name asc").
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// 期限が [from, to) にあり、まだ EXPIRING_SOON を通知していない品目
func (r *ItemGormRepository) ListExpiringCandidates(ctx context.Context, from time.Time, to time.Time) ([]model.Item, error) {
	items := []model.Item{}
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Where("expiration_date IS NOT NULL AND expiration_date >= ? AND expiration_date < ?", from, to).
		Where("last_notified_status <> ?", model.ItemStatusExpiringSoon).
		Order("expiration_date asc").
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// 0 < 数量 <= 最小数 で、まだ LOW を通知していない品目
func (r *ItemGormRepository) ListLowStockCandidates(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Where("current_quantity > 0 AND current_quantity <= minimum_quantity").
		Where("last_notified_status <> ?", model.ItemStatusLow).
		Order("name asc").
		Find(&items).Error
	if err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

// 削除ガード用。無効化済みの品目も数える。
func (r *ItemGormRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	return r.countWhere(ctx, "category_id = ?", categoryID)
}

func (r *ItemGormRepository) CountByLocation(ctx context.Context, locationID string) (int64, error) {
	return r.countWhere(ctx, "location_id = ?", locationID)
}

func (r *ItemGormRepository) CountBySupplier(ctx context.Context, supplierID string) (int64, error) {
	return r.countWhere(ctx, "supplier_id = ?", supplierID)
}

func (r *ItemGormRepository) countWhere(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Item{}).Where(query, args...).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ダッシュボード用のステータス別件数（有効な品目のみ）
func (r *ItemGormRepository) Counts(ctx context.Context, now time.Time) (repo.ItemCounts, error) {
	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Item{}).Where("is_active = ?", true)
	}

	var c repo.ItemCounts
	if err := active().Count(&c.Total).Error; err != nil {
		return repo.ItemCounts{}, err
	}
	if err := statusScope(active(), model.ItemStatusLow, now).Count(&c.Low).Error; err != nil {
		return repo.ItemCounts{}, err
	}
	if err := statusScope(active(), model.ItemStatusOutOfStock, now).Count(&c.OutOfStock).Error; err != nil {
		return repo.ItemCounts{}, err
	}
	if err := statusScope(active(), model.ItemStatusExpiringSoon, now).Count(&c.ExpiringSoon).Error; err != nil {
		return repo.ItemCounts{}, err
	}
	return c, nil
}
