package repository

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"gorm.io/gorm"
)

type NotificationRuleGormRepository struct {
	db *gorm.DB
}

func NewNotificationRuleGormRepository(db *gorm.DB) *NotificationRuleGormRepository {
	return &NotificationRuleGormRepository{db: db}
}

// 有効なルールを優先度の高い順に
func (r *NotificationRuleGormRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority desc").
		Order("created_at asc")
}

func (r *NotificationRuleGormRepository) ListActive(ctx context.Context, itemID string) ([]model.NotificationRule, error) {
	q := r.active(ctx).Preload("Item").Preload("Category")
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}

	rules := []model.NotificationRule{}
	if err := q.Find(&rules).Error; err != nil {
		return []model.NotificationRule{}, err
	}
	return rules, nil
}

func (r *NotificationRuleGormRepository) ListActiveForItem(ctx context.Context, itemID string) ([]model.NotificationRule, error) {
	rules := []model.NotificationRule{}
	if err := r.active(ctx).Where("item_id = ?", itemID).Find(&rules).Error; err != nil {
		return []model.NotificationRule{}, err
	}
	return rules, nil
}

// item_id が NULL のものだけ（品目個別ルールは含めない）
func (r *NotificationRuleGormRepository) ListActiveCategoryWide(ctx context.Context, categoryID string) ([]model.NotificationRule, error) {
	rules := []model.NotificationRule{}
	err := r.active(ctx).
		Where("category_id = ? AND item_id IS NULL", categoryID).
		Find(&rules).Error
	if err != nil {
		return []model.NotificationRule{}, err
	}
	return rules, nil
}

func (r *NotificationRuleGormRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.NotificationRule{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *NotificationRuleGormRepository) FindByID(ctx context.Context, id string) (model.NotificationRule, error) {
	var rule model.NotificationRule
	err := r.db.WithContext(ctx).Preload("Item").Preload("Category").First(&rule, "id = ?", id).Error
	if isNotFound(err) {
		return model.NotificationRule{}, repo.ErrNotFound
	}
	if err != nil {
		return model.NotificationRule{}, err
	}
	return rule, nil
}

// 品目ごとのルールは1件まで
func (r *NotificationRuleGormRepository) FindByItemID(ctx context.Context, itemID string) (model.NotificationRule, error) {
	var rule model.NotificationRule
	err := r.db.WithContext(ctx).First(&rule, "item_id = ?", itemID).Error
	if isNotFound(err) {
		return model.NotificationRule{}, repo.ErrNotFound
	}
	if err != nil {
		return model.NotificationRule{}, err
	}
	return rule, nil
}

// 同じ品目のルールがすでにあれば repo.ErrConflict
func (r *NotificationRuleGormRepository) Create(ctx context.Context, rule model.NotificationRule) (model.NotificationRule, error) {
	if err := r.db.WithContext(ctx).Omit("Item", "Category").Create(&rule).Error; err != nil {
		return model.NotificationRule{}, translate(err)
	}
	return r.FindByID(ctx, rule.ID)
}

func (r *NotificationRuleGormRepository) Update(ctx context.Context, rule model.NotificationRule) (model.NotificationRule, error) {
	res := r.db.WithContext(ctx).Model(&model.NotificationRule{}).Where("id = ?", rule.ID).Updates(map[string]interface{}{
		"emails":                  rule.Emails,
		"notify_on_low_stock":     rule.NotifyOnLowStock,
		"notify_on_out_of_stock":  rule.NotifyOnOutOfStock,
		"notify_on_expiring_soon": rule.NotifyOnExpiringSoon,
		"expiring_soon_days":      rule.ExpiringSoonDays,
		"is_active":               rule.IsActive,
		"priority":                rule.Priority,
	})
	if res.Error != nil {
		return model.NotificationRule{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.NotificationRule{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, rule.ID)
}

func (r *NotificationRuleGormRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &model.NotificationRule{}, id)
}
