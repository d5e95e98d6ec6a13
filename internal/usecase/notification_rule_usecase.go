package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"
	"github.com/IgesAI/AMautomation/internal/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type NotificationRuleUsecase struct {
	rules      repo.NotificationRuleRepository
	items      repo.ItemRepository
	categories repo.CategoryRepository
	log        *logrus.Logger
}

// DI
func NewNotificationRuleUsecase(
	rules repo.NotificationRuleRepository,
	items repo.ItemRepository,
	categories repo.CategoryRepository,
	log *logrus.Logger,
) *NotificationRuleUsecase {
	return &NotificationRuleUsecase{
		rules:      rules,
		items:      items,
		categories: categories,
		log:        orDefaultLogger(log),
	}
}

// 通知ルールの入力。nil は「指定なし」。
type RuleInput struct {
	ItemID               *string  `json:"item_id"`
	CategoryID           *string  `json:"category_id"`
	Emails               []string `json:"emails"`
	NotifyOnLowStock     *bool    `json:"notify_on_low_stock"`
	NotifyOnOutOfStock   *bool    `json:"notify_on_out_of_stock"`
	NotifyOnExpiringSoon *bool    `json:"notify_on_expiring_soon"`
	ExpiringSoonDays     *int     `json:"expiring_soon_days" validate:"omitempty,gte=1"`
	IsActive             *bool    `json:"is_active"`
	Priority             *int     `json:"priority"`
}

// itemID が空なら全件
func (u *NotificationRuleUsecase) List(ctx context.Context, itemID string) ([]model.NotificationRule, error) {
	rules, err := u.rules.ListActive(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rules, nil
}

// Create はルールを作る。品目ルールがすでにあれば上書きする（品目ごとに1件）。
// created は新規作成したかどうか。
func (u *NotificationRuleUsecase) Create(ctx context.Context, in RuleInput) (rule model.NotificationRule, created bool, err error) {
	emails, err := validEmails(in.Emails)
	if err != nil {
		return model.NotificationRule{}, false, err
	}

	itemID := trimmedOrNil(in.ItemID)
	categoryID := trimmedOrNil(in.CategoryID)
	if (itemID == nil) == (categoryID == nil) {
		return model.NotificationRule{}, false, NewHTTPError(http.StatusBadRequest,
			"Must specify either item_id OR category_id, but not both")
	}
	if itemID != nil {
		if _, err := u.items.FindByID(ctx, *itemID); err != nil {
			return model.NotificationRule{}, false, referenceError(err, "Invalid item ID")
		}
	}
	if categoryID != nil {
		if _, err := u.categories.FindByID(ctx, *categoryID); err != nil {
			return model.NotificationRule{}, false, referenceError(err, "Invalid category ID")
		}
	}

	r := model.NotificationRule{
		ItemID:               itemID,
		CategoryID:           categoryID,
		Emails:               datatypes.JSONSlice[string](emails),
		NotifyOnLowStock:     true,
		NotifyOnOutOfStock:   true,
		NotifyOnExpiringSoon: true,
		ExpiringSoonDays:     model.DefaultExpiringSoonDays,
		IsActive:             true,
		Priority:             0,
	}
	if err := applyRuleInput(&r, in); err != nil {
		return model.NotificationRule{}, false, err
	}

	if itemID != nil {
		return u.upsertItemRule(ctx, r)
	}

	saved, err := u.rules.Create(ctx, r)
	if err != nil {
		return model.NotificationRule{}, false, u.ruleError(err, "create")
	}
	u.log.WithField("rule_id", saved.ID).Info("notification rule created")
	return saved, true, nil
}

// 品目ルールは1件まで。既存があれば上書きする。
// 同時に作られて一意制約に当たった場合も上書きに切り替える。
func (u *NotificationRuleUsecase) upsertItemRule(ctx context.Context, r model.NotificationRule) (model.NotificationRule, bool, error) {
	existing, err := u.rules.FindByItemID(ctx, *r.ItemID)
	switch {
	case err == nil:
		return u.replaceItemRule(ctx, existing.ID, r)
	case !errors.Is(err, repo.ErrNotFound):
		return model.NotificationRule{}, false, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	saved, err := u.rules.Create(ctx, r)
	if errors.Is(err, repo.ErrConflict) {
		existing, err := u.rules.FindByItemID(ctx, *r.ItemID)
		if err != nil {
			return model.NotificationRule{}, false, u.ruleError(err, "upsert")
		}
		return u.replaceItemRule(ctx, existing.ID, r)
	}
	if err != nil {
		return model.NotificationRule{}, false, u.ruleError(err, "create")
	}
	u.log.WithFields(logrus.Fields{"rule_id": saved.ID, "item_id": *r.ItemID}).Info("notification rule created")
	return saved, true, nil
}

func (u *NotificationRuleUsecase) replaceItemRule(ctx context.Context, id string, r model.NotificationRule) (model.NotificationRule, bool, error) {
	r.ID = id
	updated, err := u.rules.Update(ctx, r)
	if err != nil {
		return model.NotificationRule{}, false, u.ruleError(err, "upsert")
	}
	u.log.WithFields(logrus.Fields{"rule_id": updated.ID, "item_id": *r.ItemID}).Info("notification rule replaced")
	return updated, false, nil
}

// Update は対象（item/category）以外を更新する
func (u *NotificationRuleUsecase) Update(ctx context.Context, id string, in RuleInput) (model.NotificationRule, error) {
	r, err := u.rules.FindByID(ctx, id)
	if err != nil {
		return model.NotificationRule{}, u.ruleError(err, "update")
	}
	if in.Emails != nil {
		emails, err := validEmails(in.Emails)
		if err != nil {
			return model.NotificationRule{}, err
		}
		r.Emails = datatypes.JSONSlice[string](emails)
	}
	if err := applyRuleInput(&r, in); err != nil {
		return model.NotificationRule{}, err
	}

	updated, err := u.rules.Update(ctx, r)
	if err != nil {
		return model.NotificationRule{}, u.ruleError(err, "update")
	}
	return updated, nil
}

func (u *NotificationRuleUsecase) Delete(ctx context.Context, id string) error {
	if err := u.rules.Delete(ctx, id); err != nil {
		return u.ruleError(err, "delete")
	}
	u.log.WithField("rule_id", id).Info("notification rule deleted")
	return nil
}

func applyRuleInput(r *model.NotificationRule, in RuleInput) error {
	err := validateInput(in, map[string]string{"expiring_soon_days": "expiring_soon_days must be positive"})
	if err != nil {
		return err
	}
	if in.NotifyOnLowStock != nil {
		r.NotifyOnLowStock = *in.NotifyOnLowStock
	}
	if in.NotifyOnOutOfStock != nil {
		r.NotifyOnOutOfStock = *in.NotifyOnOutOfStock
	}
	if in.NotifyOnExpiringSoon != nil {
		r.NotifyOnExpiringSoon = *in.NotifyOnExpiringSoon
	}
	if in.ExpiringSoonDays != nil {
		r.ExpiringSoonDays = *in.ExpiringSoonDays
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
	if in.Priority != nil {
		r.Priority = *in.Priority
	}
	return nil
}

// 空白を除いて1件以上、すべてメール形式であること
func validEmails(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !validator.Email(e) {
			return nil, NewHTTPError(http.StatusBadRequest, "Invalid email address: "+e)
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "At least one email recipient is required")
	}
	return out, nil
}

func (u *NotificationRuleUsecase) ruleError(err error, op string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Notification rule not found")
	}
	u.log.WithError(err).WithField("op", op).Error("notification rule write failed")
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
