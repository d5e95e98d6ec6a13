package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultItemLimit = 100
	maxItemLimit     = 500
	defaultUnit      = "pcs"
)

type ItemUsecase struct {
	items      repo.ItemRepository
	categories repo.CategoryRepository
	locations  repo.LocationRepository
	suppliers  repo.SupplierRepository
	cache      Cache
	clock      Clock
	log        *logrus.Logger
}

// DI
func NewItemUsecase(
	items repo.ItemRepository,
	categories repo.CategoryRepository,
	locations repo.LocationRepository,
	suppliers repo.SupplierRepository,
	cache Cache,
	clock Clock,
	log *logrus.Logger,
) *ItemUsecase {
	return &ItemUsecase{
		items:      items,
		categories: categories,
		locations:  locations,
		suppliers:  suppliers,
		cache:      cache,
		clock:      orSystemClock(clock),
		log:        orDefaultLogger(log),
	}
}

// GET /items の入力
type ListItemsInput struct {
	Status     string
	CategoryID string
	Search     string
	Limit      int
	Offset     int
}

func (u *ItemUsecase) List(ctx context.Context, in ListItemsInput) ([]model.ItemWithStatus, error) {
	if in.Limit == 0 {
		in.Limit = defaultItemLimit
	}
	if in.Limit < 0 || in.Limit > maxItemLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	now := u.clock.Now()
	q := repo.ItemListQuery{
		CategoryID: strings.TrimSpace(in.CategoryID),
		Search:     strings.TrimSpace(in.Search),
		Limit:      in.Limit,
		Offset:     in.Offset,
		Now:        now,
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		status, ok := model.ParseItemStatus(strings.ToUpper(s))
		if !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		q.Status = &status
	}

	items, err := u.items.List(ctx, q)
	if err != nil {
		u.log.WithError(err).Error("list items failed")
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]model.ItemWithStatus, 0, len(items))
	for _, it := range items {
		out = append(out, model.WithStatus(it, now))
	}
	return out, nil
}

func (u *ItemUsecase) Get(ctx context.Context, id string) (model.ItemWithStatus, error) {
	it, err := u.items.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusNotFound, "Item not found")
	}
	if err != nil {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return model.WithStatus(it, u.clock.Now()), nil
}

// POST / PUT /items の入力。nil は「指定なし」。
type ItemInput struct {
	Name            *string          `json:"name" validate:"omitempty,notblank"`
	SKU             *string          `json:"sku"`
	CategoryID      *string          `json:"category_id"`
	LocationID      *string          `json:"location_id"`
	SupplierID      *string          `json:"supplier_id"`
	UnitOfMeasure   *string          `json:"unit_of_measure"`
	CurrentQuantity *decimal.Decimal `json:"current_quantity" validate:"omitempty,gte=0"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity" validate:"omitempty,gte=0"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity" validate:"omitempty,gte=0"`
	ExpirationDate  *time.Time       `json:"expiration_date"`
	IsActive        *bool            `json:"is_active"`
	Notes           *string          `json:"notes"`
}

// POST /items で必須の項目
type itemRequired struct {
	Name            *string          `json:"name" validate:"required,notblank"`
	CategoryID      *string          `json:"category_id" validate:"required,notblank"`
	CurrentQuantity *decimal.Decimal `json:"current_quantity" validate:"required"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity" validate:"required"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity" validate:"required"`
}

func (u *ItemUsecase) Create(ctx context.Context, in ItemInput) (model.ItemWithStatus, error) {
	required := itemRequired{
		Name:            in.Name,
		CategoryID:      in.CategoryID,
		CurrentQuantity: in.CurrentQuantity,
		MinimumQuantity: in.MinimumQuantity,
		ReorderQuantity: in.ReorderQuantity,
	}
	if err := validateInput(required, nil); err != nil {
		return model.ItemWithStatus{}, err
	}
	if err := validateInput(in, nil); err != nil {
		return model.ItemWithStatus{}, err
	}

	it := model.Item{
		Name:            strings.TrimSpace(*in.Name),
		SKU:             trimmedOrNil(in.SKU),
		CategoryID:      strings.TrimSpace(*in.CategoryID),
		LocationID:      trimmedOrNil(in.LocationID),
		SupplierID:      trimmedOrNil(in.SupplierID),
		UnitOfMeasure:   defaultUnit,
		CurrentQuantity: *in.CurrentQuantity,
		MinimumQuantity: *in.MinimumQuantity,
		ReorderQuantity: *in.ReorderQuantity,
		ExpirationDate:  in.ExpirationDate,
		IsActive:        true,
		Notes:           trimmedOrNil(in.Notes),
	}
	if in.UnitOfMeasure != nil && strings.TrimSpace(*in.UnitOfMeasure) != "" {
		it.UnitOfMeasure = strings.TrimSpace(*in.UnitOfMeasure)
	}
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}

	if err := u.checkReferences(ctx, it); err != nil {
		return model.ItemWithStatus{}, err
	}

	created, err := u.items.Create(ctx, it)
	if errors.Is(err, repo.ErrConflict) {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusBadRequest, "SKU already exists")
	}
	if err != nil {
		u.log.WithError(err).Error("create item failed")
		return model.ItemWithStatus{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	invalidateSummary(ctx, u.cache, u.log)
	u.log.WithFields(logrus.Fields{"item_id": created.ID, "name": created.Name}).Info("item created")
	return u.Get(ctx, created.ID)
}

// Update は属性としきい値を更新する。現在数量はここでは変えない（取引で動かす）。
// 期限は毎回置き換える（未指定ならクリア）。
func (u *ItemUsecase) Update(ctx context.Context, id string, in ItemInput) (model.ItemWithStatus, error) {
	it, err := u.items.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusNotFound, "Item not found")
	}
	if err != nil {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := validateInput(in, map[string]string{"name.notblank": "name cannot be empty"}); err != nil {
		return model.ItemWithStatus{}, err
	}

	if in.Name != nil {
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.SKU != nil {
		it.SKU = trimmedOrNil(in.SKU)
	}
	if in.CategoryID != nil {
		it.CategoryID = strings.TrimSpace(*in.CategoryID)
	}
	if in.LocationID != nil {
		it.LocationID = trimmedOrNil(in.LocationID)
	}
	if in.SupplierID != nil {
		it.SupplierID = trimmedOrNil(in.SupplierID)
	}
	if in.UnitOfMeasure != nil && strings.TrimSpace(*in.UnitOfMeasure) != "" {
		it.UnitOfMeasure = strings.TrimSpace(*in.UnitOfMeasure)
	}
	if in.MinimumQuantity != nil {
		it.MinimumQuantity = *in.MinimumQuantity
	}
	if in.ReorderQuantity != nil {
		it.ReorderQuantity = *in.ReorderQuantity
	}
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}
	if in.Notes != nil {
		it.Notes = trimmedOrNil(in.Notes)
	}
	it.ExpirationDate = in.ExpirationDate

	if err := u.checkReferences(ctx, it); err != nil {
		return model.ItemWithStatus{}, err
	}

	err = u.items.Update(ctx, it)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusNotFound, "Item not found")
	}
	if errors.Is(err, repo.ErrConflict) {
		return model.ItemWithStatus{}, NewHTTPError(http.StatusBadRequest, "SKU already exists")
	}
	if err != nil {
		u.log.WithError(err).WithField("item_id", id).Error("update item failed")
		return model.ItemWithStatus{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	invalidateSummary(ctx, u.cache, u.log)
	return u.Get(ctx, id)
}

// Delete は論理削除（取引履歴と通知ログは残す）
func (u *ItemUsecase) Delete(ctx context.Context, id string) error {
	err := u.items.Deactivate(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Item not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	invalidateSummary(ctx, u.cache, u.log)
	u.log.WithField("item_id", id).Info("item deactivated")
	return nil
}

// 参照先（カテゴリ/保管場所/仕入先）の存在確認
func (u *ItemUsecase) checkReferences(ctx context.Context, it model.Item) error {
	if _, err := u.categories.FindByID(ctx, it.CategoryID); err != nil {
		return referenceError(err, "Invalid category ID")
	}
	if it.LocationID != nil {
		if _, err := u.locations.FindByID(ctx, *it.LocationID); err != nil {
			return referenceError(err, "Invalid location ID")
		}
	}
	if it.SupplierID != nil {
		if _, err := u.suppliers.FindByID(ctx, *it.SupplierID); err != nil {
			return referenceError(err, "Invalid supplier ID")
		}
	}
	return nil
}

func referenceError(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, msg)
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// 空文字は nil として扱う
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
