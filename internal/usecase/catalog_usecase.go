package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"github.com/sirupsen/logrus"
)

// カテゴリ・保管場所・仕入先の管理

type CatalogUsecase struct {
	categories repo.CategoryRepository
	locations  repo.LocationRepository
	suppliers  repo.SupplierRepository
	items      repo.ItemRepository
	log        *logrus.Logger
}

// DI
func NewCatalogUsecase(
	categories repo.CategoryRepository,
	locations repo.LocationRepository,
	suppliers repo.SupplierRepository,
	items repo.ItemRepository,
	log *logrus.Logger,
) *CatalogUsecase {
	return &CatalogUsecase{
		categories: categories,
		locations:  locations,
		suppliers:  suppliers,
		items:      items,
		log:        orDefaultLogger(log),
	}
}

// カテゴリ詳細に載せる品目
type ItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CategoryDetail struct {
	model.Category
	Items []ItemRef `json:"items"`
}

type CategoryInput struct {
	Name        *string `json:"name" validate:"required,notblank"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cs, err := u.categories.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cs, nil
}

// GetCategory は有効な品目（id, name）付きで返す
func (u *CatalogUsecase) GetCategory(ctx context.Context, id string) (CategoryDetail, error) {
	c, err := u.categories.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryDetail{}, NewHTTPError(http.StatusNotFound, "Category not found")
	}
	if err != nil {
		return CategoryDetail{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.items.List(ctx, repo.ItemListQuery{CategoryID: id})
	if err != nil {
		return CategoryDetail{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	refs := make([]ItemRef, 0, len(items))
	for _, it := range items {
		refs = append(refs, ItemRef{ID: it.ID, Name: it.Name})
	}
	return CategoryDetail{Category: c, Items: refs}, nil
}

func (u *CatalogUsecase) CreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	name, err := requiredName(in, in.Name, "Category")
	if err != nil {
		return model.Category{}, err
	}
	c, err := u.categories.Create(ctx, model.Category{
		Name:        name,
		Description: trimmedOrNil(in.Description),
		SortOrder:   in.SortOrder,
	})
	if err != nil {
		return model.Category{}, u.writeError(err, "Category", "create")
	}
	return c, nil
}

func (u *CatalogUsecase) UpdateCategory(ctx context.Context, id string, in CategoryInput) (model.Category, error) {
	name, err := requiredName(in, in.Name, "Category")
	if err != nil {
		return model.Category{}, err
	}
	c, err := u.categories.Update(ctx, model.Category{
		ID:          id,
		Name:        name,
		Description: trimmedOrNil(in.Description),
		SortOrder:   in.SortOrder,
	})
	if err != nil {
		return model.Category{}, u.writeError(err, "Category", "update")
	}
	return c, nil
}

// 品目が1件でも参照していれば消さない（無効化済みの品目も数える）
func (u *CatalogUsecase) DeleteCategory(ctx context.Context, id string) error {
	if _, err := u.categories.FindByID(ctx, id); err != nil {
		return u.writeError(err, "Category", "delete")
	}
	n, err := u.items.CountByCategory(ctx, id)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"Cannot delete category - it has %d item(s). Delete or reassign items first.", n))
	}
	if err := u.categories.Delete(ctx, id); err != nil {
		return u.writeError(err, "Category", "delete")
	}
	return nil
}

type LocationInput struct {
	Name        *string `json:"name" validate:"required,notblank"`
	Description *string `json:"description"`
}

func (u *CatalogUsecase) ListLocations(ctx context.Context) ([]model.Location, error) {
	ls, err := u.locations.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ls, nil
}

func (u *CatalogUsecase) GetLocation(ctx context.Context, id string) (model.Location, error) {
	l, err := u.locations.FindByID(ctx, id)
	if err != nil {
		return model.Location{}, u.writeError(err, "Location", "get")
	}
	return l, nil
}

func (u *CatalogUsecase) CreateLocation(ctx context.Context, in LocationInput) (model.Location, error) {
	name, err := requiredName(in, in.Name, "Location")
	if err != nil {
		return model.Location{}, err
	}
	l, err := u.locations.Create(ctx, model.Location{Name: name, Description: trimmedOrNil(in.Description)})
	if err != nil {
		return model.Location{}, u.writeError(err, "Location", "create")
	}
	return l, nil
}

func (u *CatalogUsecase) UpdateLocation(ctx context.Context, id string, in LocationInput) (model.Location, error) {
	name, err := requiredName(in, in.Name, "Location")
	if err != nil {
		return model.Location{}, err
	}
	l, err := u.locations.Update(ctx, model.Location{ID: id, Name: name, Description: trimmedOrNil(in.Description)})
	if err != nil {
		return model.Location{}, u.writeError(err, "Location", "update")
	}
	return l, nil
}

func (u *CatalogUsecase) DeleteLocation(ctx context.Context, id string) error {
	if _, err := u.locations.FindByID(ctx, id); err != nil {
		return u.writeError(err, "Location", "delete")
	}
	n, err := u.items.CountByLocation(ctx, id)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"Cannot delete location - it has %d item(s). Reassign items first.", n))
	}
	if err := u.locations.Delete(ctx, id); err != nil {
		return u.writeError(err, "Location", "delete")
	}
	return nil
}

type SupplierInput struct {
	Name                *string `json:"name" validate:"required,notblank"`
	ContactEmail        *string `json:"contact_email" validate:"omitempty,email"`
	Phone               *string `json:"phone"`
	DefaultLeadTimeDays *int    `json:"default_lead_time_days" validate:"omitempty,gte=0"`
	Notes               *string `json:"notes"`
}

func (u *CatalogUsecase) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	ss, err := u.suppliers.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ss, nil
}

func (u *CatalogUsecase) GetSupplier(ctx context.Context, id string) (model.Supplier, error) {
	s, err := u.suppliers.FindByID(ctx, id)
	if err != nil {
		return model.Supplier{}, u.writeError(err, "Supplier", "get")
	}
	return s, nil
}

func (u *CatalogUsecase) CreateSupplier(ctx context.Context, in SupplierInput) (model.Supplier, error) {
	s, err := supplierFrom("", in)
	if err != nil {
		return model.Supplier{}, err
	}
	created, err := u.suppliers.Create(ctx, s)
	if err != nil {
		return model.Supplier{}, u.writeError(err, "Supplier", "create")
	}
	return created, nil
}

func (u *CatalogUsecase) UpdateSupplier(ctx context.Context, id string, in SupplierInput) (model.Supplier, error) {
	s, err := supplierFrom(id, in)
	if err != nil {
		return model.Supplier{}, err
	}
	updated, err := u.suppliers.Update(ctx, s)
	if err != nil {
		return model.Supplier{}, u.writeError(err, "Supplier", "update")
	}
	return updated, nil
}

func (u *CatalogUsecase) DeleteSupplier(ctx context.Context, id string) error {
	if _, err := u.suppliers.FindByID(ctx, id); err != nil {
		return u.writeError(err, "Supplier", "delete")
	}
	n, err := u.items.CountBySupplier(ctx, id)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"Cannot delete supplier - it has %d item(s). Reassign items first.", n))
	}
	if err := u.suppliers.Delete(ctx, id); err != nil {
		return u.writeError(err, "Supplier", "delete")
	}
	return nil
}

func supplierFrom(id string, in SupplierInput) (model.Supplier, error) {
	in.ContactEmail = trimmedOrNil(in.ContactEmail)
	err := validateInput(in, map[string]string{
		"name":          "Supplier name is required",
		"contact_email": "Invalid contact email",
	})
	if err != nil {
		return model.Supplier{}, err
	}
	return model.Supplier{
		ID:                  id,
		Name:                strings.TrimSpace(*in.Name),
		ContactEmail:        in.ContactEmail,
		Phone:               trimmedOrNil(in.Phone),
		DefaultLeadTimeDays: in.DefaultLeadTimeDays,
		Notes:               trimmedOrNil(in.Notes),
	}, nil
}

// 入力をタグで検証して、トリムした名前を返す
func requiredName(in interface{}, name *string, kind string) (string, error) {
	if err := validateInput(in, map[string]string{"name": kind + " name is required"}); err != nil {
		return "", err
	}
	return strings.TrimSpace(*name), nil
}

// repositoryのエラーをHTTPErrorにする
func (u *CatalogUsecase) writeError(err error, kind string, op string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, kind+" not found")
	case errors.Is(err, repo.ErrConflict):
		return NewHTTPError(http.StatusBadRequest, kind+" name already exists")
	default:
		u.log.WithError(err).WithField("op", op).Errorf("%s %s failed", strings.ToLower(kind), op)
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}
