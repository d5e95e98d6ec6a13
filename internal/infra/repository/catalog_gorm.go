package repository

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/domain/model"
	repo "github.com/IgesAI/AMautomation/internal/repository"

	"gorm.io/gorm"
)

// カテゴリ

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

// sort_order（未設定は最後）→ name の順
func (r *CategoryGormRepository) List(ctx context.Context) ([]model.Category, error) {
	cs := []model.Category{}
	err := r.db.WithContext(ctx).
		Order("CASE WHEN sort_order IS NULL THEN 1 ELSE 0 END").
		Order("sort_order asc").
		Order("name asc").
		Find(&cs).Error
	if err != nil {
		return []model.Category{}, err
	}
	return cs, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id string) (model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if isNotFound(err) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, translate(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) Update(ctx context.Context, c model.Category) (model.Category, error) {
	res := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"sort_order":  c.SortOrder,
	})
	if res.Error != nil {
		return model.Category{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Category{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, c.ID)
}

func (r *CategoryGormRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &model.Category{}, id)
}

// 保管場所

type LocationGormRepository struct {
	db *gorm.DB
}

func NewLocationGormRepository(db *gorm.DB) *LocationGormRepository {
	return &LocationGormRepository{db: db}
}

func (r *LocationGormRepository) List(ctx context.Context) ([]model.Location, error) {
	ls := []model.Location{}
	if err := r.db.WithContext(ctx).Order("name asc").Find(&ls).Error; err != nil {
		return []model.Location{}, err
	}
	return ls, nil
}

func (r *LocationGormRepository) FindByID(ctx context.Context, id string) (model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if isNotFound(err) {
		return model.Location{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Location{}, err
	}
	return l, nil
}

func (r *LocationGormRepository) Create(ctx context.Context, l model.Location) (model.Location, error) {
	if err := r.db.WithContext(ctx).Create(&l).Error; err != nil {
		return model.Location{}, translate(err)
	}
	return l, nil
}

func (r *LocationGormRepository) Update(ctx context.Context, l model.Location) (model.Location, error) {
	res := r.db.WithContext(ctx).Model(&model.Location{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"name":        l.Name,
		"description": l.Description,
	})
	if res.Error != nil {
		return model.Location{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Location{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, l.ID)
}

func (r *LocationGormRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &model.Location{}, id)
}

// 仕入先

type SupplierGormRepository struct {
	db *gorm.DB
}

func NewSupplierGormRepository(db *gorm.DB) *SupplierGormRepository {
	return &SupplierGormRepository{db: db}
}

func (r *SupplierGormRepository) List(ctx context.Context) ([]model.Supplier, error) {
	ss := []model.Supplier{}
	if err := r.db.WithContext(ctx).Order("name asc").Find(&ss).Error; err != nil {
		return []model.Supplier{}, err
	}
	return ss, nil
}

func (r *SupplierGormRepository) FindByID(ctx context.Context, id string) (model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if isNotFound(err) {
		return model.Supplier{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Supplier{}, err
	}
	return s, nil
}

func (r *SupplierGormRepository) Create(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Supplier{}, translate(err)
	}
	return s, nil
}

func (r *SupplierGormRepository) Update(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	res := r.db.WithContext(ctx).Model(&model.Supplier{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"name":                   s.Name,
		"contact_email":          s.ContactEmail,
		"phone":                  s.Phone,
		"default_lead_time_days": s.DefaultLeadTimeDays,
		"notes":                  s.Notes,
	})
	if res.Error != nil {
		return model.Supplier{}, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Supplier{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, s.ID)
}

func (r *SupplierGormRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &model.Supplier{}, id)
}

// 物理削除。0件なら NotFound
func deleteByID(ctx context.Context, db *gorm.DB, value interface{}, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
