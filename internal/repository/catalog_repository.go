package repository

import (
	"context"

	"github.com/IgesAI/AMautomation/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id string) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) (model.Category, error)
	Delete(ctx context.Context, id string) error
}

type LocationRepository interface {
	List(ctx context.Context) ([]model.Location, error)
	FindByID(ctx context.Context, id string) (model.Location, error)
	Create(ctx context.Context, l model.Location) (model.Location, error)
	Update(ctx context.Context, l model.Location) (model.Location, error)
	Delete(ctx context.Context, id string) error
}

type SupplierRepository interface {
	List(ctx context.Context) ([]model.Supplier, error)
	FindByID(ctx context.Context, id string) (model.Supplier, error)
	Create(ctx context.Context, s model.Supplier) (model.Supplier, error)
	Update(ctx context.Context, s model.Supplier) (model.Supplier, error)
	Delete(ctx context.Context, id string) error
}
