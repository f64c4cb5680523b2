package category

import (
	"context"

	"github.com/stocktrail/inventory-service/internal/category/dto"
	"github.com/stocktrail/inventory-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, ownerID, id int64) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, ownerID, id int64) (bool, error)
	ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error)
}
