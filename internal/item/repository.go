package item

import (
	"context"

	"github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, ownerID, id int64) (*model.Item, error)
	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)

	// UpdateWithChange writes the item and, when change is non-nil, appends
	// the audit record in the same transaction. The item row is locked for
	// the duration; a quantity that no longer matches change.OldQuantity
	// fails with apperror.ErrConflict and nothing is applied.
	UpdateWithChange(ctx context.Context, item *model.Item, change *model.ChangeRecord) error

	// DeleteWithChanges removes the item together with its audit trail.
	DeleteWithChanges(ctx context.Context, ownerID, id int64) (bool, error)

	ListChangesByItem(ctx context.Context, itemID int64) ([]model.ChangeRecord, error)
	ListChangesByOwner(ctx context.Context, ownerID int64) ([]model.ChangeRecord, int, error)
}
