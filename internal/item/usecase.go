package item

import (
	"context"
	"time"

	"github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/model"
)

type UseCase interface {
	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error)
	GetItem(ctx context.Context, ownerID, id int64) (*model.Item, error)
	ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error)
	UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error)
	AdjustQuantity(ctx context.Context, input *dto.AdjustQuantityInput) (*model.Item, error)
	DeleteItem(ctx context.Context, ownerID, id int64) error
	ListItemChanges(ctx context.Context, ownerID, itemID int64) ([]model.ChangeRecord, error)
	ListChanges(ctx context.Context, ownerID int64) ([]model.ChangeRecord, int, error)
}

// Locker serializes quantity updates per item across service instances.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
