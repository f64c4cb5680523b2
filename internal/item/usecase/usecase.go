package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocktrail/inventory-service/internal/apperror"
	"github.com/stocktrail/inventory-service/internal/category"
	"github.com/stocktrail/inventory-service/internal/item"
	"github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/model"
	"github.com/stocktrail/inventory-service/internal/pkg/cache"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
	"github.com/stocktrail/inventory-service/internal/pkg/search"
)

const itemsIndex = "items"

type itemUseCase struct {
	repo    item.Repository
	catRepo category.Repository
	locker  item.Locker
	cache   *cache.RedisClient
	es      *search.Client
	logger  logger.ZapLogger
}

func NewItemUseCase(
	repo item.Repository,
	catRepo category.Repository,
	locker item.Locker,
	cacheClient *cache.RedisClient,
	es *search.Client,
	log logger.ZapLogger,
) item.UseCase {
	return &itemUseCase{
		repo:    repo,
		catRepo: catRepo,
		locker:  locker,
		cache:   cacheClient,
		es:      es,
		logger:  log,
	}
}

func (uc *itemUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := uc.validateCategory(ctx, input.OwnerID, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	it := &model.Item{
		OwnerID:     input.OwnerID,
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Quantity:    *input.Quantity,
		Price:       *input.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Creation has no prior quantity to diff against, so no change record.
	if err := uc.repo.Create(ctx, it); err != nil {
		return nil, err
	}

	go uc.invalidateItemCache(context.Background(), input.OwnerID)
	go uc.syncToElastic(context.Background(), it)

	return it, nil
}

func (uc *itemUseCase) GetItem(ctx context.Context, ownerID, id int64) (*model.Item, error) {
	it, err := uc.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperror.ErrNotFound
	}
	return it, nil
}

func (uc *itemUseCase) ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, int, error) {
	cacheKey := uc.generateCacheKey(filters)
	if uc.cache != nil && cacheKey != "" {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var result struct {
				Items []model.Item
				Count int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Items, result.Count, nil
			}
		}
	}

	if filters.SearchQuery != "" && uc.es != nil {
		items, count, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return items, count, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	items, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		cacheData := struct {
			Items []model.Item
			Count int
		}{Items: items, Count: count}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return items, count, nil
}

func (uc *itemUseCase) UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	release, err := uc.lockItem(ctx, input.OwnerID, input.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	return uc.performUpdate(ctx, input)
}

func (uc *itemUseCase) AdjustQuantity(ctx context.Context, input *dto.AdjustQuantityInput) (*model.Item, error) {
	release, err := uc.lockItem(ctx, input.OwnerID, input.ItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	it, err := uc.repo.FindByID(ctx, input.OwnerID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperror.ErrNotFound
	}

	if input.Delta == 0 {
		return it, nil
	}

	newQuantity := it.Quantity + input.Delta
	if newQuantity < 0 {
		ve := apperror.NewValidationError()
		ve.Add("quantity", "Insufficient quantity.")
		return nil, ve
	}

	return uc.performUpdate(ctx, &dto.UpdateItemInput{
		ID:       input.ItemID,
		OwnerID:  input.OwnerID,
		UserID:   input.UserID,
		Username: input.Username,
		Quantity: &newQuantity,
	})
}

// performUpdate runs with the item lock held. It reads the current state,
// applies the partial field set, and commits the item write together with
// the change record when the quantity moved.
func (uc *itemUseCase) performUpdate(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error) {
	it, err := uc.repo.FindByID(ctx, input.OwnerID, input.ID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperror.ErrNotFound
	}

	oldQuantity := it.Quantity

	if input.Name != nil {
		it.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		it.Description = *input.Description
	}
	if input.Price != nil {
		it.Price = *input.Price
	}
	if input.Quantity != nil {
		it.Quantity = *input.Quantity
	}
	if input.ClearCategory {
		it.CategoryID = nil
		it.CategoryName = nil
	} else if input.CategoryID != nil {
		if err := uc.validateCategory(ctx, input.OwnerID, input.CategoryID); err != nil {
			return nil, err
		}
		it.CategoryID = input.CategoryID
		it.CategoryName = nil // stale joined name, reloaded on next read
	}

	now := time.Now()
	it.UpdatedAt = now

	var change *model.ChangeRecord
	if it.Quantity != oldQuantity {
		change = &model.ChangeRecord{
			ItemID:      it.ID,
			UserID:      input.UserID,
			Username:    input.Username,
			OldQuantity: oldQuantity,
			NewQuantity: it.Quantity,
			CreatedAt:   now,
		}
	}

	if err := uc.repo.UpdateWithChange(ctx, it, change); err != nil {
		return nil, err
	}

	go uc.invalidateItemCache(context.Background(), input.OwnerID)
	go uc.syncToElastic(context.Background(), it)

	return it, nil
}

func (uc *itemUseCase) DeleteItem(ctx context.Context, ownerID, id int64) error {
	deleted, err := uc.repo.DeleteWithChanges(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrNotFound
	}

	go uc.invalidateItemCache(context.Background(), ownerID)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), itemsIndex, fmt.Sprintf("%d", id)); err != nil {
				uc.logger.Error("failed to delete item from ES", zap.Error(err))
			}
		}()
	}

	return nil
}

func (uc *itemUseCase) ListItemChanges(ctx context.Context, ownerID, itemID int64) ([]model.ChangeRecord, error) {
	it, err := uc.repo.FindByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperror.ErrNotFound
	}
	return uc.repo.ListChangesByItem(ctx, itemID)
}

func (uc *itemUseCase) ListChanges(ctx context.Context, ownerID int64) ([]model.ChangeRecord, int, error) {
	return uc.repo.ListChangesByOwner(ctx, ownerID)
}

// lockItem serializes quantity updates on one item. Lost races surface as a
// retryable conflict, never a partial write.
func (uc *itemUseCase) lockItem(ctx context.Context, ownerID, itemID int64) (func(), error) {
	lockKey := fmt.Sprintf("lock:item:%d:%d", ownerID, itemID)
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < 3; i++ {
		ok, err := uc.locker.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire item lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !acquired {
		return nil, apperror.ErrConflict
	}

	return func() {
		if err := uc.locker.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			uc.logger.Error("failed to release item lock", zap.Error(err))
		}
	}, nil
}

func (uc *itemUseCase) validateCategory(ctx context.Context, ownerID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	cat, err := uc.catRepo.FindByID(ctx, ownerID, *categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		// A category under another owner is indistinguishable from a
		// missing one.
		ve := apperror.NewValidationError()
		ve.Add("category", "Invalid category.")
		return ve
	}
	return nil
}

type itemDocument struct {
	ID           int64  `json:"id"`
	OwnerID      int64  `json:"owner_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CategoryName string `json:"category_name"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (uc *itemUseCase) syncToElastic(ctx context.Context, it *model.Item) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"owner_id": { "type": "long" },
				"name": { "type": "text" },
				"description": { "type": "text" },
				"category_name": { "type": "text" },
				"quantity": { "type": "integer" },
				"price": { "type": "keyword" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, itemsIndex, mapping)

	categoryName := ""
	if it.CategoryName != nil {
		categoryName = *it.CategoryName
	}
	doc := itemDocument{
		ID:           it.ID,
		OwnerID:      it.OwnerID,
		Name:         it.Name,
		Description:  it.Description,
		CategoryName: categoryName,
		Quantity:     it.Quantity,
		Price:        it.Price.String(),
		CreatedAt:    it.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    it.UpdatedAt.Format(time.RFC3339),
	}

	if err := uc.es.Index(ctx, itemsIndex, fmt.Sprintf("%d", it.ID), doc); err != nil {
		uc.logger.Error("failed to index item", zap.Error(err))
	}
}

func (uc *itemUseCase) searchElastic(ctx context.Context, f *dto.ItemFilters) ([]model.Item, int, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"query_string": map[string]interface{}{
							"query":  fmt.Sprintf("*%s*", f.SearchQuery),
							"fields": []string{"name^3", "category_name", "description"},
						},
					},
					{
						"term": map[string]interface{}{
							"owner_id": f.OwnerID,
						},
					},
				},
			},
		},
		"from": (f.Page - 1) * f.PageSize,
	}
	if f.PageSize > 0 {
		q["size"] = f.PageSize
	}

	res, err := uc.es.Search(ctx, itemsIndex, q)
	if err != nil {
		return nil, 0, err
	}

	items := make([]model.Item, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc itemDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		price, err := decimal.NewFromString(doc.Price)
		if err != nil {
			continue
		}
		it := model.Item{
			ID:          doc.ID,
			OwnerID:     doc.OwnerID,
			Name:        doc.Name,
			Description: doc.Description,
			Quantity:    doc.Quantity,
			Price:       price,
		}
		if doc.CategoryName != "" {
			name := doc.CategoryName
			it.CategoryName = &name
		}
		if t, err := time.Parse(time.RFC3339, doc.CreatedAt); err == nil {
			it.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, doc.UpdatedAt); err == nil {
			it.UpdatedAt = t
		}
		items = append(items, it)
	}

	return items, res.Hits.Total.Value, nil
}

func (uc *itemUseCase) generateCacheKey(f *dto.ItemFilters) string {
	data, err := json.Marshal(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("items:list:%d:%x", f.OwnerID, md5.Sum(data))
}

func (uc *itemUseCase) invalidateItemCache(ctx context.Context, ownerID int64) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("items:list:%d:*", ownerID)
	keys, err := uc.cache.Client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}
