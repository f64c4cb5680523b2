package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stocktrail/inventory-service/internal/item"
	itemdto "github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
	"github.com/stocktrail/inventory-service/internal/report"
	"github.com/stocktrail/inventory-service/internal/report/dto"
)

type reportUseCase struct {
	itemRepo item.Repository
	logger   logger.ZapLogger
}

func NewReportUseCase(itemRepo item.Repository, log logger.ZapLogger) report.UseCase {
	return &reportUseCase{
		itemRepo: itemRepo,
		logger:   log,
	}
}

// BuildReport is read-only: it composes the owner's current item set with
// the full audit trail. Totals are accumulated in decimals so repeated
// cent-precision multiplications cannot drift.
func (uc *reportUseCase) BuildReport(ctx context.Context, ownerID int64) (*dto.Report, error) {
	items, _, err := uc.itemRepo.FindAll(ctx, &itemdto.ItemFilters{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	totalValue := decimal.Zero
	stockLevels := make([]dto.StockLevel, 0, len(items))
	for i := range items {
		it := &items[i]
		totalValue = totalValue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		stockLevels = append(stockLevels, dto.StockLevel{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}

	changes, _, err := uc.itemRepo.ListChangesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.ChangeEntry, 0, len(changes))
	for i := range changes {
		ch := &changes[i]
		entries = append(entries, dto.ChangeEntry{
			ID:              ch.ID,
			Item:            ch.ItemName,
			ChangeType:      ch.Type(),
			QuantityChanged: ch.QuantityChanged(),
			ChangedBy:       ch.Username,
			Timestamp:       ch.CreatedAt,
		})
	}

	return &dto.Report{
		TotalValue:  totalValue,
		StockLevels: stockLevels,
		Changes:     entries,
	}, nil
}
