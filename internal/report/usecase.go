package report

import (
	"context"

	"github.com/stocktrail/inventory-service/internal/report/dto"
)

type UseCase interface {
	BuildReport(ctx context.Context, ownerID int64) (*dto.Report, error)
}
