package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockLevel struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type ChangeEntry struct {
	ID              int64     `json:"id"`
	Item            string    `json:"item"`
	ChangeType      string    `json:"change_type"`
	QuantityChanged int       `json:"quantity_changed"`
	ChangedBy       string    `json:"changed_by"`
	Timestamp       time.Time `json:"timestamp"`
}

// Report is the external JSON contract of GET /api/reports.
type Report struct {
	TotalValue  decimal.Decimal `json:"total_value"`
	StockLevels []StockLevel    `json:"stock_levels"`
	Changes     []ChangeEntry   `json:"changes"`
}
