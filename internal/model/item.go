package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID           int64           `db:"id" json:"id"`
	OwnerID      int64           `db:"owner_id" json:"created_by"`
	CategoryID   *int64          `db:"category_id" json:"category"` // Nullable
	CategoryName *string         `db:"category_name" json:"category_name,omitempty"`
	Name         string          `db:"name" json:"name"`
	Description  string          `db:"description" json:"description"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Price        decimal.Decimal `db:"price" json:"price"`
	CreatedAt    time.Time       `db:"created_at" json:"date_added"`
	UpdatedAt    time.Time       `db:"updated_at" json:"last_updated"`
}
