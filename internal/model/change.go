package model

import "time"

const (
	ChangeTypeRestock = "restock"
	ChangeTypeSale    = "sale"
)

// ChangeRecord is one append-only entry in an item's audit trail. Only the
// old and new quantities are stored; the classification is derived on read
// so every consumer reports the same type for the same record.
type ChangeRecord struct {
	ID          int64     `db:"id" json:"id"`
	ItemID      int64     `db:"item_id" json:"item"`
	ItemName    string    `db:"item_name" json:"item_name,omitempty"`
	UserID      int64     `db:"user_id" json:"user"`
	Username    string    `db:"username" json:"username,omitempty"`
	OldQuantity int       `db:"old_quantity" json:"old_quantity"`
	NewQuantity int       `db:"new_quantity" json:"new_quantity"`
	CreatedAt   time.Time `db:"created_at" json:"timestamp"`
}

// Type classifies the record: restock when the quantity went up, sale when
// it went down. Records are never written with old == new.
func (c *ChangeRecord) Type() string {
	if c.NewQuantity > c.OldQuantity {
		return ChangeTypeRestock
	}
	return ChangeTypeSale
}

// QuantityChanged is the magnitude of the delta.
func (c *ChangeRecord) QuantityChanged() int {
	if c.NewQuantity > c.OldQuantity {
		return c.NewQuantity - c.OldQuantity
	}
	return c.OldQuantity - c.NewQuantity
}
