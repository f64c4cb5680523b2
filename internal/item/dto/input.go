package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stocktrail/inventory-service/internal/apperror"
)

type CreateItemInput struct {
	OwnerID     int64
	Name        string
	Description string
	Quantity    *int
	Price       *decimal.Decimal
	CategoryID  *int64
}

func (i *CreateItemInput) Validate() error {
	ve := apperror.NewValidationError()
	if strings.TrimSpace(i.Name) == "" {
		ve.Add("name", "Name is required.")
	}
	if i.Quantity == nil {
		ve.Add("quantity", "Quantity is required.")
	} else if *i.Quantity < 0 {
		ve.Add("quantity", "Quantity must not be negative.")
	}
	if i.Price == nil {
		ve.Add("price", "Price is required.")
	} else if i.Price.IsNegative() {
		ve.Add("price", "Price must not be negative.")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// UpdateItemInput applies a partial field set; nil pointers leave the field
// untouched. ClearCategory distinguishes "category": null from an absent key.
type UpdateItemInput struct {
	ID            int64
	OwnerID       int64
	UserID        int64
	Username      string
	Name          *string
	Description   *string
	Quantity      *int
	Price         *decimal.Decimal
	CategoryID    *int64
	ClearCategory bool
}

func (i *UpdateItemInput) Validate() error {
	ve := apperror.NewValidationError()
	if i.Name != nil && strings.TrimSpace(*i.Name) == "" {
		ve.Add("name", "Name is required.")
	}
	if i.Quantity != nil && *i.Quantity < 0 {
		ve.Add("quantity", "Quantity must not be negative.")
	}
	if i.Price != nil && i.Price.IsNegative() {
		ve.Add("price", "Price must not be negative.")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

type AdjustQuantityInput struct {
	ItemID   int64
	OwnerID  int64
	UserID   int64
	Username string
	Delta    int
}
