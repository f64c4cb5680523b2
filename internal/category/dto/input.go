package dto

import (
	"strings"

	"github.com/stocktrail/inventory-service/internal/apperror"
)

type CreateCategoryInput struct {
	OwnerID int64
	Name    string
}

func (i *CreateCategoryInput) Validate() error {
	ve := apperror.NewValidationError()
	if strings.TrimSpace(i.Name) == "" {
		ve.Add("name", "Name is required.")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

type UpdateCategoryInput struct {
	ID      int64
	OwnerID int64
	Name    string
}

func (i *UpdateCategoryInput) Validate() error {
	ve := apperror.NewValidationError()
	if strings.TrimSpace(i.Name) == "" {
		ve.Add("name", "Name is required.")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}
