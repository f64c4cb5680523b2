package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/stocktrail/inventory-service/internal/apperror"
	"github.com/stocktrail/inventory-service/internal/category"
	"github.com/stocktrail/inventory-service/internal/category/dto"
	"github.com/stocktrail/inventory-service/internal/model"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)

	// (name, owner) must stay unique per owner.
	exists, err := uc.repo.ExistsByName(ctx, input.OwnerID, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		ve := apperror.NewValidationError()
		ve.Add("name", "Category with this name already exists.")
		return nil, ve
	}

	now := time.Now()
	cat := &model.Category{
		OwnerID:   input.OwnerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}

	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, ownerID, id int64) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.ErrNotFound
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	cat, err := uc.repo.FindByID(ctx, input.OwnerID, input.ID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperror.ErrNotFound
	}

	name := strings.TrimSpace(input.Name)

	exists, err := uc.repo.ExistsByName(ctx, input.OwnerID, name, cat.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		ve := apperror.NewValidationError()
		ve.Add("name", "Category with this name already exists.")
		return nil, ve
	}

	cat.Name = name
	cat.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, ownerID, id int64) error {
	deleted, err := uc.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.ErrNotFound
	}
	return nil
}
