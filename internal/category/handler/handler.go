package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/stocktrail/inventory-service/internal/apperror"
	"github.com/stocktrail/inventory-service/internal/auth"
	"github.com/stocktrail/inventory-service/internal/category"
	"github.com/stocktrail/inventory-service/internal/category/dto"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	filters := &dto.CategoryFilters{
		OwnerID:  auth.GetUserID(c),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 0),
	}

	categories, count, err := h.uc.ListCategories(c.Context(), filters)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"results": categories,
		"count":   count,
	})
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	cat, err := h.uc.CreateCategory(c.Context(), &dto.CreateCategoryInput{
		OwnerID: auth.GetUserID(c),
		Name:    req.Name,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	cat, err := h.uc.GetCategory(c.Context(), auth.GetUserID(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(cat)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	cat, err := h.uc.UpdateCategory(c.Context(), &dto.UpdateCategoryInput{
		ID:      id,
		OwnerID: auth.GetUserID(c),
		Name:    req.Name,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	if err := h.uc.DeleteCategory(c.Context(), auth.GetUserID(c), id); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CategoryHandler) writeError(c *fiber.Ctx, err error) error {
	if ve, ok := apperror.AsValidation(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": ve.Fields})
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if errors.Is(err, apperror.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict, please retry"})
	}
	h.logger.Error("category handler error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
