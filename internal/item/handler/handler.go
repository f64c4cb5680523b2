package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocktrail/inventory-service/internal/apperror"
	"github.com/stocktrail/inventory-service/internal/auth"
	"github.com/stocktrail/inventory-service/internal/item"
	"github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/model"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
)

type ItemHandler struct {
	uc     item.UseCase
	logger logger.ZapLogger
}

func NewItemHandler(uc item.UseCase, log logger.ZapLogger) *ItemHandler {
	return &ItemHandler{
		uc:     uc,
		logger: log,
	}
}

type createItemRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Quantity    *int             `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	Category    *int64           `json:"category"`
}

type updateItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Quantity    *int             `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	Category    json.RawMessage  `json:"category"` // absent, null, or id
}

type adjustQuantityRequest struct {
	Delta int `json:"delta"`
}

type changeView struct {
	ID              int64     `json:"id"`
	Item            int64     `json:"item"`
	ItemName        string    `json:"item_name"`
	ChangeType      string    `json:"change_type"`
	QuantityChanged int       `json:"quantity_changed"`
	OldQuantity     int       `json:"old_quantity"`
	NewQuantity     int       `json:"new_quantity"`
	ChangedBy       string    `json:"changed_by"`
	Timestamp       time.Time `json:"timestamp"`
}

func (h *ItemHandler) List(c *fiber.Ctx) error {
	filters, err := h.parseFilters(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	items, count, err := h.uc.ListItems(c.Context(), filters)
	if err != nil {
		return h.writeError(c, err)
	}
	if items == nil {
		items = []model.Item{}
	}

	return c.JSON(fiber.Map{
		"results": items,
		"count":   count,
	})
}

// Levels mirrors List; it exists as a stable endpoint for stock dashboards.
func (h *ItemHandler) Levels(c *fiber.Ctx) error {
	filters, err := h.parseFilters(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	items, _, err := h.uc.ListItems(c.Context(), filters)
	if err != nil {
		return h.writeError(c, err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return c.JSON(items)
}

func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	it, err := h.uc.CreateItem(c.Context(), &dto.CreateItemInput{
		OwnerID:     auth.GetUserID(c),
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Price:       req.Price,
		CategoryID:  req.Category,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(it)
}

func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	it, err := h.uc.GetItem(c.Context(), auth.GetUserID(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(it)
}

func (h *ItemHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	input := &dto.UpdateItemInput{
		ID:          id,
		OwnerID:     auth.GetUserID(c),
		UserID:      auth.GetUserID(c),
		Username:    auth.GetUsername(c),
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Price:       req.Price,
	}

	if len(req.Category) > 0 {
		if string(req.Category) == "null" {
			input.ClearCategory = true
		} else {
			var catID int64
			if err := json.Unmarshal(req.Category, &catID); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category"})
			}
			input.CategoryID = &catID
		}
	}

	it, err := h.uc.UpdateItem(c.Context(), input)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(it)
}

func (h *ItemHandler) Adjust(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var req adjustQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	it, err := h.uc.AdjustQuantity(c.Context(), &dto.AdjustQuantityInput{
		ItemID:   id,
		OwnerID:  auth.GetUserID(c),
		UserID:   auth.GetUserID(c),
		Username: auth.GetUsername(c),
		Delta:    req.Delta,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(it)
}

func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	if err := h.uc.DeleteItem(c.Context(), auth.GetUserID(c), id); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ItemHandler) ItemChanges(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	changes, err := h.uc.ListItemChanges(c.Context(), auth.GetUserID(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(mapChanges(changes))
}

func (h *ItemHandler) Changes(c *fiber.Ctx) error {
	changes, count, err := h.uc.ListChanges(c.Context(), auth.GetUserID(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"results": mapChanges(changes),
		"count":   count,
	})
}

func (h *ItemHandler) parseFilters(c *fiber.Ctx) (*dto.ItemFilters, error) {
	filters := &dto.ItemFilters{
		OwnerID:     auth.GetUserID(c),
		SearchQuery: c.Query("search"),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("page_size", 0),
	}

	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.New("invalid category")
		}
		filters.CategoryID = id
	}
	if v := c.Query("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.New("invalid min_price")
		}
		filters.MinPrice = &d
	}
	if v := c.Query("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.New("invalid max_price")
		}
		filters.MaxPrice = &d
	}
	switch c.Query("low_stock") {
	case "1", "true", "True", "yes":
		filters.LowStock = true
	}
	if v := c.Query("threshold"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid threshold")
		}
		filters.Threshold = t
	}

	return filters, nil
}

func mapChanges(changes []model.ChangeRecord) []changeView {
	views := make([]changeView, len(changes))
	for i := range changes {
		ch := &changes[i]
		views[i] = changeView{
			ID:              ch.ID,
			Item:            ch.ItemID,
			ItemName:        ch.ItemName,
			ChangeType:      ch.Type(),
			QuantityChanged: ch.QuantityChanged(),
			OldQuantity:     ch.OldQuantity,
			NewQuantity:     ch.NewQuantity,
			ChangedBy:       ch.Username,
			Timestamp:       ch.CreatedAt,
		}
	}
	return views
}

func (h *ItemHandler) writeError(c *fiber.Ctx, err error) error {
	if ve, ok := apperror.AsValidation(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": ve.Fields})
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if errors.Is(err, apperror.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict, please retry"})
	}
	h.logger.Error("item handler error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
