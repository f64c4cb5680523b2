package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/stocktrail/inventory-service/internal/auth"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
	"github.com/stocktrail/inventory-service/internal/report"
)

type ReportHandler struct {
	uc     report.UseCase
	logger logger.ZapLogger
}

func NewReportHandler(uc report.UseCase, log logger.ZapLogger) *ReportHandler {
	return &ReportHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	rep, err := h.uc.BuildReport(c.Context(), auth.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to build report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(rep)
}
