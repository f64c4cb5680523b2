package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/stocktrail/inventory-service/internal/auth"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
	"github.com/stocktrail/inventory-service/internal/report/dto"
)

type stubReportUseCase struct {
	ownerID int64
}

func (s *stubReportUseCase) BuildReport(ctx context.Context, ownerID int64) (*dto.Report, error) {
	s.ownerID = ownerID
	return &dto.Report{
		TotalValue:  decimal.RequireFromString("17.50"),
		StockLevels: []dto.StockLevel{},
		Changes:     []dto.ChangeEntry{},
	}, nil
}

func TestReportEndpoint(t *testing.T) {
	uc := &stubReportUseCase{}
	h := NewReportHandler(uc, logger.NewZapLogger(&logger.ZapLoggerConfig{Level: "fatal", Encoding: "console"}))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		auth.SetUser(c, 42, "alice")
		return c.Next()
	})
	app.Get("/api/reports", h.Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/reports", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if uc.ownerID != 42 {
		t.Errorf("report built for owner %d, want 42", uc.ownerID)
	}

	body, _ := io.ReadAll(resp.Body)
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"total_value", "stock_levels", "changes"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q in %s", key, body)
		}
	}
}
