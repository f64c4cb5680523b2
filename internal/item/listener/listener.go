package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/stocktrail/inventory-service/internal/item"
	"github.com/stocktrail/inventory-service/internal/item/dto"
	"github.com/stocktrail/inventory-service/internal/pkg/broker"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
)

// SaleListener applies order events from the point-of-sale stream as sale
// deductions through the same locked update path the HTTP surface uses, so
// every deduction lands in the audit trail.
type SaleListener struct {
	consumer *broker.KafkaConsumer
	uc       item.UseCase
	logger   logger.ZapLogger
}

func NewSaleListener(consumer *broker.KafkaConsumer, uc item.UseCase, log logger.ZapLogger) *SaleListener {
	return &SaleListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *SaleListener) Start(ctx context.Context) {
	l.logger.Info("Starting sale event listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping sale event listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID      string             `json:"id"`
	OwnerID int64              `json:"owner_id"`
	Items   []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

func (l *SaleListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event", zap.String("order_id", event.Payload.ID))

	for _, line := range event.Payload.Items {
		_, err := l.uc.AdjustQuantity(ctx, &dto.AdjustQuantityInput{
			ItemID:   line.ItemID,
			OwnerID:  event.Payload.OwnerID,
			Username: "system",
			Delta:    -line.Quantity,
		})
		if err != nil {
			l.logger.Error("Failed to apply sale deduction",
				zap.String("order_id", event.Payload.ID),
				zap.Int64("item_id", line.ItemID),
				zap.Error(err),
			)
		}
	}
}
