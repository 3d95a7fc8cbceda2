package interfaces

import (
	"context"
	"time"

	"github.com/me/burgermes/internal/domain"
)

// OrderMessage is what the webshop publishes when a customer pays. Recipes
// travel in their serialized form and are decoded strictly at intake.
type OrderMessage struct {
	RequestID string                `json:"request_id"`
	Products  []OrderMessageProduct `json:"products"`
}

type OrderMessageProduct struct {
	Name     string `json:"name"`
	Recipe   string `json:"recipe"`
	Priority int    `json:"priority"`
}

// ScheduleUpdateMessage is broadcast after every scheduling attempt.
type ScheduleUpdateMessage struct {
	OrderID           int                `json:"order_id"`
	OldStatus         domain.OrderStatus `json:"old_status"`
	NewStatus         domain.OrderStatus `json:"new_status"`
	EstimatedShipping *time.Time         `json:"estimated_shipping,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
}

type MessagePublisher interface {
	PublishOrder(ctx context.Context, msg OrderMessage) error
	PublishScheduleUpdate(ctx context.Context, msg ScheduleUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
	ConsumeScheduleUpdates(ctx context.Context, handler ScheduleUpdateHandler) error
}

type (
	OrderMessageHandler   func(ctx context.Context, body []byte) error
	ScheduleUpdateHandler func(ctx context.Context, body []byte) error
)
