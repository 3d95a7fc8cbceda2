package amqp

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/interfaces"
)

// OrderHandler decodes webshop order messages and hands them to intake.
// Returning an error sends the delivery to the DLQ.
type OrderHandler struct {
	service interfaces.IntakeService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.IntakeService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order message", "", nil, err)
		return err
	}
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}

	_, err := h.service.SubmitOrder(ctx, msg)
	return err
}
