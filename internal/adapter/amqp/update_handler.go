package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/interfaces"
)

// UpdateHandler prints schedule updates for anyone tailing the subscriber.
type UpdateHandler struct {
	logger logger.Logger
}

func NewUpdateHandler(logger logger.Logger) *UpdateHandler {
	return &UpdateHandler{logger: logger}
}

func (h *UpdateHandler) HandleUpdate(ctx context.Context, body []byte) error {
	var msg interfaces.ScheduleUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse schedule update", "", nil, err)
		return err
	}

	details := map[string]interface{}{
		"order_id":   msg.OrderID,
		"old_status": msg.OldStatus,
		"new_status": msg.NewStatus,
	}
	if msg.EstimatedShipping != nil {
		details["estimated_shipping"] = msg.EstimatedShipping
	}
	h.logger.Info("schedule_update_received",
		fmt.Sprintf("Order %d: %s -> %s", msg.OrderID, msg.OldStatus, msg.NewStatus),
		"", details)
	return nil
}
