package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/domain"
	"github.com/me/burgermes/internal/interfaces"
)

var ErrNoProducts = errors.New("order must contain at least one product")

// Service turns webshop order messages into PAID orders in storage. The
// scheduler promotes and processes them on its next tick.
type Service struct {
	store  interfaces.Store
	logger logger.Logger
}

func NewService(store interfaces.Store, logger logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// SubmitOrder validates the message, decodes every recipe strictly and
// persists the order. A malformed recipe or unknown enum name rejects the
// whole message; nothing is defaulted.
func (s *Service) SubmitOrder(ctx context.Context, msg interfaces.OrderMessage) (*domain.Order, error) {
	if len(msg.Products) == 0 {
		return nil, ErrNoProducts
	}

	products := make([]domain.Product, 0, len(msg.Products))
	for _, p := range msg.Products {
		if p.Name == "" {
			return nil, fmt.Errorf("product name is required")
		}
		recipe, err := domain.DeserializeRecipe(p.Recipe)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", p.Name, err)
		}
		priority := p.Priority
		if priority < 1 {
			priority = 1
		}
		products = append(products, domain.Product{
			Name:     p.Name,
			Recipe:   recipe,
			Priority: priority,
		})
	}

	order := domain.NewOrder(products, time.Now())
	if err := s.store.AddOrder(ctx, order); err != nil {
		s.logger.Error("order_persist_failed", "Failed to persist incoming order", msg.RequestID, nil, err)
		return nil, err
	}

	s.logger.Info("order_received",
		fmt.Sprintf("Order %d received with %d products", order.ID, len(order.Products)),
		msg.RequestID, map[string]interface{}{
			"order_id":         order.ID,
			"initial_priority": order.Priority,
		})
	return order, nil
}
