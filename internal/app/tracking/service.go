package tracking

import (
	"context"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/interfaces"
)

// Service serves the read-only tracking views: order status and machine
// occupancy.
type Service struct {
	store  interfaces.Store
	logger logger.Logger
}

func NewService(store interfaces.Store, logger logger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) GetOrderStatus(ctx context.Context, orderID int) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.store.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(order.Products))
	for i, p := range order.Products {
		names[i] = p.Name
	}

	return &interfaces.TrackingOrderResponse{
		OrderID:           order.ID,
		Status:            order.Status,
		Priority:          order.Priority,
		EstimatedShipping: order.EstimatedShipping,
		Products:          names,
	}, nil
}

func (s *Service) GetMachineOccupancy(ctx context.Context) ([]*interfaces.MachineOccupancyResponse, error) {
	machines, err := s.store.FetchAllMachines(ctx)
	if err != nil {
		return nil, err
	}

	var resp []*interfaces.MachineOccupancyResponse
	for _, m := range machines {
		resp = append(resp, &interfaces.MachineOccupancyResponse{
			MachineID:     m.ID,
			Name:          m.Name,
			Status:        m.Status,
			Procedures:    m.DistinctProcedures(),
			OccupiedUntil: m.OccupiedUntil,
		})
	}
	return resp, nil
}
