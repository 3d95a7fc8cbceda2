package interfaces

import (
	"context"
	"time"

	"github.com/me/burgermes/internal/domain"
)

// IntakeService persists webshop orders into the scheduler's storage.
type IntakeService interface {
	SubmitOrder(ctx context.Context, msg OrderMessage) (*domain.Order, error)
}

// TrackingService exposes read-only views for the tracking endpoints.
type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderID int) (*TrackingOrderResponse, error)
	GetMachineOccupancy(ctx context.Context) ([]*MachineOccupancyResponse, error)
}

type TrackingOrderResponse struct {
	OrderID           int
	Status            domain.OrderStatus
	Priority          int
	EstimatedShipping time.Time
	Products          []string
}

type MachineOccupancyResponse struct {
	MachineID     int
	Name          string
	Status        domain.MachineStatus
	Procedures    []domain.Procedure
	OccupiedUntil time.Time
}
