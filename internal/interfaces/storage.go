package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/me/burgermes/internal/domain"
)

// Storage sentinel errors. Transaction misuse is a programming error and
// surfaces immediately instead of being retried.
var (
	ErrTransactionActive = errors.New("a transaction is already active")
	ErrNoTransaction     = errors.New("no active transaction")
)

// Store is the persistence contract the scheduler depends on. Implementations
// must support at most one active transaction at a time, and Rollback must
// undo every write made since Begin.
//
// FetchNextOrder and FetchMachine return (nil, nil) when nothing qualifies;
// an absent machine is the normal infeasibility signal, not an error.
type Store interface {
	// PromoteNewOrders computes the initial priority of every PAID order
	// from its current product priorities and moves it to WAITING. It is
	// idempotent and runs before every fetch, since orders arrive from the
	// webshop at arbitrary times. Returns the number of promoted orders.
	PromoteNewOrders(ctx context.Context) (int, error)

	// FetchNextOrder returns the WAITING order with the highest priority,
	// ties broken by earliest creation (lowest ID), products and recipes
	// fully populated.
	FetchNextOrder(ctx context.Context) (*domain.Order, error)

	// FetchMachine returns the WORKING machine capable of the procedure
	// with the earliest OccupiedUntil, ties broken by lowest ID.
	FetchMachine(ctx context.Context, procedure domain.Procedure) (*domain.Machine, error)

	FetchAllMachines(ctx context.Context) ([]*domain.Machine, error)
	FetchOrder(ctx context.Context, orderID int) (*domain.Order, error)

	UpdateMachineOccupation(ctx context.Context, machineID int, until time.Time) error
	UpdateOrderStatus(ctx context.Context, orderID int, status domain.OrderStatus) error
	UpdateEstimatedShipping(ctx context.Context, orderID int, shipping time.Time) error

	// IncreaseOrderPriority ages every order currently in the given status
	// by amount.
	IncreaseOrderPriority(ctx context.Context, amount int, status domain.OrderStatus) error

	// AddInstruction persists an instruction and returns its assigned ID.
	AddInstruction(ctx context.Context, instruction *domain.Instruction) (int, error)

	// AddOrder persists an order together with its product links, assigning
	// IDs to the order and to any product not yet in the catalog.
	AddOrder(ctx context.Context, order *domain.Order) error
	AddProduct(ctx context.Context, product *domain.Product) error
	AddMachine(ctx context.Context, machine *domain.Machine) error

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Close()
}
