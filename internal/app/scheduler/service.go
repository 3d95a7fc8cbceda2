package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/me/burgermes/internal/adapter/logger"
	"github.com/me/burgermes/internal/domain"
	"github.com/me/burgermes/internal/interfaces"
)

// ScheduleResult is the outcome of one scheduling attempt. Infeasibility is a
// result, not an error: errors are reserved for storage failures.
type ScheduleResult struct {
	Scheduled         bool
	EstimatedShipping time.Time
	Instructions      int
}

// Service runs the scheduling loop: promote freshly paid orders, pick the
// highest-priority waiting order, assign every recipe step to the
// least-occupied capable machine inside one transaction, then age whatever
// is still waiting. One order is processed end to end at a time.
type Service struct {
	store          interfaces.Store
	publisher      interfaces.MessagePublisher
	logger         logger.Logger
	clock          Clock
	alloc          allocator
	pollInterval   time.Duration
	agingIncrement int

	// OnIdle, when set, runs each time the loop finds no pending order.
	// The demo mode hangs demand generation here.
	OnIdle func(ctx context.Context) error
}

// NewService wires the scheduler. publisher may be nil when no broker is
// attached (demo mode, tests).
func NewService(
	store interfaces.Store,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	clock Clock,
	pollInterval time.Duration,
	agingIncrement int,
) *Service {
	return &Service{
		store:          store,
		publisher:      publisher,
		logger:         logger,
		clock:          clock,
		alloc:          allocator{store: store, clock: clock},
		pollInterval:   pollInterval,
		agingIncrement: agingIncrement,
	}
}

// Run drives Tick until the context is cancelled or storage fails. Storage
// failure is fatal by design: it means the persistence invariant is broken,
// so the error unwinds to the caller instead of being retried here.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("scheduler_started", "Scheduling loop started", "", map[string]interface{}{
		"poll_interval_ms": s.pollInterval.Milliseconds(),
		"aging_increment":  s.agingIncrement,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		processed, err := s.Tick(ctx)
		if err != nil {
			s.logger.Error("scheduler_failed", "Scheduling loop stopped on storage failure", "", nil, err)
			return err
		}
		if processed {
			continue
		}

		// Idle: report occupation, optionally generate demand, wait.
		if err := s.reportMachineOccupation(ctx); err != nil {
			return err
		}
		if s.OnIdle != nil {
			if err := s.OnIdle(ctx); err != nil {
				return err
			}
		}
		if err := s.clock.Sleep(ctx, s.pollInterval); err != nil {
			return err
		}
	}
}

// Tick performs one ACTIVE step of the loop: promote, fetch, handle, age.
// It reports whether an order was processed; false means the loop is idle.
func (s *Service) Tick(ctx context.Context) (bool, error) {
	promoted, err := s.store.PromoteNewOrders(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to promote new orders: %w", err)
	}
	if promoted > 0 {
		s.logger.Debug("orders_promoted", fmt.Sprintf("Promoted %d new orders to waiting", promoted), "", nil)
	}

	order, err := s.store.FetchNextOrder(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch next order: %w", err)
	}
	if order == nil {
		return false, nil
	}

	if err := s.handleOrder(ctx, order); err != nil {
		return false, err
	}
	return true, nil
}

// handleOrder schedules one order, persists the resulting status, notifies
// subscribers and ages the remaining waiting orders. Aging happens whether
// the attempt succeeded or not.
func (s *Service) handleOrder(ctx context.Context, order *domain.Order) error {
	oldStatus := order.Status

	result, err := s.scheduleOrder(ctx, order)
	if err != nil {
		return err
	}

	newStatus := domain.StatusNotDeliverable
	if result.Scheduled {
		newStatus = domain.StatusScheduled
		s.logger.Info("order_scheduled",
			fmt.Sprintf("Order %d scheduled, estimated shipping %s", order.ID, result.EstimatedShipping.Format(time.RFC3339)),
			"", map[string]interface{}{
				"order_id":           order.ID,
				"priority":           order.Priority,
				"instructions":       result.Instructions,
				"estimated_shipping": result.EstimatedShipping,
			})
	} else {
		s.logger.Info("order_not_deliverable",
			fmt.Sprintf("Order %d could not be scheduled", order.ID),
			"", map[string]interface{}{"order_id": order.ID})
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, newStatus); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = newStatus

	s.publishUpdate(ctx, order, oldStatus, result)

	if err := s.store.IncreaseOrderPriority(ctx, s.agingIncrement, domain.StatusWaiting); err != nil {
		return fmt.Errorf("failed to age waiting orders: %w", err)
	}
	return nil
}

// scheduleOrder walks the order's products in order and each recipe in step
// order, reserving a machine per step. Every step's start depends only on
// its own machine's occupation, so steps are treated as fully parallelizable
// both across and within products; the shipping estimate is the latest
// reservation end. The whole pass runs in one transaction: the first step
// without a capable working machine rolls back every reservation and
// instruction written for this order.
func (s *Service) scheduleOrder(ctx context.Context, order *domain.Order) (ScheduleResult, error) {
	if err := s.store.Begin(ctx); err != nil {
		return ScheduleResult{}, err
	}

	estimate := s.clock.Now()
	instructions := 0

	for _, product := range order.Products {
		for _, step := range product.Recipe.Steps {
			machine, err := s.alloc.selectMachine(ctx, step.Procedure)
			if err != nil {
				s.abort(ctx)
				return ScheduleResult{}, err
			}
			if machine == nil {
				s.logger.Debug("no_capable_machine",
					fmt.Sprintf("No working machine for %s in %q, cancelling order %d", step.Procedure, product.Name, order.ID),
					"", map[string]interface{}{
						"order_id":  order.ID,
						"product":   product.Name,
						"procedure": step.Procedure,
					})
				if err := s.store.Rollback(ctx); err != nil {
					return ScheduleResult{}, err
				}
				return ScheduleResult{Scheduled: false}, nil
			}

			end, err := s.alloc.reserve(ctx, machine, step)
			if err != nil {
				s.abort(ctx)
				return ScheduleResult{}, err
			}
			if end.After(estimate) {
				estimate = end
			}

			instruction := &domain.Instruction{
				OrderID:     order.ID,
				ProductID:   product.ID,
				MachineID:   machine.ID,
				Procedure:   step.Procedure,
				Ingredients: step.Ingredients,
				DurationSec: step.DurationSec,
			}
			if _, err := s.store.AddInstruction(ctx, instruction); err != nil {
				s.abort(ctx)
				return ScheduleResult{}, err
			}
			instructions++
		}
	}

	if err := s.store.UpdateEstimatedShipping(ctx, order.ID, estimate); err != nil {
		s.abort(ctx)
		return ScheduleResult{}, err
	}
	if err := s.store.Commit(ctx); err != nil {
		return ScheduleResult{}, err
	}

	order.EstimatedShipping = estimate
	return ScheduleResult{Scheduled: true, EstimatedShipping: estimate, Instructions: instructions}, nil
}

// abort rolls back best-effort after a storage failure; the original error
// is what the caller reports.
func (s *Service) abort(ctx context.Context) {
	if err := s.store.Rollback(ctx); err != nil {
		s.logger.Error("rollback_failed", "Failed to roll back scheduling transaction", "", nil, err)
	}
}

func (s *Service) publishUpdate(ctx context.Context, order *domain.Order, oldStatus domain.OrderStatus, result ScheduleResult) {
	if s.publisher == nil {
		return
	}

	msg := interfaces.ScheduleUpdateMessage{
		OrderID:   order.ID,
		OldStatus: oldStatus,
		NewStatus: order.Status,
		Timestamp: s.clock.Now(),
	}
	if result.Scheduled {
		shipping := result.EstimatedShipping
		msg.EstimatedShipping = &shipping
	}

	// Notification failures never block scheduling.
	if err := s.publisher.PublishScheduleUpdate(ctx, msg); err != nil {
		s.logger.Error("publish_failed", "Failed to publish schedule update", "", nil, err)
	}
}

func (s *Service) reportMachineOccupation(ctx context.Context) error {
	machines, err := s.store.FetchAllMachines(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch machines: %w", err)
	}

	occupancy := make([]map[string]interface{}, 0, len(machines))
	for _, m := range machines {
		entry := map[string]interface{}{
			"machine_id": m.ID,
			"name":       m.Name,
			"procedures": len(m.DistinctProcedures()),
		}
		if m.Status == domain.MachineBroken {
			entry["status"] = m.Status
		} else {
			entry["occupied_until"] = m.OccupiedUntil
		}
		occupancy = append(occupancy, entry)
	}

	s.logger.Debug("machine_occupation", "Current machine occupation", "", map[string]interface{}{
		"machines": occupancy,
	})
	return nil
}
