package scheduler

import (
	"context"
	"time"

	"github.com/me/burgermes/internal/domain"
	"github.com/me/burgermes/internal/interfaces"
)

// allocator assigns recipe steps to machines. Selection picks the
// least-occupied working machine capable of the procedure; reservation moves
// that machine's occupation window forward. Both run inside the scheduling
// transaction, so a failed order fully releases its reservations.
type allocator struct {
	store interfaces.Store
	clock Clock
}

// selectMachine returns nil when no working machine can execute the
// procedure. That is the normal infeasibility outcome, not an error.
func (a *allocator) selectMachine(ctx context.Context, procedure domain.Procedure) (*domain.Machine, error) {
	return a.store.FetchMachine(ctx, procedure)
}

// reserve books the step on the machine: work starts once the machine is
// free, never in the past, and the machine stays occupied until the step
// ends. Returns the reservation end. OccupiedUntil only ever moves forward
// here.
func (a *allocator) reserve(ctx context.Context, machine *domain.Machine, step domain.RecipeStep) (time.Time, error) {
	start := machine.OccupiedUntil
	if now := a.clock.Now(); now.After(start) {
		start = now
	}
	end := start.Add(time.Duration(step.DurationSec) * time.Second)

	if err := a.store.UpdateMachineOccupation(ctx, machine.ID, end); err != nil {
		return time.Time{}, err
	}
	machine.OccupiedUntil = end
	return end, nil
}
