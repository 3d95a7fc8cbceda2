package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/me/burgermes/internal/adapter/memory"
	"github.com/me/burgermes/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

var t0 = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *memory.Store) (*Service, *fakeClock) {
	clock := &fakeClock{now: t0}
	return NewService(store, nil, nopLogger{}, clock, time.Second, 1), clock
}

func addMachine(t *testing.T, store *memory.Store, name string, status domain.MachineStatus, procedures ...domain.Procedure) *domain.Machine {
	t.Helper()
	machine := &domain.Machine{
		Name:          name,
		Procedures:    procedures,
		OccupiedUntil: t0,
		Status:        status,
	}
	if err := store.AddMachine(context.Background(), machine); err != nil {
		t.Fatalf("AddMachine: %v", err)
	}
	return machine
}

func addOrder(t *testing.T, store *memory.Store, products ...domain.Product) *domain.Order {
	t.Helper()
	order := domain.NewOrder(products, t0)
	if err := store.AddOrder(context.Background(), order); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	return order
}

func singleStepProduct(name string, priority int, procedure domain.Procedure, durationSec int) domain.Product {
	return domain.Product{
		Name:     name,
		Priority: priority,
		Recipe: domain.Recipe{Steps: []domain.RecipeStep{
			{Procedure: procedure, Ingredients: []domain.Ingredient{domain.IngredientBread}, DurationSec: durationSec},
		}},
	}
}

func fetchOrder(t *testing.T, store *memory.Store, id int) *domain.Order {
	t.Helper()
	order, err := store.FetchOrder(context.Background(), id)
	if err != nil {
		t.Fatalf("FetchOrder(%d): %v", id, err)
	}
	return order
}

func mustTick(t *testing.T, svc *Service) {
	t.Helper()
	processed, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !processed {
		t.Fatal("Tick processed no order, expected one")
	}
}

func TestScheduleSingleStepOrder(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	machine := addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)
	order := addOrder(t, store, singleStepProduct("bun", 1, domain.ProcedureBake, 300))

	mustTick(t, svc)

	got := fetchOrder(t, store, order.ID)
	if got.Status != domain.StatusScheduled {
		t.Fatalf("Status = %s, want SCHEDULED", got.Status)
	}
	want := t0.Add(300 * time.Second)
	if !got.EstimatedShipping.Equal(want) {
		t.Fatalf("EstimatedShipping = %v, want %v", got.EstimatedShipping, want)
	}

	instructions := store.Instructions()
	if len(instructions) != 1 {
		t.Fatalf("got %d instructions, want 1", len(instructions))
	}
	in := instructions[0]
	if in.OrderID != order.ID || in.MachineID != machine.ID || in.Procedure != domain.ProcedureBake || in.DurationSec != 300 {
		t.Fatalf("instruction = %+v", in)
	}

	fetched, err := store.FetchMachine(context.Background(), domain.ProcedureBake)
	if err != nil {
		t.Fatalf("FetchMachine: %v", err)
	}
	if !fetched.OccupiedUntil.Equal(want) {
		t.Fatalf("machine occupied until %v, want %v", fetched.OccupiedUntil, want)
	}
}

func TestReservationsQueueOnSingleMachine(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "juggler", domain.MachineWorking, domain.ProcedureJuggle)
	first := addOrder(t, store, singleStepProduct("a", 1, domain.ProcedureJuggle, 600))
	second := addOrder(t, store, singleStepProduct("b", 1, domain.ProcedureJuggle, 600))

	mustTick(t, svc)
	mustTick(t, svc)

	if got := fetchOrder(t, store, first.ID); !got.EstimatedShipping.Equal(t0.Add(600 * time.Second)) {
		t.Fatalf("first order shipping = %v, want %v", got.EstimatedShipping, t0.Add(600*time.Second))
	}
	// The second order starts where the first reservation ends.
	if got := fetchOrder(t, store, second.ID); !got.EstimatedShipping.Equal(t0.Add(1200 * time.Second)) {
		t.Fatalf("second order shipping = %v, want %v", got.EstimatedShipping, t0.Add(1200*time.Second))
	}
}

func TestParallelStepsAcrossMachines(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)
	addMachine(t, store, "pan", domain.MachineWorking, domain.ProcedureFry)

	order := addOrder(t, store, domain.Product{
		Name:     "burger",
		Priority: 1,
		Recipe: domain.Recipe{Steps: []domain.RecipeStep{
			{Procedure: domain.ProcedureBake, Ingredients: []domain.Ingredient{domain.IngredientBread}, DurationSec: 120},
			{Procedure: domain.ProcedureFry, Ingredients: []domain.Ingredient{domain.IngredientSteak}, DurationSec: 700},
		}},
	})

	mustTick(t, svc)

	// Steps run on independent machines, so the estimate is the longest
	// step, not the sum.
	got := fetchOrder(t, store, order.ID)
	want := t0.Add(700 * time.Second)
	if !got.EstimatedShipping.Equal(want) {
		t.Fatalf("EstimatedShipping = %v, want %v", got.EstimatedShipping, want)
	}
	if len(store.Instructions()) != 2 {
		t.Fatalf("got %d instructions, want 2", len(store.Instructions()))
	}
}

func TestInfeasibleOrderRollsBack(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)

	order := addOrder(t, store, domain.Product{
		Name:     "impossible",
		Priority: 1,
		Recipe: domain.Recipe{Steps: []domain.RecipeStep{
			{Procedure: domain.ProcedureBake, Ingredients: []domain.Ingredient{domain.IngredientBread}, DurationSec: 120},
			{Procedure: domain.ProcedureAssemble, Ingredients: []domain.Ingredient{domain.IngredientSalad}, DurationSec: 30},
		}},
	})

	mustTick(t, svc)

	got := fetchOrder(t, store, order.ID)
	if got.Status != domain.StatusNotDeliverable {
		t.Fatalf("Status = %s, want NOT_DELIVERABLE", got.Status)
	}

	// The BAKE reservation made before the infeasible step must be undone.
	if got := len(store.Instructions()); got != 0 {
		t.Fatalf("got %d instructions, want 0 after rollback", got)
	}
	machine, err := store.FetchMachine(context.Background(), domain.ProcedureBake)
	if err != nil {
		t.Fatalf("FetchMachine: %v", err)
	}
	if !machine.OccupiedUntil.Equal(t0) {
		t.Fatalf("machine occupied until %v, want untouched %v", machine.OccupiedUntil, t0)
	}
}

func TestBrokenMachineNeverSelected(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "dead oven", domain.MachineBroken, domain.ProcedureBake)
	order := addOrder(t, store, singleStepProduct("bun", 1, domain.ProcedureBake, 60))

	mustTick(t, svc)

	if got := fetchOrder(t, store, order.ID); got.Status != domain.StatusNotDeliverable {
		t.Fatalf("Status = %s, want NOT_DELIVERABLE", got.Status)
	}
}

func TestHighestPriorityProcessedFirst(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)
	cheap := addOrder(t, store, singleStepProduct("cheap", 2, domain.ProcedureBake, 100))
	urgent := addOrder(t, store, singleStepProduct("urgent", 9, domain.ProcedureBake, 100))

	mustTick(t, svc)

	if got := fetchOrder(t, store, urgent.ID); got.Status != domain.StatusScheduled {
		t.Fatalf("urgent order status = %s, want SCHEDULED first", got.Status)
	}
	if got := fetchOrder(t, store, cheap.ID); got.Status != domain.StatusWaiting {
		t.Fatalf("cheap order status = %s, want still WAITING", got.Status)
	}
}

func TestAgingAfterEachHandledOrder(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)
	first := addOrder(t, store, singleStepProduct("first", 9, domain.ProcedureBake, 100))
	second := addOrder(t, store, singleStepProduct("second", 4, domain.ProcedureBake, 100))
	third := addOrder(t, store, singleStepProduct("third", 2, domain.ProcedureBake, 100))

	mustTick(t, svc)

	// The two orders left waiting aged by the increment; the handled one
	// is terminal and stays put.
	if got := fetchOrder(t, store, second.ID); got.Priority != 5 {
		t.Fatalf("second order priority = %d, want 5", got.Priority)
	}
	if got := fetchOrder(t, store, third.ID); got.Priority != 3 {
		t.Fatalf("third order priority = %d, want 3", got.Priority)
	}
	if got := fetchOrder(t, store, first.ID); got.Priority != 9 {
		t.Fatalf("first order priority = %d, want unchanged 9", got.Priority)
	}

	mustTick(t, svc)

	if got := fetchOrder(t, store, third.ID); got.Priority != 4 {
		t.Fatalf("third order priority = %d after second tick, want 4", got.Priority)
	}
}

func TestAgingAfterInfeasibleOrder(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)
	doomed := addOrder(t, store, singleStepProduct("doomed", 9, domain.ProcedureJuggle, 100))
	waiting := addOrder(t, store, singleStepProduct("patient", 2, domain.ProcedureBake, 100))

	mustTick(t, svc)

	if got := fetchOrder(t, store, doomed.ID); got.Status != domain.StatusNotDeliverable {
		t.Fatalf("doomed order status = %s, want NOT_DELIVERABLE", got.Status)
	}
	if got := fetchOrder(t, store, waiting.ID); got.Priority != 3 {
		t.Fatalf("waiting order priority = %d, want aged to 3", got.Priority)
	}
}

func TestEmptyOrderSchedulesImmediately(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestService(store)

	order := addOrder(t, store)

	mustTick(t, svc)

	got := fetchOrder(t, store, order.ID)
	if got.Status != domain.StatusScheduled {
		t.Fatalf("Status = %s, want SCHEDULED", got.Status)
	}
	if !got.EstimatedShipping.Equal(clock.Now()) {
		t.Fatalf("EstimatedShipping = %v, want %v", got.EstimatedShipping, clock.Now())
	}
	if got := len(store.Instructions()); got != 0 {
		t.Fatalf("got %d instructions, want 0", got)
	}
}

func TestTickIdleWithoutOrders(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	processed, err := svc.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if processed {
		t.Fatal("Tick reported work with an empty store")
	}
}

func TestReservationStartsAtOccupation(t *testing.T) {
	store := memory.NewStore()
	svc, clock := newTestService(store)

	machine := addMachine(t, store, "oven", domain.MachineWorking, domain.ProcedureBake)
	if err := store.UpdateMachineOccupation(context.Background(), machine.ID, t0.Add(time.Hour)); err != nil {
		t.Fatalf("UpdateMachineOccupation: %v", err)
	}

	order := addOrder(t, store, singleStepProduct("bun", 1, domain.ProcedureBake, 60))
	clock.now = t0.Add(10 * time.Minute)

	mustTick(t, svc)

	// The machine is busy past now, so the step queues behind the
	// existing occupation.
	want := t0.Add(time.Hour + 60*time.Second)
	if got := fetchOrder(t, store, order.ID); !got.EstimatedShipping.Equal(want) {
		t.Fatalf("EstimatedShipping = %v, want %v", got.EstimatedShipping, want)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(store)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	svc.OnIdle = func(ctx context.Context) error {
		ticks++
		if ticks >= 3 {
			cancel()
		}
		return nil
	}

	if err := svc.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if ticks < 3 {
		t.Fatalf("OnIdle ran %d times, want at least 3", ticks)
	}
}
