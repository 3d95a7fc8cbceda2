// Package memory implements the storage contract in process memory with
// snapshot-based transactions. It backs the demo mode and the test suites;
// the production implementation lives in adapter/postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/me/burgermes/internal/domain"
	"github.com/me/burgermes/internal/interfaces"
)

type state struct {
	orders       map[int]*domain.Order
	products     map[int]*domain.Product
	machines     map[int]*domain.Machine
	instructions map[int]*domain.Instruction

	nextOrderID       int
	nextProductID     int
	nextMachineID     int
	nextInstructionID int
}

// Store keeps everything behind one mutex. Begin snapshots the whole state;
// Rollback swaps the snapshot back, so every write since Begin is undone
// wholesale. At most one transaction may be active.
type Store struct {
	mu       sync.Mutex
	current  state
	snapshot *state
}

func NewStore() *Store {
	return &Store{current: newState()}
}

func newState() state {
	return state{
		orders:            make(map[int]*domain.Order),
		products:          make(map[int]*domain.Product),
		machines:          make(map[int]*domain.Machine),
		instructions:      make(map[int]*domain.Instruction),
		nextOrderID:       1,
		nextProductID:     1,
		nextMachineID:     1,
		nextInstructionID: 1,
	}
}

func (s *Store) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return interfaces.ErrTransactionActive
	}
	snap := cloneState(&s.current)
	s.snapshot = &snap
	return nil
}

func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return interfaces.ErrNoTransaction
	}
	s.snapshot = nil
	return nil
}

func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return interfaces.ErrNoTransaction
	}
	s.current = *s.snapshot
	s.snapshot = nil
	return nil
}

func (s *Store) PromoteNewOrders(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promoted := 0
	for _, order := range s.current.orders {
		if order.Status != domain.StatusPaid {
			continue
		}
		order.Priority = order.InitialPriority()
		order.Status = domain.StatusWaiting
		promoted++
	}
	return promoted, nil
}

func (s *Store) FetchNextOrder(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *domain.Order
	for _, order := range s.current.orders {
		if order.Status != domain.StatusWaiting {
			continue
		}
		if best == nil || order.Priority > best.Priority ||
			(order.Priority == best.Priority && order.ID < best.ID) {
			best = order
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneOrder(best), nil
}

func (s *Store) FetchOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.current.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	return cloneOrder(order), nil
}

func (s *Store) FetchMachine(ctx context.Context, procedure domain.Procedure) (*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *domain.Machine
	for _, machine := range s.current.machines {
		if machine.Status != domain.MachineWorking || !machine.CanExecute(procedure) {
			continue
		}
		if best == nil || machine.OccupiedUntil.Before(best.OccupiedUntil) ||
			(machine.OccupiedUntil.Equal(best.OccupiedUntil) && machine.ID < best.ID) {
			best = machine
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneMachine(best), nil
}

func (s *Store) FetchAllMachines(ctx context.Context) ([]*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Machine, 0, len(s.current.machines))
	for _, machine := range s.current.machines {
		out = append(out, cloneMachine(machine))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateMachineOccupation(ctx context.Context, machineID int, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machine, ok := s.current.machines[machineID]
	if !ok {
		return fmt.Errorf("machine %d not found", machineID)
	}
	machine.OccupiedUntil = until
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.current.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	order.Status = status
	return nil
}

func (s *Store) UpdateEstimatedShipping(ctx context.Context, orderID int, shipping time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.current.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	order.EstimatedShipping = shipping
	return nil
}

func (s *Store) IncreaseOrderPriority(ctx context.Context, amount int, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.current.orders {
		if order.Status == status {
			order.Priority += amount
		}
	}
	return nil
}

func (s *Store) AddInstruction(ctx context.Context, instruction *domain.Instruction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	instruction.ID = s.current.nextInstructionID
	s.current.nextInstructionID++
	s.current.instructions[instruction.ID] = cloneInstruction(instruction)
	return instruction.ID, nil
}

func (s *Store) AddOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range order.Products {
		if order.Products[i].ID == 0 {
			s.addProductLocked(&order.Products[i])
		}
	}
	order.ID = s.current.nextOrderID
	s.current.nextOrderID++
	s.current.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *Store) AddProduct(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addProductLocked(product)
	return nil
}

func (s *Store) addProductLocked(product *domain.Product) {
	product.ID = s.current.nextProductID
	s.current.nextProductID++
	clone := *product
	clone.Recipe = cloneRecipe(product.Recipe)
	s.current.products[product.ID] = &clone
}

func (s *Store) AddMachine(ctx context.Context, machine *domain.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machine.ID = s.current.nextMachineID
	s.current.nextMachineID++
	s.current.machines[machine.ID] = cloneMachine(machine)
	return nil
}

// Instructions returns every stored instruction sorted by ID. Test and demo
// reporting helper, not part of the storage contract.
func (s *Store) Instructions() []*domain.Instruction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Instruction, 0, len(s.current.instructions))
	for _, instruction := range s.current.instructions {
		out = append(out, cloneInstruction(instruction))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneState(src *state) state {
	dst := newState()
	dst.nextOrderID = src.nextOrderID
	dst.nextProductID = src.nextProductID
	dst.nextMachineID = src.nextMachineID
	dst.nextInstructionID = src.nextInstructionID
	for id, order := range src.orders {
		dst.orders[id] = cloneOrder(order)
	}
	for id, product := range src.products {
		clone := *product
		clone.Recipe = cloneRecipe(product.Recipe)
		dst.products[id] = &clone
	}
	for id, machine := range src.machines {
		dst.machines[id] = cloneMachine(machine)
	}
	for id, instruction := range src.instructions {
		dst.instructions[id] = cloneInstruction(instruction)
	}
	return dst
}

func cloneOrder(src *domain.Order) *domain.Order {
	clone := *src
	clone.Products = make([]domain.Product, len(src.Products))
	for i, product := range src.Products {
		clone.Products[i] = product
		clone.Products[i].Recipe = cloneRecipe(product.Recipe)
	}
	return &clone
}

func cloneMachine(src *domain.Machine) *domain.Machine {
	clone := *src
	clone.Procedures = append([]domain.Procedure(nil), src.Procedures...)
	return &clone
}

func cloneInstruction(src *domain.Instruction) *domain.Instruction {
	clone := *src
	clone.Ingredients = append([]domain.Ingredient(nil), src.Ingredients...)
	return &clone
}

func cloneRecipe(src domain.Recipe) domain.Recipe {
	steps := make([]domain.RecipeStep, len(src.Steps))
	for i, step := range src.Steps {
		steps[i] = step
		steps[i].Ingredients = append([]domain.Ingredient(nil), step.Ingredients...)
	}
	return domain.Recipe{Steps: steps}
}

func (s *Store) Close() {}
