package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/me/burgermes/internal/domain"
	"github.com/me/burgermes/internal/interfaces"
)

// Store implements the storage contract on PostgreSQL. A single transaction
// may be open at a time; while it is, every read and write routes through it
// so the allocator's read-modify-write on machine occupation happens under
// one isolation scope.
type Store struct {
	pool *pgxpool.Pool

	mu sync.Mutex
	tx pgx.Tx
}

func NewStore(pool *pgxpool.Pool) interfaces.Store {
	return &Store{pool: pool}
}

// q returns the active transaction when one is open, the pool otherwise.
// Callers must hold s.mu.
func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.pool
}

func (s *Store) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return interfaces.ErrTransactionActive
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return interfaces.ErrNoTransaction
	}
	err := s.tx.Commit(ctx)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return interfaces.ErrNoTransaction
	}
	err := s.tx.Rollback(ctx)
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

func (s *Store) PromoteNewOrders(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Orders with products get the sum of their product priorities.
	withProducts, err := s.q().Exec(ctx, `
		UPDATE orders o
		SET priority = t.total, status = $1
		FROM (
			SELECT op.order_id, SUM(p.priority) AS total
			FROM order_products op
			JOIN products p ON p.product_id = op.product_id
			GROUP BY op.order_id
		) t
		WHERE o.order_id = t.order_id AND o.status = $2
	`, string(domain.StatusWaiting), string(domain.StatusPaid))
	if err != nil {
		return 0, fmt.Errorf("failed to promote orders: %w", err)
	}

	// Orders without any product still become WAITING, at priority zero.
	empty, err := s.q().Exec(ctx, `
		UPDATE orders SET priority = 0, status = $1 WHERE status = $2
	`, string(domain.StatusWaiting), string(domain.StatusPaid))
	if err != nil {
		return 0, fmt.Errorf("failed to promote empty orders: %w", err)
	}

	return int(withProducts.RowsAffected() + empty.RowsAffected()), nil
}

func (s *Store) FetchNextOrder(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := &domain.Order{}
	var status string
	err := s.q().QueryRow(ctx, `
		SELECT order_id, status, priority, estimated_shipping, created_at
		FROM orders
		WHERE status = $1
		ORDER BY priority DESC, order_id ASC
		LIMIT 1
	`, string(domain.StatusWaiting)).Scan(
		&order.ID, &status, &order.Priority, &order.EstimatedShipping, &order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next order: %w", err)
	}

	if order.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	if err := s.loadOrderProducts(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) FetchOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := &domain.Order{}
	var status string
	err := s.q().QueryRow(ctx, `
		SELECT order_id, status, priority, estimated_shipping, created_at
		FROM orders
		WHERE order_id = $1
	`, orderID).Scan(
		&order.ID, &status, &order.Priority, &order.EstimatedShipping, &order.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("order %d not found: %w", orderID, err)
	}

	if order.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	if err := s.loadOrderProducts(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) loadOrderProducts(ctx context.Context, order *domain.Order) error {
	rows, err := s.q().Query(ctx, `
		SELECT p.product_id, p.name, p.recipe, p.priority
		FROM order_products op
		JOIN products p ON p.product_id = op.product_id
		WHERE op.order_id = $1
		ORDER BY p.product_id
	`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var product domain.Product
		var recipe string
		if err := rows.Scan(&product.ID, &product.Name, &recipe, &product.Priority); err != nil {
			return fmt.Errorf("failed to scan order product: %w", err)
		}
		if product.Recipe, err = domain.DeserializeRecipe(recipe); err != nil {
			return fmt.Errorf("product %d has a malformed recipe: %w", product.ID, err)
		}
		order.Products = append(order.Products, product)
	}
	return rows.Err()
}

func (s *Store) FetchMachine(ctx context.Context, procedure domain.Procedure) (*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	machine := &domain.Machine{}
	var status string
	err := s.q().QueryRow(ctx, `
		SELECT m.machine_id, m.name, m.occupied_until, m.status
		FROM machines m
		WHERE m.status = $1 AND EXISTS (
			SELECT 1 FROM machine_procedures mp
			WHERE mp.machine_id = m.machine_id AND mp.procedure = $2
		)
		ORDER BY m.occupied_until ASC, m.machine_id ASC
		LIMIT 1
	`, string(domain.MachineWorking), string(procedure)).Scan(
		&machine.ID, &machine.Name, &machine.OccupiedUntil, &status,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch machine for procedure: %w", err)
	}

	if machine.Status, err = domain.ParseMachineStatus(status); err != nil {
		return nil, err
	}
	if machine.Procedures, err = s.loadMachineProcedures(ctx, machine.ID); err != nil {
		return nil, err
	}
	return machine, nil
}

func (s *Store) loadMachineProcedures(ctx context.Context, machineID int) ([]domain.Procedure, error) {
	rows, err := s.q().Query(ctx, `
		SELECT procedure FROM machine_procedures WHERE machine_id = $1
	`, machineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load machine procedures: %w", err)
	}
	defer rows.Close()

	var procedures []domain.Procedure
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan machine procedure: %w", err)
		}
		procedure, err := domain.ParseProcedure(name)
		if err != nil {
			return nil, err
		}
		procedures = append(procedures, procedure)
	}
	return procedures, rows.Err()
}

func (s *Store) FetchAllMachines(ctx context.Context) ([]*domain.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.q().Query(ctx, `
		SELECT m.machine_id, m.name, m.occupied_until, m.status, mp.procedure
		FROM machines m
		JOIN machine_procedures mp ON mp.machine_id = m.machine_id
		ORDER BY m.machine_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	var machines []*domain.Machine
	var current *domain.Machine
	for rows.Next() {
		var (
			id            int
			name          string
			occupiedUntil time.Time
			status        string
			procedureName string
		)
		if err := rows.Scan(&id, &name, &occupiedUntil, &status, &procedureName); err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}

		procedure, err := domain.ParseProcedure(procedureName)
		if err != nil {
			return nil, err
		}

		if current == nil || current.ID != id {
			machineStatus, err := domain.ParseMachineStatus(status)
			if err != nil {
				return nil, err
			}
			current = &domain.Machine{
				ID:            id,
				Name:          name,
				OccupiedUntil: occupiedUntil,
				Status:        machineStatus,
			}
			machines = append(machines, current)
		}
		current.Procedures = append(current.Procedures, procedure)
	}
	return machines, rows.Err()
}

func (s *Store) UpdateMachineOccupation(ctx context.Context, machineID int, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.q().Exec(ctx, `
		UPDATE machines SET occupied_until = $1 WHERE machine_id = $2
	`, until, machineID)
	if err != nil {
		return fmt.Errorf("failed to update machine occupation: %w", err)
	}
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.q().Exec(ctx, `
		UPDATE orders SET status = $1 WHERE order_id = $2
	`, string(status), orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func (s *Store) UpdateEstimatedShipping(ctx context.Context, orderID int, shipping time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.q().Exec(ctx, `
		UPDATE orders SET estimated_shipping = $1 WHERE order_id = $2
	`, shipping, orderID)
	if err != nil {
		return fmt.Errorf("failed to update estimated shipping: %w", err)
	}
	return nil
}

func (s *Store) IncreaseOrderPriority(ctx context.Context, amount int, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.q().Exec(ctx, `
		UPDATE orders SET priority = priority + $1 WHERE status = $2
	`, amount, string(status))
	if err != nil {
		return fmt.Errorf("failed to increase order priority: %w", err)
	}
	return nil
}

func (s *Store) AddInstruction(ctx context.Context, instruction *domain.Instruction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.q().QueryRow(ctx, `
		INSERT INTO instructions (order_id, product_id, machine_id, procedure, ingredients, duration_sec)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING instruction_id
	`,
		instruction.OrderID, instruction.ProductID, instruction.MachineID,
		string(instruction.Procedure), domain.SerializeIngredients(instruction.Ingredients),
		instruction.DurationSec,
	).Scan(&instruction.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to add instruction: %w", err)
	}
	return instruction.ID, nil
}

func (s *Store) AddOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Intake runs outside the scheduling transaction, so the order and its
	// product links get a local transaction of their own.
	if s.tx != nil {
		return s.addOrder(ctx, s.tx, order)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.addOrder(ctx, tx, order); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) addOrder(ctx context.Context, q querier, order *domain.Order) error {
	err := q.QueryRow(ctx, `
		INSERT INTO orders (status, priority, estimated_shipping, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING order_id
	`, string(order.Status), order.Priority, order.EstimatedShipping, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Products {
		if order.Products[i].ID == 0 {
			if err := s.addProduct(ctx, q, &order.Products[i]); err != nil {
				return err
			}
		}
		_, err := q.Exec(ctx, `
			INSERT INTO order_products (order_id, product_id) VALUES ($1, $2)
		`, order.ID, order.Products[i].ID)
		if err != nil {
			return fmt.Errorf("failed to link order product: %w", err)
		}
	}
	return nil
}

func (s *Store) AddProduct(ctx context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addProduct(ctx, s.q(), product)
}

func (s *Store) addProduct(ctx context.Context, q querier, product *domain.Product) error {
	err := q.QueryRow(ctx, `
		INSERT INTO products (name, recipe, priority)
		VALUES ($1, $2, $3)
		RETURNING product_id
	`, product.Name, product.Recipe.Serialize(), product.Priority,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to add product %q: %w", product.Name, err)
	}
	return nil
}

func (s *Store) AddMachine(ctx context.Context, machine *domain.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.q().QueryRow(ctx, `
		INSERT INTO machines (name, occupied_until, status)
		VALUES ($1, $2, $3)
		RETURNING machine_id
	`, machine.Name, machine.OccupiedUntil, string(machine.Status),
	).Scan(&machine.ID)
	if err != nil {
		return fmt.Errorf("failed to add machine %q: %w", machine.Name, err)
	}

	for _, procedure := range machine.Procedures {
		_, err := s.q().Exec(ctx, `
			INSERT INTO machine_procedures (machine_id, procedure) VALUES ($1, $2)
		`, machine.ID, string(procedure))
		if err != nil {
			return fmt.Errorf("failed to add machine procedure: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
