package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/me/burgermes/internal/adapter/memory"
	"github.com/me/burgermes/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(action, message, requestID string, details map[string]interface{})  {}
func (nopLogger) Debug(action, message, requestID string, details map[string]interface{}) {}
func (nopLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
}

func TestGetOrderStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nopLogger{})

	order := domain.NewOrder([]domain.Product{
		{Name: "Love Burger", Priority: 10, Recipe: domain.Recipe{Steps: []domain.RecipeStep{
			{Procedure: domain.ProcedureBake, Ingredients: []domain.Ingredient{domain.IngredientBread}, DurationSec: 120},
		}}},
	}, time.Now())
	if err := store.AddOrder(ctx, order); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}

	resp, err := svc.GetOrderStatus(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if resp.OrderID != order.ID {
		t.Fatalf("OrderID = %d, want %d", resp.OrderID, order.ID)
	}
	if resp.Status != domain.StatusPaid {
		t.Fatalf("Status = %s, want PAID", resp.Status)
	}
	if len(resp.Products) != 1 || resp.Products[0] != "Love Burger" {
		t.Fatalf("Products = %v", resp.Products)
	}

	if _, err := svc.GetOrderStatus(ctx, 999); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestGetMachineOccupancy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nopLogger{})

	until := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	machine := &domain.Machine{
		Name:          "oven",
		Procedures:    []domain.Procedure{domain.ProcedureBake, domain.ProcedureBake, domain.ProcedureFry},
		OccupiedUntil: until,
		Status:        domain.MachineWorking,
	}
	if err := store.AddMachine(ctx, machine); err != nil {
		t.Fatalf("AddMachine: %v", err)
	}

	resp, err := svc.GetMachineOccupancy(ctx)
	if err != nil {
		t.Fatalf("GetMachineOccupancy: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("got %d machines, want 1", len(resp))
	}
	if resp[0].Name != "oven" || !resp[0].OccupiedUntil.Equal(until) {
		t.Fatalf("response = %+v", resp[0])
	}
	// Duplicate capabilities collapse in the report.
	if len(resp[0].Procedures) != 2 {
		t.Fatalf("Procedures = %v, want 2 distinct", resp[0].Procedures)
	}
}
