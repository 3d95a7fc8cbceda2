package seed

import (
	"math/rand"
	"testing"
	"time"

	"github.com/me/burgermes/internal/domain"
)

func TestCatalogFixedProducts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	catalog := Catalog(rng)
	if len(catalog) != 5 {
		t.Fatalf("got %d products, want 5", len(catalog))
	}

	love := catalog[0]
	if love.Name != "Love Burger" || love.Priority != 10 {
		t.Fatalf("first product = %+v", love)
	}
	want := "BAKE:BREAD:120,CUT:TOMATO:20,FRY:VEGGIE_PATTY:20,CUDDLE_WITH:SALAD:300"
	if got := love.Recipe.Serialize(); got != want {
		t.Fatalf("Love Burger recipe = %q, want %q", got, want)
	}

	metal := catalog[1]
	if metal.Name != "Metal Burger" || metal.Priority != 5 {
		t.Fatalf("second product = %+v", metal)
	}
}

func TestRandomProductIsValid(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 100; i++ {
		product := RandomProduct(rng, "probe")
		if len(product.Recipe.Steps) < 1 || len(product.Recipe.Steps) > 4 {
			t.Fatalf("got %d steps", len(product.Recipe.Steps))
		}
		if product.Priority < 1 {
			t.Fatalf("priority = %d", product.Priority)
		}
		// Every generated recipe must survive the wire encoding.
		if _, err := domain.DeserializeRecipe(product.Recipe.Serialize()); err != nil {
			t.Fatalf("generated recipe does not round-trip: %v", err)
		}
	}
}

func TestMachinesIncludeFixedPark(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	now := time.Now()

	machines := Machines(rng, now)
	if len(machines) < 7 || len(machines) > 11 {
		t.Fatalf("got %d machines", len(machines))
	}

	byName := make(map[string]domain.Machine)
	for _, m := range machines {
		byName[m.Name] = m
	}

	pan, ok := byName["Cute Frying-Pan"]
	if !ok || pan.Status != domain.MachineWorking || !pan.CanExecute(domain.ProcedureCuddleWith) {
		t.Fatalf("Cute Frying-Pan = %+v", pan)
	}
	oven, ok := byName["Aggressive Oven"]
	if !ok || oven.Status != domain.MachineWorking || !oven.CanExecute(domain.ProcedureScreamAt) {
		t.Fatalf("Aggressive Oven = %+v", oven)
	}
}

func TestRandomOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	now := time.Now()
	catalog := Catalog(rng)

	for i := 0; i < 50; i++ {
		order := RandomOrder(rng, catalog, now)
		if order.Status != domain.StatusPaid {
			t.Fatalf("Status = %s, want PAID", order.Status)
		}
		if len(order.Products) < 1 || len(order.Products) > 4 {
			t.Fatalf("got %d products", len(order.Products))
		}
		if order.Priority != order.InitialPriority() {
			t.Fatalf("Priority = %d, want %d", order.Priority, order.InitialPriority())
		}
	}
}
