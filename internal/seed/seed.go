// Package seed generates the demo catalog, machine park and random orders
// used by the demo mode and the webshop demand generator.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/me/burgermes/internal/domain"
)

// LoveBurger is the fixed signature product of the demo catalog.
func LoveBurger() domain.Product {
	return domain.Product{
		Name: "Love Burger",
		Recipe: domain.Recipe{Steps: []domain.RecipeStep{
			{Procedure: domain.ProcedureBake, Ingredients: []domain.Ingredient{domain.IngredientBread}, DurationSec: 120},
			{Procedure: domain.ProcedureCut, Ingredients: []domain.Ingredient{domain.IngredientTomato}, DurationSec: 20},
			{Procedure: domain.ProcedureFry, Ingredients: []domain.Ingredient{domain.IngredientVeggiePatty}, DurationSec: 20},
			{Procedure: domain.ProcedureCuddleWith, Ingredients: []domain.Ingredient{domain.IngredientSalad}, DurationSec: 300},
		}},
		Priority: 10,
	}
}

// MetalBurger is the heavier fixed product.
func MetalBurger() domain.Product {
	return domain.Product{
		Name: "Metal Burger",
		Recipe: domain.Recipe{Steps: []domain.RecipeStep{
			{Procedure: domain.ProcedureBake, Ingredients: []domain.Ingredient{domain.IngredientBread}, DurationSec: 820},
			{Procedure: domain.ProcedureNop, Ingredients: []domain.Ingredient{domain.IngredientTomato}, DurationSec: 0},
			{Procedure: domain.ProcedureFry, Ingredients: []domain.Ingredient{domain.IngredientSteak}, DurationSec: 700},
			{Procedure: domain.ProcedureScreamAt, Ingredients: []domain.Ingredient{domain.IngredientSalad}, DurationSec: 1200},
		}},
		Priority: 5,
	}
}

// RandomProduct builds a product with 1-4 random steps.
func RandomProduct(rng *rand.Rand, name string) domain.Product {
	procedures := domain.Procedures()
	ingredients := domain.Ingredients()

	steps := make([]domain.RecipeStep, 1+rng.Intn(4))
	for i := range steps {
		steps[i] = domain.RecipeStep{
			Procedure:   procedures[rng.Intn(len(procedures))],
			Ingredients: []domain.Ingredient{ingredients[rng.Intn(len(ingredients))]},
			DurationSec: rng.Intn(1000),
		}
	}
	return domain.Product{
		Name:     name,
		Recipe:   domain.Recipe{Steps: steps},
		Priority: 1 + rng.Intn(19),
	}
}

// Catalog is the demo product catalog: the two fixed burgers plus three
// random sandwiches.
func Catalog(rng *rand.Rand) []domain.Product {
	return []domain.Product{
		LoveBurger(),
		MetalBurger(),
		RandomProduct(rng, "Surprising Sandwich"),
		RandomProduct(rng, "Sandy Sandwich"),
		RandomProduct(rng, "Signature Sandwich"),
	}
}

// Machines builds 5-9 random machines (roughly one in ten broken) plus two
// reliable ones covering the fixed burgers' oddest procedures.
func Machines(rng *rand.Rand, now time.Time) []domain.Machine {
	procedures := domain.Procedures()

	count := 5 + rng.Intn(5)
	machines := make([]domain.Machine, 0, count+2)
	for i := 0; i < count; i++ {
		caps := make([]domain.Procedure, 1+rng.Intn(5))
		for j := range caps {
			caps[j] = procedures[rng.Intn(len(procedures))]
		}
		status := domain.MachineWorking
		if rng.Float64() >= 0.9 {
			status = domain.MachineBroken
		}
		machines = append(machines, domain.Machine{
			Name:          fmt.Sprintf("Magical Machine %d", i+1),
			Procedures:    caps,
			OccupiedUntil: now,
			Status:        status,
		})
	}

	machines = append(machines,
		domain.Machine{
			Name:          "Cute Frying-Pan",
			Procedures:    []domain.Procedure{domain.ProcedureFry, domain.ProcedureCuddleWith},
			OccupiedUntil: now,
			Status:        domain.MachineWorking,
		},
		domain.Machine{
			Name:          "Aggressive Oven",
			Procedures:    []domain.Procedure{domain.ProcedureScreamAt, domain.ProcedureThrowOnFloor, domain.ProcedureBake},
			OccupiedUntil: now,
			Status:        domain.MachineWorking,
		},
	)
	return machines
}

// RandomOrder picks 1-4 products from the catalog.
func RandomOrder(rng *rand.Rand, catalog []domain.Product, now time.Time) *domain.Order {
	products := make([]domain.Product, 1+rng.Intn(4))
	for i := range products {
		products[i] = catalog[rng.Intn(len(catalog))]
	}
	return domain.NewOrder(products, now)
}
