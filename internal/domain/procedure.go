package domain

import (
	"errors"
	"fmt"
)

// Procedure is an operation kind a machine may execute.
type Procedure string

const (
	ProcedureNop          Procedure = "NOP"
	ProcedureBake         Procedure = "BAKE"
	ProcedureFry          Procedure = "FRY"
	ProcedureLick         Procedure = "LICK"
	ProcedureCut          Procedure = "CUT"
	ProcedureScreamAt     Procedure = "SCREAM_AT"
	ProcedureCuddleWith   Procedure = "CUDDLE_WITH"
	ProcedureJuggle       Procedure = "JUGGLE"
	ProcedureThrowOnFloor Procedure = "THROW_ON_FLOOR"
	ProcedureAssemble     Procedure = "ASSEMBLE"
)

// Ingredient is something a recipe step consumes.
type Ingredient string

const (
	IngredientBread       Ingredient = "BREAD"
	IngredientTomato      Ingredient = "TOMATO"
	IngredientSalad       Ingredient = "SALAD"
	IngredientSteak       Ingredient = "STEAK"
	IngredientVeggiePatty Ingredient = "VEGGIE_PATTY"
)

var (
	ErrUnknownProcedure  = errors.New("unknown procedure")
	ErrUnknownIngredient = errors.New("unknown ingredient")
)

// Procedures lists every procedure in declaration order.
func Procedures() []Procedure {
	return []Procedure{
		ProcedureNop, ProcedureBake, ProcedureFry, ProcedureLick, ProcedureCut,
		ProcedureScreamAt, ProcedureCuddleWith, ProcedureJuggle,
		ProcedureThrowOnFloor, ProcedureAssemble,
	}
}

// Ingredients lists every ingredient in declaration order.
func Ingredients() []Ingredient {
	return []Ingredient{
		IngredientBread, IngredientTomato, IngredientSalad,
		IngredientSteak, IngredientVeggiePatty,
	}
}

// ParseProcedure maps a stored name back to a Procedure. Names are
// case-sensitive and the set is closed: anything unrecognized is an error,
// never a default.
func ParseProcedure(s string) (Procedure, error) {
	for _, p := range Procedures() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProcedure, s)
}

// ParseIngredient maps a stored name back to an Ingredient.
func ParseIngredient(s string) (Ingredient, error) {
	for _, i := range Ingredients() {
		if string(i) == s {
			return i, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIngredient, s)
}
