package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanExecute(t *testing.T) {
	machine := Machine{
		Name:       "Cute Frying-Pan",
		Procedures: []Procedure{ProcedureFry, ProcedureCuddleWith},
		Status:     MachineWorking,
	}

	if !machine.CanExecute(ProcedureFry) {
		t.Fatal("expected machine to execute FRY")
	}
	if machine.CanExecute(ProcedureBake) {
		t.Fatal("machine must not execute BAKE")
	}
}

func TestDistinctProcedures(t *testing.T) {
	machine := Machine{
		Procedures: []Procedure{ProcedureBake, ProcedureFry, ProcedureBake, ProcedureFry, ProcedureCut},
	}

	got := machine.DistinctProcedures()
	want := []Procedure{ProcedureBake, ProcedureFry, ProcedureCut}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DistinctProcedures() = %v, want %v", got, want)
	}
}

func TestParseMachineStatus(t *testing.T) {
	if status, err := ParseMachineStatus("WORKING"); err != nil || status != MachineWorking {
		t.Fatalf("ParseMachineStatus(WORKING) = %s, %v", status, err)
	}
	if status, err := ParseMachineStatus("BROKEN"); err != nil || status != MachineBroken {
		t.Fatalf("ParseMachineStatus(BROKEN) = %s, %v", status, err)
	}
	if _, err := ParseMachineStatus("IDLE"); !errors.Is(err, ErrUnknownMachineStatus) {
		t.Fatalf("error = %v, want ErrUnknownMachineStatus", err)
	}
}

func TestIngredientsRoundTrip(t *testing.T) {
	ingredients := []Ingredient{IngredientBread, IngredientVeggiePatty, IngredientSalad}

	encoded := SerializeIngredients(ingredients)
	if encoded != "BREAD-VEGGIE_PATTY-SALAD" {
		t.Fatalf("SerializeIngredients() = %q", encoded)
	}

	decoded, err := DeserializeIngredients(encoded)
	if err != nil {
		t.Fatalf("DeserializeIngredients: %v", err)
	}
	if !reflect.DeepEqual(decoded, ingredients) {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded, ingredients)
	}

	if _, err := DeserializeIngredients("BREAD-PLASTIC"); !errors.Is(err, ErrUnknownIngredient) {
		t.Fatalf("error = %v, want ErrUnknownIngredient", err)
	}
}
