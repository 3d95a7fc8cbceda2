package domain

import "strings"

// Instruction is the persisted record of one recipe step assigned to one
// machine for one order and product. It is created exactly once per
// (order, product, step) during a successful scheduling pass and is immutable
// afterwards: the audit trail of the assignment.
type Instruction struct {
	ID          int
	OrderID     int
	ProductID   int
	MachineID   int
	Procedure   Procedure
	Ingredients []Ingredient
	DurationSec int
}

// SerializeIngredients encodes an ingredient list for the instructions table,
// names joined by dashes as in the recipe step encoding.
func SerializeIngredients(ingredients []Ingredient) string {
	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = string(ing)
	}
	return strings.Join(names, "-")
}

// DeserializeIngredients is the inverse of SerializeIngredients.
func DeserializeIngredients(s string) ([]Ingredient, error) {
	var out []Ingredient
	for _, name := range strings.Split(s, "-") {
		ingredient, err := ParseIngredient(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ingredient)
	}
	return out, nil
}
