package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Recipe is the ordered sequence of steps needed to produce one product.
type Recipe struct {
	Steps []RecipeStep
}

// RecipeStep applies one procedure to a set of ingredients for a duration.
type RecipeStep struct {
	Procedure   Procedure
	Ingredients []Ingredient
	DurationSec int
}

var (
	ErrEmptyIngredients = errors.New("recipe step requires at least one ingredient")
	ErrNegativeDuration = errors.New("recipe step duration must not be negative")
	ErrMalformedStep    = errors.New("malformed recipe step")
	ErrMalformedRecipe  = errors.New("malformed recipe")
)

// NewRecipeStep validates and builds a step.
func NewRecipeStep(procedure Procedure, ingredients []Ingredient, durationSec int) (RecipeStep, error) {
	if len(ingredients) == 0 {
		return RecipeStep{}, ErrEmptyIngredients
	}
	if durationSec < 0 {
		return RecipeStep{}, ErrNegativeDuration
	}
	return RecipeStep{Procedure: procedure, Ingredients: ingredients, DurationSec: durationSec}, nil
}

// Serialize encodes a step as PROCEDURE:ING1-ING2-...:DURATION.
func (s RecipeStep) Serialize() string {
	names := make([]string, len(s.Ingredients))
	for i, ing := range s.Ingredients {
		names[i] = string(ing)
	}
	return fmt.Sprintf("%s:%s:%d", s.Procedure, strings.Join(names, "-"), s.DurationSec)
}

// Serialize encodes a recipe as its steps joined by commas. The encoding is
// the on-disk representation of recipes and must round-trip exactly.
func (r Recipe) Serialize() string {
	parts := make([]string, len(r.Steps))
	for i, step := range r.Steps {
		parts[i] = step.Serialize()
	}
	return strings.Join(parts, ",")
}

// DeserializeRecipe is the exact inverse of Recipe.Serialize. Unknown enum
// names and malformed fragments are format errors.
func DeserializeRecipe(s string) (Recipe, error) {
	if s == "" {
		return Recipe{}, fmt.Errorf("%w: empty input", ErrMalformedRecipe)
	}
	fragments := strings.Split(s, ",")
	steps := make([]RecipeStep, 0, len(fragments))
	for _, fragment := range fragments {
		step, err := DeserializeRecipeStep(fragment)
		if err != nil {
			return Recipe{}, fmt.Errorf("%w: %w", ErrMalformedRecipe, err)
		}
		steps = append(steps, step)
	}
	return Recipe{Steps: steps}, nil
}

// DeserializeRecipeStep parses one PROCEDURE:ING1-ING2:DURATION fragment.
func DeserializeRecipeStep(s string) (RecipeStep, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RecipeStep{}, fmt.Errorf("%w: %q", ErrMalformedStep, s)
	}

	procedure, err := ParseProcedure(parts[0])
	if err != nil {
		return RecipeStep{}, err
	}

	var ingredients []Ingredient
	for _, name := range strings.Split(parts[1], "-") {
		ingredient, err := ParseIngredient(name)
		if err != nil {
			return RecipeStep{}, err
		}
		ingredients = append(ingredients, ingredient)
	}

	duration, err := strconv.Atoi(parts[2])
	if err != nil {
		return RecipeStep{}, fmt.Errorf("%w: bad duration in %q", ErrMalformedStep, s)
	}

	return NewRecipeStep(procedure, ingredients, duration)
}

// MaxStepDuration returns the longest single step in seconds, 0 for an empty
// recipe.
func (r Recipe) MaxStepDuration() int {
	max := 0
	for _, step := range r.Steps {
		if step.DurationSec > max {
			max = step.DurationSec
		}
	}
	return max
}
