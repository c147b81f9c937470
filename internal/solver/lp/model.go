// Package lp is the linear-programming production planner. It models the
// whole recipe catalog as one linear system (which handles circular
// fuel/fertilizer dependencies naturally), minimizes raw-material cost,
// and interprets the solved activation rates back into a production graph.
package lp

import (
	"fmt"
	"sort"

	"github.com/hexveil/chainplan/internal/catalog"
	"github.com/hexveil/chainplan/internal/models"
	"github.com/hexveil/chainplan/internal/solver"
)

// VarKind distinguishes the two families of model variables.
type VarKind int

const (
	// VarRecipe is a recipe activation rate in activations per minute.
	VarRecipe VarKind = iota
	// VarRaw is an externally purchased rate of one raw material.
	VarRaw
)

// Variable is one column of the model: its per-item flow coefficients
// (production positive, consumption negative) and its objective cost.
type Variable struct {
	Name     string
	Kind     VarKind
	RecipeID string
	ItemID   string
	Cost     float64
	Coeffs   map[string]float64
}

// Constraint is one row of the model: the net flow of ItemID across all
// variables must be at least Min.
type Constraint struct {
	ItemID string
	Min    float64
}

// Model is the assembled optimization problem. Variables and constraints
// are in deterministic order so repeated runs solve identically.
type Model struct {
	Vars        []*Variable
	Constraints []Constraint
}

// BuildModel assembles the LP for a planning run. The full catalog is
// modeled, not just items reachable from the targets; inactive recipes
// simply solve to zero.
func BuildModel(cat *catalog.Catalog, config *models.PlannerConfig, ctx solver.EfficiencyContext) *Model {
	itemSet := make(map[string]bool)

	var recipeVars []*Variable
	for _, recipe := range cat.Recipes() {
		v := &Variable{
			Name:     fmt.Sprintf("recipe_%s", recipe.ID),
			Kind:     VarRecipe,
			RecipeID: recipe.ID,
			Coeffs:   recipeCoefficients(cat, recipe, ctx),
		}
		for itemID := range v.Coeffs {
			itemSet[itemID] = true
		}
		recipeVars = append(recipeVars, v)
	}

	// Targets and pre-supplied resources join the item set even when no
	// recipe touches them, so an unknown target still gets a raw-material
	// variable and a plan instead of an infeasible model.
	targets := make(map[string]float64)
	for _, t := range config.Targets {
		id := cat.Resolve(t.Item)
		targets[id] += t.Rate
		itemSet[id] = true
	}
	available := make(map[string]float64)
	for _, r := range config.AvailableResources {
		id := cat.Resolve(r.Item)
		available[id] += r.Rate
		itemSet[id] = true
	}

	itemIDs := make([]string, 0, len(itemSet))
	for id := range itemSet {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	model := &Model{Vars: recipeVars}
	for _, itemID := range itemIDs {
		rhs := -available[itemID]
		if rate, ok := targets[itemID]; ok {
			rhs = rate - available[itemID]
		}
		model.Constraints = append(model.Constraints, Constraint{ItemID: itemID, Min: rhs})

		if !cat.HasProducer(itemID) {
			model.Vars = append(model.Vars, &Variable{
				Name:   fmt.Sprintf("raw_%s", itemID),
				Kind:   VarRaw,
				ItemID: itemID,
				Cost:   cat.Item(itemID).UnitCost(),
				Coeffs: map[string]float64{itemID: 1},
			})
		}
	}

	return model
}

// recipeCoefficients computes the per-activation net item flows of one
// recipe, including the derived fuel and fertilizer consumption of the
// device running it.
func recipeCoefficients(cat *catalog.Catalog, recipe *models.Recipe, ctx solver.EfficiencyContext) map[string]float64 {
	coeffs := make(map[string]float64)
	device := cat.Device(recipe.DeviceName())
	isNursery := device.IsNursery()

	for i := range recipe.Outputs {
		out := &recipe.Outputs[i]
		coeffs[cat.OutputID(out)] += solver.OutputPerActivation(out, recipe.DeviceName(), ctx)
	}

	for i := range recipe.Inputs {
		in := &recipe.Inputs[i]
		inputID := cat.InputID(in)
		// Nurseries keep their seed planted across cycles; only the
		// fertilizer below is consumed.
		if isNursery && cat.Item(inputID).IsSeed() {
			continue
		}
		coeffs[inputID] -= in.Count
	}

	if isNursery && ctx.SelectedFertilizer != "" {
		if out := recipe.PrimaryOutput(); out != nil {
			fertID := cat.Resolve(ctx.SelectedFertilizer)
			amount := solver.FertilizerPerActivation(
				out.EffectiveCount(), cat.Item(cat.OutputID(out)), cat.Item(fertID), ctx)
			if amount > 0 {
				coeffs[fertID] -= amount
			}
		}
	}

	if device.ConsumesHeat() {
		fuelID := cat.Resolve(ctx.SelectedFuel)
		heat := solver.HeatPerActivation(device, cat.ParentFurnace(device), recipe.Time)
		amount := solver.FuelPerActivation(heat, cat.Item(fuelID), ctx)
		if amount > 0 {
			coeffs[fuelID] -= amount
		}
	}

	return coeffs
}
