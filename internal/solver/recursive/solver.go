// Package recursive is the depth-first reference planner. It expands one
// independent subtree per consumer, so shared intermediates are not
// amortized across consumers the way the LP planner does; it exists as a
// simple cross-check for acyclic chains.
package recursive

import (
	"fmt"
	"log/slog"

	"github.com/hexveil/chainplan/internal/catalog"
	"github.com/hexveil/chainplan/internal/models"
	"github.com/hexveil/chainplan/internal/solver"
)

// Planner plans production chains by depth-first expansion.
type Planner struct {
	cat *catalog.Catalog
	log *slog.Logger
}

// New returns a recursive planner over the given catalog.
func New(cat *catalog.Catalog) *Planner {
	return &Planner{cat: cat, log: slog.Default().With("planner", "recursive")}
}

// run holds the mutable state of one Plan call: the shared stock pool
// and the items on the current expansion branch.
type run struct {
	ctx     solver.EfficiencyContext
	pool    map[string]float64
	visited map[string]bool
}

// Plan expands one tree per target. Pre-supplied resources live in a
// single mutable pool shared across all targets of the call, so a unit
// of stock is only ever spent once per plan.
func (p *Planner) Plan(config *models.PlannerConfig) ([]*models.ProductionNode, error) {
	if err := models.ValidatePlannerConfig(config); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}

	r := &run{
		ctx:     solver.BuildEfficiencyContext(config),
		pool:    make(map[string]float64),
		visited: make(map[string]bool),
	}
	for _, res := range config.AvailableResources {
		r.pool[p.cat.Resolve(res.Item)] += res.Rate
	}

	var roots []*models.ProductionNode
	for _, t := range config.Targets {
		node := p.expand(r, t.Item, t.Rate)
		node.Kind = models.KindTarget
		node.NetOutputRate = t.Rate
		roots = append(roots, node)
	}
	p.log.Debug("plan expanded", "roots", len(roots))
	return roots, nil
}

// expand builds the subtree supplying one item at the given rate.
// Revisiting an item already on the current branch makes that occurrence
// a loop terminal: machines are still sized, but its inputs are listed
// flat instead of expanded.
func (p *Planner) expand(r *run, item string, rate float64) *models.ProductionNode {
	itemID := p.cat.Resolve(item)
	recipes := p.cat.RecipesByOutput(itemID)

	if len(recipes) > 0 && r.visited[itemID] {
		// Loop terminals size machines for the full rate, before any
		// stock deduction, so the cycle's true capacity is visible.
		return p.productionNode(r, recipes[0], itemID, rate, rate, 0, true)
	}

	supplied := 0.0
	if avail := r.pool[itemID]; avail > solver.Epsilon {
		supplied = avail
		if supplied > rate {
			supplied = rate
		}
		r.pool[itemID] -= supplied
	}
	needed := rate - supplied

	if len(recipes) == 0 || needed <= solver.Epsilon {
		return p.rawNode(r, itemID, rate, supplied)
	}

	r.visited[itemID] = true
	defer delete(r.visited, itemID)
	return p.productionNode(r, recipes[0], itemID, needed, rate, supplied, false)
}

func (p *Planner) rawNode(r *run, itemID string, rate, supplied float64) *models.ProductionNode {
	node := &models.ProductionNode{
		Kind:         models.KindRawSupply,
		ID:           itemID + "-raw",
		ItemName:     p.cat.ItemName(itemID),
		Rate:         rate,
		IsRaw:        true,
		SuppliedRate: supplied,
		BeltLimit:    r.ctx.BeltLimit,
	}
	if r.ctx.BeltLimit > 0 && rate > r.ctx.BeltLimit+solver.Epsilon {
		node.IsBeltSaturated = true
	}
	return node
}

// productionNode sizes machines for needed items/min of the recipe's
// primary output and recurses into inputs, fertilizer and fuel. Terminal
// nodes list their inputs as flat raw entries and skip fuel entirely.
func (p *Planner) productionNode(r *run, recipe *models.Recipe, itemID string, needed, rate, supplied float64, terminal bool) *models.ProductionNode {
	primary := recipe.PrimaryOutput()
	device := p.cat.Device(recipe.DeviceName())
	furnace := p.cat.ParentFurnace(device)
	isNursery := device.IsNursery()

	perActivation := solver.OutputPerActivation(primary, recipe.DeviceName(), r.ctx)
	if perActivation <= solver.Epsilon {
		return p.rawNode(r, itemID, rate, supplied)
	}
	activation := needed / perActivation
	machines := solver.MachineCount(activation, recipe, device, r.ctx)

	node := &models.ProductionNode{
		Kind:         models.KindProduction,
		ID:           itemID + "-prod-" + recipe.ID,
		ItemName:     p.cat.ItemName(itemID),
		Rate:         rate,
		SuppliedRate: supplied,
		RecipeID:     recipe.ID,
		DeviceCount:  machines,
		BeltLimit:    r.ctx.BeltLimit,
	}
	if device != nil {
		node.DeviceID = device.ID
	}
	if device.ConsumesHeat() {
		node.HeatConsumption = solver.HeatPerMinute(device, furnace, machines, r.ctx)
		if furnace != nil {
			node.ParentFurnaceID = furnace.ID
			node.ParentFurnaceCount = solver.FurnacesNeeded(machines, device, furnace)
		}
	}
	if r.ctx.BeltLimit > 0 && rate > r.ctx.BeltLimit+solver.Epsilon {
		node.IsBeltSaturated = true
	}
	for i := 1; i < len(recipe.Outputs); i++ {
		out := &recipe.Outputs[i]
		node.Byproducts = append(node.Byproducts, models.Byproduct{
			ItemName: p.cat.ItemName(p.cat.OutputID(out)),
			Rate:     activation * solver.OutputPerActivation(out, recipe.DeviceName(), r.ctx),
		})
	}

	child := func(item string, childRate float64) *models.ProductionNode {
		if terminal {
			return p.rawNode(r, p.cat.Resolve(item), childRate, 0)
		}
		return p.expand(r, item, childRate)
	}

	for i := range recipe.Inputs {
		in := &recipe.Inputs[i]
		inputID := p.cat.InputID(in)
		if isNursery && p.cat.Item(inputID).IsSeed() {
			continue
		}
		node.Inputs = append(node.Inputs, child(inputID, activation*in.Count))
	}
	if isNursery && r.ctx.SelectedFertilizer != "" {
		fertID := p.cat.Resolve(r.ctx.SelectedFertilizer)
		fertRate := activation * solver.FertilizerPerActivation(
			primary.EffectiveCount(), p.cat.Item(itemID), p.cat.Item(fertID), r.ctx)
		if fertRate > solver.Epsilon {
			node.Inputs = append(node.Inputs, child(fertID, fertRate))
		}
	}
	if !terminal && device.ConsumesHeat() {
		fuelID := p.cat.Resolve(r.ctx.SelectedFuel)
		heat := solver.HeatPerActivation(device, furnace, recipe.Time)
		fuelRate := activation * solver.FuelPerActivation(heat, p.cat.Item(fuelID), r.ctx)
		if fuelRate > solver.Epsilon {
			node.Inputs = append(node.Inputs, p.expand(r, fuelID, fuelRate))
		}
	}

	return node
}
