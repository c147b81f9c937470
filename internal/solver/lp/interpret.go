package lp

import (
	"sort"

	"github.com/hexveil/chainplan/internal/catalog"
	"github.com/hexveil/chainplan/internal/models"
	"github.com/hexveil/chainplan/internal/solver"
)

// flowSource is one producer of an item with its production rate.
type flowSource struct {
	node *models.ProductionNode
	rate float64
}

// itemFlow accumulates the total flow of one item across the solved
// network. produced/consumed answer "how much of X moves per minute in
// total", which differs from any single node's rate once cycles are
// involved.
type itemFlow struct {
	produced float64
	consumed float64
	sources  []flowSource
}

// consumption is one input demand of a production node, including the
// derived fuel and fertilizer demands of its device.
type consumption struct {
	itemID string
	rate   float64
}

type interpreter struct {
	cat *catalog.Catalog
	ctx solver.EfficiencyContext
	sol *Solution

	flows     map[string]*itemFlow
	nodes     []*models.ProductionNode
	recipes   map[*models.ProductionNode]*models.Recipe
	byItem    map[string][]*models.ProductionNode
	rawNodes  map[string]*models.ProductionNode
	available map[string]float64

	// deps[n] is the set of nodes n transitively depends on. Checked
	// before every link so a cycle becomes a consumption reference
	// instead of an infinite tree.
	deps map[*models.ProductionNode]map[*models.ProductionNode]bool

	// edgeCopies collects per-edge node copies so their input lists can
	// be pointed at the canonical subtrees once linking is complete.
	edgeCopies []*models.ProductionNode
}

// Interpret reconstructs a production graph from a feasible solution:
// one canonical node per active recipe and purchased raw material,
// proportional input edges, cycle-severing references, and one target
// root per configured target. Returns nil when any target has no root.
func Interpret(cat *catalog.Catalog, config *models.PlannerConfig, ctx solver.EfficiencyContext, sol *Solution) []*models.ProductionNode {
	it := &interpreter{
		cat:       cat,
		ctx:       ctx,
		sol:       sol,
		flows:     make(map[string]*itemFlow),
		recipes:   make(map[*models.ProductionNode]*models.Recipe),
		byItem:    make(map[string][]*models.ProductionNode),
		rawNodes:  make(map[string]*models.ProductionNode),
		available: make(map[string]float64),
		deps:      make(map[*models.ProductionNode]map[*models.ProductionNode]bool),
	}
	for _, r := range config.AvailableResources {
		it.available[cat.Resolve(r.Item)] += r.Rate
	}

	it.buildProductionNodes()
	it.buildRawNodes()
	it.link()
	it.finalizeEdges()
	return it.roots(config)
}

func (it *interpreter) flow(itemID string) *itemFlow {
	f := it.flows[itemID]
	if f == nil {
		f = &itemFlow{}
		it.flows[itemID] = f
	}
	return f
}

func (it *interpreter) buildProductionNodes() {
	for _, recipe := range it.cat.Recipes() {
		activation := it.sol.RecipeActivations[recipe.ID]
		if activation <= solver.Epsilon {
			continue
		}
		primary := recipe.PrimaryOutput()
		if primary == nil {
			continue
		}
		device := it.cat.Device(recipe.DeviceName())
		furnace := it.cat.ParentFurnace(device)
		primaryID := it.cat.OutputID(primary)
		machines := solver.MachineCount(activation, recipe, device, it.ctx)

		node := &models.ProductionNode{
			Kind:        models.KindProduction,
			ID:          primaryID + "-prod-" + recipe.ID,
			ItemName:    it.cat.ItemName(primaryID),
			Rate:        activation * solver.OutputPerActivation(primary, recipe.DeviceName(), it.ctx),
			RecipeID:    recipe.ID,
			DeviceCount: machines,
			BeltLimit:   it.ctx.BeltLimit,
		}
		if device != nil {
			node.DeviceID = device.ID
		}
		if device.ConsumesHeat() {
			node.HeatConsumption = solver.HeatPerMinute(device, furnace, machines, it.ctx)
			if furnace != nil {
				node.ParentFurnaceID = furnace.ID
				node.ParentFurnaceCount = solver.FurnacesNeeded(machines, device, furnace)
			}
		}
		if it.ctx.BeltLimit > 0 && node.Rate > it.ctx.BeltLimit+solver.Epsilon {
			node.IsBeltSaturated = true
		}

		for i := range recipe.Outputs {
			out := &recipe.Outputs[i]
			outID := it.cat.OutputID(out)
			amount := activation * solver.OutputPerActivation(out, recipe.DeviceName(), it.ctx)
			f := it.flow(outID)
			f.produced += amount
			f.sources = append(f.sources, flowSource{node: node, rate: amount})
			if i > 0 {
				node.Byproducts = append(node.Byproducts, models.Byproduct{
					ItemName: it.cat.ItemName(outID),
					Rate:     amount,
				})
			}
		}

		it.nodes = append(it.nodes, node)
		it.recipes[node] = recipe
		it.byItem[primaryID] = append(it.byItem[primaryID], node)
	}
}

func (it *interpreter) buildRawNodes() {
	itemIDs := make([]string, 0, len(it.sol.RawPurchases))
	for id := range it.sol.RawPurchases {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)
	for _, itemID := range itemIDs {
		rate := it.sol.RawPurchases[itemID]
		if rate <= solver.Epsilon {
			continue
		}
		node := &models.ProductionNode{
			Kind:      models.KindRawSupply,
			ID:        itemID + "-raw",
			ItemName:  it.cat.ItemName(itemID),
			Rate:      rate,
			IsRaw:     true,
			BeltLimit: it.ctx.BeltLimit,
		}
		if it.ctx.BeltLimit > 0 && rate > it.ctx.BeltLimit+solver.Epsilon {
			node.IsBeltSaturated = true
		}
		it.rawNodes[itemID] = node
	}
}

// consumptions lists everything one node's recipe pulls per minute,
// including the fuel and fertilizer its device burns.
func (it *interpreter) consumptions(node *models.ProductionNode, recipe *models.Recipe) []consumption {
	activation := it.sol.RecipeActivations[recipe.ID]
	device := it.cat.Device(recipe.DeviceName())
	isNursery := device.IsNursery()

	var out []consumption
	for i := range recipe.Inputs {
		in := &recipe.Inputs[i]
		inputID := it.cat.InputID(in)
		if isNursery && it.cat.Item(inputID).IsSeed() {
			continue
		}
		out = append(out, consumption{itemID: inputID, rate: activation * in.Count})
	}
	if isNursery && it.ctx.SelectedFertilizer != "" {
		if primary := recipe.PrimaryOutput(); primary != nil {
			fertID := it.cat.Resolve(it.ctx.SelectedFertilizer)
			rate := activation * solver.FertilizerPerActivation(
				primary.EffectiveCount(), it.cat.Item(it.cat.OutputID(primary)), it.cat.Item(fertID), it.ctx)
			if rate > solver.Epsilon {
				out = append(out, consumption{itemID: fertID, rate: rate})
			}
		}
	}
	if device.ConsumesHeat() {
		fuelID := it.cat.Resolve(it.ctx.SelectedFuel)
		heat := solver.HeatPerActivation(device, it.cat.ParentFurnace(device), recipe.Time)
		rate := activation * solver.FuelPerActivation(heat, it.cat.Item(fuelID), it.ctx)
		if rate > solver.Epsilon {
			out = append(out, consumption{itemID: fuelID, rate: rate})
		}
	}
	return out
}

func (it *interpreter) link() {
	for _, node := range it.nodes {
		for _, c := range it.consumptions(node, it.recipes[node]) {
			it.linkConsumption(node, c)
		}
	}
}

// linkConsumption attaches input edges for one item demand, splitting it
// across producers, raw supply, and pre-supplied stock in proportion to
// their shares of total supply. Pre-supplied stock absorbs its share
// without an edge.
func (it *interpreter) linkConsumption(node *models.ProductionNode, c consumption) {
	f := it.flow(c.itemID)
	f.consumed += c.rate

	raw := it.rawNodes[c.itemID]
	total := it.available[c.itemID]
	for _, src := range f.sources {
		total += src.rate
	}
	if raw != nil {
		total += raw.Rate
	}
	if total <= solver.Epsilon {
		return
	}

	for _, src := range f.sources {
		edgeRate := c.rate * src.rate / total
		if edgeRate <= solver.Epsilon {
			continue
		}
		if src.node == node || it.deps[src.node][node] {
			// Cycle: keep the flow visible but sever expansion, and keep
			// the edge out of the dependency sets so sibling links are
			// not flagged as cyclic too.
			node.Inputs = append(node.Inputs, &models.ProductionNode{
				Kind:     models.KindConsumptionRef,
				ID:       src.node.ID,
				ItemName: src.node.ItemName,
				Rate:     edgeRate,
				RecipeID: src.node.RecipeID,
				DeviceID: src.node.DeviceID,
				Source:   src.node,
			})
			continue
		}
		node.Inputs = append(node.Inputs, it.edgeCopy(src.node, edgeRate))
		it.addDep(node, src.node)
	}

	if raw != nil {
		edgeRate := c.rate * raw.Rate / total
		if edgeRate > solver.Epsilon {
			node.Inputs = append(node.Inputs, it.edgeCopy(raw, edgeRate))
		}
	}
}

// edgeCopy clones a canonical node for one consuming edge. The clone
// carries the edge's rate; its input list is filled in by finalizeEdges
// once every canonical node has been linked.
func (it *interpreter) edgeCopy(src *models.ProductionNode, rate float64) *models.ProductionNode {
	clone := *src
	clone.Rate = rate
	clone.Inputs = nil
	clone.Source = src
	it.edgeCopies = append(it.edgeCopies, &clone)
	return &clone
}

// addDep records that a depends on b, transitively: everything b depends
// on, and every node already depending on a, learns about the new edge.
func (it *interpreter) addDep(a, b *models.ProductionNode) {
	gained := []*models.ProductionNode{b}
	for d := range it.deps[b] {
		gained = append(gained, d)
	}
	affected := []*models.ProductionNode{a}
	for n, set := range it.deps {
		if set[a] {
			affected = append(affected, n)
		}
	}
	for _, n := range affected {
		if it.deps[n] == nil {
			it.deps[n] = make(map[*models.ProductionNode]bool)
		}
		for _, g := range gained {
			it.deps[n][g] = true
		}
	}
}

func (it *interpreter) finalizeEdges() {
	for _, clone := range it.edgeCopies {
		clone.Inputs = clone.Source.Inputs
	}
}

// roots wraps one node per configured target. A target without any
// production node falls back to its raw-supply node; a target with
// neither fails the whole plan.
func (it *interpreter) roots(config *models.PlannerConfig) []*models.ProductionNode {
	var roots []*models.ProductionNode
	for _, t := range config.Targets {
		itemID := it.cat.Resolve(t.Item)
		f := it.flows[itemID]
		net := 0.0
		if f != nil {
			net = f.produced - f.consumed
		}

		if prods := it.byItem[itemID]; len(prods) > 0 {
			for _, p := range prods {
				root := *p
				root.Kind = models.KindTarget
				root.NetOutputRate = net
				root.Source = p
				roots = append(roots, &root)
			}
			continue
		}
		raw := it.rawNodes[itemID]
		if raw == nil {
			return nil
		}
		root := *raw
		root.Kind = models.KindTarget
		root.NetOutputRate = raw.Rate + net
		root.Source = raw
		roots = append(roots, &root)
	}
	return roots
}
