package solver

import (
	"testing"

	"github.com/hexveil/chainplan/internal/models"
)

func TestMergePlanFoldsCopies(t *testing.T) {
	logs := &models.ProductionNode{
		Kind: models.KindRawSupply, ID: "logs-raw", ItemName: "Logs", Rate: 30, IsRaw: true,
	}
	plank := &models.ProductionNode{
		Kind: models.KindProduction, ID: "plank-prod-plank", ItemName: "Plank",
		Rate: 30, RecipeID: "plank", DeviceID: "table-saw", DeviceCount: 1,
	}
	logsEdge := &models.ProductionNode{
		Kind: models.KindRawSupply, ID: logs.ID, ItemName: "Logs", Rate: 30, IsRaw: true, Source: logs,
	}
	plank.Inputs = []*models.ProductionNode{logsEdge}

	fert := &models.ProductionNode{
		Kind: models.KindProduction, ID: "fert-prod-fert", ItemName: "Basic Fertilizer",
		Rate: 10, RecipeID: "fert", DeviceID: "assembler", DeviceCount: 0.5,
	}
	plankEdge := &models.ProductionNode{
		Kind: models.KindProduction, ID: plank.ID, ItemName: "Plank", Rate: 20,
		Source: plank, Inputs: plank.Inputs,
	}
	selfRef := &models.ProductionNode{
		Kind: models.KindConsumptionRef, ID: fert.ID, ItemName: "Basic Fertilizer",
		Rate: 1, Source: fert,
	}
	fert.Inputs = []*models.ProductionNode{plankEdge, selfRef}

	fertRoot := &models.ProductionNode{
		Kind: models.KindTarget, ID: fert.ID, ItemName: "Basic Fertilizer",
		Rate: 10, NetOutputRate: 9, Source: fert, Inputs: fert.Inputs,
	}
	plankRoot := &models.ProductionNode{
		Kind: models.KindTarget, ID: plank.ID, ItemName: "Plank",
		Rate: 30, NetOutputRate: 10, Source: plank, Inputs: plank.Inputs,
	}

	merged := MergePlan([]*models.ProductionNode{fertRoot, plankRoot})

	byKey := make(map[string]*MergedNode)
	for _, m := range merged {
		byKey[m.Key] = m
	}
	if len(merged) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(merged), merged)
	}

	fm := byKey["fert-prod-fert"]
	if fm == nil || !almost(fm.Rate, 10) || !almost(fm.ConsumedRate, 1) || !almost(fm.NetOutputRate, 9) {
		t.Errorf("fertilizer row: %+v", fm)
	}
	pm := byKey["plank-prod-plank"]
	if pm == nil || !almost(pm.Rate, 30) || !almost(pm.ConsumedRate, 20) || !almost(pm.DeviceCount, 1) {
		t.Errorf("plank row: %+v", pm)
	}
	lm := byKey["logs-raw"]
	if lm == nil || !almost(lm.Rate, 30) || !lm.IsRaw {
		t.Errorf("logs row: %+v", lm)
	}
	// The plank subtree is shared by both roots; its totals must not double.
	if !almost(lm.ConsumedRate, 30) {
		t.Errorf("logs consumed = %v, want 30 (edge counted once)", lm.ConsumedRate)
	}
}

func TestMergePlanSumsIndependentSubtrees(t *testing.T) {
	// The recursive planner gives every consumer its own leaf; merging
	// folds same-key leaves by summing their rates.
	mk := func(rate float64) *models.ProductionNode {
		return &models.ProductionNode{
			Kind: models.KindRawSupply, ID: "logs-raw", ItemName: "Logs", Rate: rate, IsRaw: true,
		}
	}
	a := &models.ProductionNode{
		Kind: models.KindTarget, ID: "plank-prod-plank", ItemName: "Plank", Rate: 10,
		Inputs: []*models.ProductionNode{mk(10)},
	}
	b := &models.ProductionNode{
		Kind: models.KindTarget, ID: "ash-prod-ash", ItemName: "Plant Ash", Rate: 5,
		Inputs: []*models.ProductionNode{mk(5)},
	}

	merged := MergePlan([]*models.ProductionNode{a, b})
	for _, m := range merged {
		if m.Key == "logs-raw" && !almost(m.Rate, 15) {
			t.Errorf("logs rate = %v, want 15", m.Rate)
		}
	}
}
