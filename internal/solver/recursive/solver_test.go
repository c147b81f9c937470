package recursive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexveil/chainplan/internal/catalog"
	"github.com/hexveil/chainplan/internal/models"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("../../../data")
	require.NoError(t, err)
	return cat
}

func findInput(node *models.ProductionNode, itemName string) *models.ProductionNode {
	for _, in := range node.Inputs {
		if in.ItemName == itemName {
			return in
		}
	}
	return nil
}

func TestPlanSimpleChain(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets: []models.RateSpec{{Item: "Plank", Rate: 10}},
	})
	require.NoError(t, err)
	require.Len(t, roots, 1)

	plank := roots[0]
	assert.Equal(t, models.KindTarget, plank.Kind)
	assert.InDelta(t, 10, plank.Rate, 1e-6)
	assert.InDelta(t, 1.0/3, plank.DeviceCount, 1e-6)

	logs := findInput(plank, "Logs")
	require.NotNil(t, logs)
	assert.True(t, logs.IsRaw)
	assert.InDelta(t, 10, logs.Rate, 1e-6)
}

func TestPlanHeatedDeviceAddsFuel(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets:      []models.RateSpec{{Item: "Plant Ash", Rate: 20}},
		SelectedFuel: "Coal",
	})
	require.NoError(t, err)
	require.Len(t, roots, 1)

	ash := roots[0]
	// 3s activations: 20/min needs one crucible, drawing 5 heat/s.
	assert.InDelta(t, 1, ash.DeviceCount, 1e-6)
	assert.InDelta(t, 300, ash.HeatConsumption, 1e-6)
	assert.Equal(t, "stone-furnace", ash.ParentFurnaceID)
	assert.InDelta(t, 1, ash.ParentFurnaceCount, 1e-6)

	coal := findInput(ash, "Coal")
	require.NotNil(t, coal)
	assert.True(t, coal.IsRaw)
	assert.InDelta(t, 20*15.0/540, coal.Rate, 1e-6)
}

func TestPlanDeductsSharedPool(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets:            []models.RateSpec{{Item: "Plank", Rate: 10}},
		AvailableResources: []models.RateSpec{{Item: "Plank", Rate: 4}},
	})
	require.NoError(t, err)

	plank := roots[0]
	// Stock covers 4/min, machines are sized for the remaining 6/min.
	assert.InDelta(t, 10, plank.Rate, 1e-6)
	assert.InDelta(t, 4, plank.SuppliedRate, 1e-6)
	assert.InDelta(t, 6*2.0/60, plank.DeviceCount, 1e-6)

	logs := findInput(plank, "Logs")
	require.NotNil(t, logs)
	assert.InDelta(t, 6, logs.Rate, 1e-6)
}

func TestPlanPoolSharedAcrossTargets(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets: []models.RateSpec{
			{Item: "Plank", Rate: 10},
			{Item: "Plant Ash", Rate: 10},
		},
		AvailableResources: []models.RateSpec{{Item: "Logs", Rate: 100}},
		SelectedFuel:       "Coal",
	})
	require.NoError(t, err)
	require.Len(t, roots, 2)

	// 100 logs of stock: the first tree takes 10, the second the rest.
	first := findInput(roots[0], "Logs")
	require.NotNil(t, first)
	assert.InDelta(t, 10, first.SuppliedRate, 1e-6)
	second := findInput(roots[1], "Logs")
	require.NotNil(t, second)
	assert.InDelta(t, 10, second.SuppliedRate, 1e-6)
}

func TestPlanCycleTerminates(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets: []models.RateSpec{
			{Item: "Basic Fertilizer", Rate: 10},
			{Item: "Plank", Rate: 10},
		},
		SelectedFuel:       "Plank",
		SelectedFertilizer: "Basic Fertilizer",
	})
	require.NoError(t, err)
	require.Len(t, roots, 2)

	// The fertilizer→sage→fertilizer loop must terminate in a flat
	// terminal node, so the whole forest marshals without recursing.
	data, err := json.Marshal(roots)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestPlanNurserySkipsSeeds(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets:            []models.RateSpec{{Item: "Flax", Rate: 6000}},
		SelectedFertilizer: "Basic Fertilizer",
	})
	require.NoError(t, err)

	flax := roots[0]
	assert.InDelta(t, 200, flax.DeviceCount, 1e-4)
	assert.Nil(t, findInput(flax, "Flax Seeds"))

	fert := findInput(flax, "Basic Fertilizer")
	require.NotNil(t, fert)
	assert.InDelta(t, 1000, fert.Rate, 1e-3)
}

func TestPlanRawSupplySaturatesBelt(t *testing.T) {
	planner := New(testCatalog(t))
	roots, err := planner.Plan(&models.PlannerConfig{
		Targets: []models.RateSpec{{Item: "Plank", Rate: 100}},
	})
	require.NoError(t, err)
	require.Len(t, roots, 1)

	// 100 logs/min against a 60/min belt: raw edges carry the limit
	// and the saturation flag just like production nodes.
	logs := findInput(roots[0], "Logs")
	require.NotNil(t, logs)
	assert.True(t, logs.IsRaw)
	assert.InDelta(t, 60, logs.BeltLimit, 1e-6)
	assert.True(t, logs.IsBeltSaturated)
}
