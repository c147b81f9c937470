package solver

import (
	"math"

	"github.com/hexveil/chainplan/internal/models"
)

// OutputPerActivation is the amount of one output produced by a single
// recipe activation, with probabilistic yield folded in and the alchemy
// bonus applied when the device qualifies.
func OutputPerActivation(out *models.RecipeOutput, deviceName string, ctx EfficiencyContext) float64 {
	bonus := 1.0
	if models.IsAlchemyDevice(deviceName) {
		bonus = ctx.AlchemyMultiplier
	}
	return out.EffectiveCount() * bonus
}

// HeatDrawPerSecond is the heat a running device pulls per second: its own
// draw plus a pro-rated share of its parent furnace's idle draw. The share
// is the fraction of the furnace's slots this device occupies.
func HeatDrawPerSecond(device, furnace *models.Device) float64 {
	if !device.ConsumesHeat() {
		return 0
	}
	draw := device.HeatConsumingSpeed
	if furnace != nil && furnace.HeatSelf > 0 {
		draw += furnace.HeatSelf * furnaceShare(device, furnace)
	}
	return draw
}

// HeatPerActivation is the heat one recipe activation costs. Research
// speeds up the device and shortens the activation by the same factor, so
// the speed multiplier cancels and the cost depends only on recipe time.
func HeatPerActivation(device, furnace *models.Device, recipeTime float64) float64 {
	return HeatDrawPerSecond(device, furnace) * recipeTime
}

// FuelPerActivation converts a heat cost into units of the selected fuel.
// Returns 0 when the fuel has no heat value (the term is skipped rather
// than poisoning the model with a division by zero).
func FuelPerActivation(heatPerActivation float64, fuel *models.Item, ctx EfficiencyContext) float64 {
	if fuel == nil || fuel.HeatValue <= 0 {
		return 0
	}
	return heatPerActivation / (fuel.HeatValue * ctx.FuelMultiplier)
}

// FertilizerPerActivation is the fertilizer one nursery activation
// consumes. Nutrients are required per output unit, not per growth cycle:
// fertilizer quality changes delivery speed, never the total requirement,
// so only the nutrient value (and the fertilizer skill) divides here.
func FertilizerPerActivation(outputCount float64, plant, fertilizer *models.Item, ctx EfficiencyContext) float64 {
	if plant == nil || fertilizer == nil {
		return 0
	}
	if plant.RequiredNutrients <= 0 || fertilizer.NutrientValue <= 0 {
		return 0
	}
	return outputCount * plant.RequiredNutrients / (fertilizer.NutrientValue * ctx.FertilizerMultiplier)
}

// EffectiveTime is the wall-clock seconds one activation takes. Nursery
// growth is intentionally not sped up by research; everything else is.
func EffectiveTime(recipe *models.Recipe, device *models.Device, ctx EfficiencyContext) float64 {
	t := recipe.Time
	if t <= 0 {
		t = 1
	}
	if device.IsNursery() {
		return t
	}
	if ctx.SpeedMultiplier > 0 {
		return t / ctx.SpeedMultiplier
	}
	return t
}

// MachineCount is the number of device instances needed to sustain the
// given activation rate (activations per minute).
func MachineCount(activationRate float64, recipe *models.Recipe, device *models.Device, ctx EfficiencyContext) float64 {
	return activationRate * EffectiveTime(recipe, device, ctx) / 60
}

// HeatPerMinute is the displayed heat draw of machineCount running
// devices, in heat units per minute.
func HeatPerMinute(device, furnace *models.Device, machineCount float64, ctx EfficiencyContext) float64 {
	return HeatDrawPerSecond(device, furnace) * 60 * ctx.SpeedMultiplier * machineCount
}

// FurnacesNeeded is the number of parent furnaces hosting machineCount
// devices, rounded up. A small epsilon is subtracted before the ceiling so
// an exact slot boundary does not round to one furnace too many.
func FurnacesNeeded(machineCount float64, device, furnace *models.Device) float64 {
	if furnace == nil {
		return 0
	}
	perFurnace := 1 / furnaceShare(device, furnace)
	return math.Ceil(machineCount/perFurnace - 1e-9)
}

// furnaceShare is the fraction of a furnace one device instance occupies.
func furnaceShare(device, furnace *models.Device) float64 {
	required := device.SlotsRequired
	if required <= 0 {
		required = 1
	}
	slots := furnace.Slots
	if slots <= 0 {
		slots = 1
	}
	return required / slots
}
