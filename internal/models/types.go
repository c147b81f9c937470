package models

import "strings"

// DeviceCategory groups devices by their role in the factory.
type DeviceCategory string

const (
	CategoryHeating    DeviceCategory = "heating"
	CategoryFarming    DeviceCategory = "farming"
	CategoryProcessing DeviceCategory = "processing"
	CategoryAlchemy    DeviceCategory = "alchemy"
)

// NurseryDeviceName identifies the plant-growing device class. Nursery
// recipes consume fertilizer-derived nutrients instead of their listed
// seed inputs.
const NurseryDeviceName = "nursery"

// AlchemyDeviceNames lists the devices whose outputs scale with the
// alchemy skill. Matched against the lowercased crafted_in name.
var AlchemyDeviceNames = []string{
	"extractor",
	"thermal extractor",
	"alembic",
	"advanced alembic",
}

// IsAlchemyDevice reports whether a device name is on the alchemy bonus list.
func IsAlchemyDevice(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range AlchemyDeviceNames {
		if n == lower {
			return true
		}
	}
	return false
}

// Item is a catalog entry: anything that flows on a belt. All numeric
// attributes are optional; zero means the attribute is absent.
type Item struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Category           []string `json:"category"`
	Cost               float64  `json:"cost,omitempty"`
	BaseCost           float64  `json:"base_cost,omitempty"`
	Price              float64  `json:"price,omitempty"`
	HeatValue          float64  `json:"heat_value,omitempty"`
	NutrientValue      float64  `json:"nutrient_value,omitempty"`
	NutrientsPerSecond float64  `json:"nutrients_per_seconds,omitempty"`
	RequiredNutrients  float64  `json:"required_nutrients,omitempty"`
}

// UnitCost returns the purchase cost used by the raw-material objective.
// Items without a declared cost fall back to a large default so the solver
// prefers priced materials.
func (i *Item) UnitCost() float64 {
	if i == nil {
		return DefaultRawCost
	}
	if i.Cost > 0 {
		return i.Cost
	}
	if i.BaseCost > 0 {
		return i.BaseCost
	}
	return DefaultRawCost
}

// IsSeed reports whether the item is a seed by display name convention.
func (i *Item) IsSeed() bool {
	return i != nil && strings.HasSuffix(strings.ToLower(i.Name), " seeds")
}

// DefaultRawCost is charged for raw materials with no declared cost.
const DefaultRawCost = 1000

// Device is a machine that runs recipes. Heat-consuming devices are
// installed into a parent furnace; SlotsRequired of the furnace's Slots
// are occupied per device instance, and the furnace's own idle draw
// (HeatSelf) is pro-rated across the devices it hosts.
type Device struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Category           DeviceCategory `json:"category"`
	HeatConsumingSpeed float64        `json:"heat_consuming_speed,omitempty"`
	HeatSelf           float64        `json:"heat_self,omitempty"`
	Parent             string         `json:"parent,omitempty"`
	Slots              float64        `json:"slots,omitempty"`
	SlotsRequired      float64        `json:"slots_required,omitempty"`
}

// ConsumesHeat reports whether the device draws heat while active.
// Heater-class devices produce heat rather than consume it.
func (d *Device) ConsumesHeat() bool {
	return d != nil && d.HeatConsumingSpeed > 0 && d.Category != CategoryHeating
}

// IsNursery reports whether the device grows plants.
func (d *Device) IsNursery() bool {
	return d != nil && strings.ToLower(d.Name) == NurseryDeviceName
}

// RecipeInput is one ingredient consumed per activation.
type RecipeInput struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

// RecipeOutput is one product made per activation. Percentage below 100
// marks a probabilistic yield.
type RecipeOutput struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Count      float64 `json:"count"`
	Percentage float64 `json:"percentage,omitempty"`
}

// EffectiveCount folds the probabilistic yield into the count.
func (o *RecipeOutput) EffectiveCount() float64 {
	pct := o.Percentage
	if pct <= 0 {
		pct = 100
	}
	return o.Count * pct / 100
}

// Recipe describes one craftable transformation. The first output is the
// primary product and names the production node built for the recipe;
// later outputs are byproducts.
type Recipe struct {
	ID        string         `json:"id"`
	Inputs    []RecipeInput  `json:"inputs"`
	Outputs   []RecipeOutput `json:"outputs"`
	Time      float64        `json:"time"`
	CraftedIn string         `json:"crafted_in"`
}

// PrimaryOutput returns the first output, or nil for a malformed recipe.
func (r *Recipe) PrimaryOutput() *RecipeOutput {
	if r == nil || len(r.Outputs) == 0 {
		return nil
	}
	return &r.Outputs[0]
}

// DeviceName returns the lowercased crafting device name.
func (r *Recipe) DeviceName() string {
	return strings.ToLower(r.CraftedIn)
}
