package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// RateSpec ties an item reference (canonical id or display name) to a rate
// in items per minute.
type RateSpec struct {
	Item string  `json:"item"`
	Rate float64 `json:"rate"`
}

// PlannerConfig is the full input of one planning run: what to make, what
// is already supplied, and the player's research levels. The planner never
// reads ambient state; everything that affects the plan is in here.
type PlannerConfig struct {
	Targets            []RateSpec `json:"targets"`
	AvailableResources []RateSpec `json:"available_resources,omitempty"`

	FactoryEfficiency    int `json:"factory_efficiency"`
	AlchemySkill         int `json:"alchemy_skill"`
	FuelEfficiency       int `json:"fuel_efficiency"`
	LogisticsEfficiency  int `json:"logistics_efficiency"`
	FertilizerEfficiency int `json:"fertilizer_efficiency"`
	ThrowingEfficiency   int `json:"throwing_efficiency"`
	SalesAbility         int `json:"sales_ability"`
	NegotiationSkill     int `json:"negotiation_skill"`
	CustomerMgmt         int `json:"customer_mgmt"`
	RelicKnowledge       int `json:"relic_knowledge"`

	SelectedFuel       string `json:"selected_fuel,omitempty"`
	SelectedFertilizer string `json:"selected_fertilizer,omitempty"`
}

// LoadPlannerConfig loads a planner configuration from a JSON file.
func LoadPlannerConfig(path string) (*PlannerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &PlannerConfig{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// ValidatePlannerConfig checks the parts of a config that cannot degrade
// gracefully. Unknown item references are fine (they become raw
// materials); negative rates and skill levels are not.
func ValidatePlannerConfig(c *PlannerConfig) error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config has no targets")
	}
	for _, t := range c.Targets {
		if t.Item == "" {
			return fmt.Errorf("target with empty item reference")
		}
		if t.Rate <= 0 {
			return fmt.Errorf("target %q has non-positive rate %v", t.Item, t.Rate)
		}
	}
	for _, r := range c.AvailableResources {
		if r.Rate < 0 {
			return fmt.Errorf("available resource %q has negative rate %v", r.Item, r.Rate)
		}
	}
	for name, level := range map[string]int{
		"factory_efficiency":    c.FactoryEfficiency,
		"alchemy_skill":         c.AlchemySkill,
		"fuel_efficiency":       c.FuelEfficiency,
		"logistics_efficiency":  c.LogisticsEfficiency,
		"fertilizer_efficiency": c.FertilizerEfficiency,
		"throwing_efficiency":   c.ThrowingEfficiency,
		"sales_ability":         c.SalesAbility,
		"negotiation_skill":     c.NegotiationSkill,
		"customer_mgmt":         c.CustomerMgmt,
		"relic_knowledge":       c.RelicKnowledge,
	} {
		if level < 0 {
			return fmt.Errorf("skill %s has negative level %d", name, level)
		}
	}
	return nil
}
