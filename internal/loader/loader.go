// Package loader reads the item, device and recipe catalogs from their
// JSON files. The upstream data dump is loosely typed (counts and
// percentages appear both as numbers and as strings, categories as a
// string or a list), so loading normalizes everything into models types.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hexveil/chainplan/internal/models"
)

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// flexStrings accepts a JSON string or an array of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = []string{single}
	return nil
}

// ItemJSON mirrors one record of items.json.
type ItemJSON struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Category           flexStrings `json:"category"`
	Cost               flexFloat   `json:"cost"`
	BaseCost           flexFloat   `json:"base_cost"`
	Price              flexFloat   `json:"price"`
	HeatValue          flexFloat   `json:"heat_value"`
	NutrientValue      flexFloat   `json:"nutrient_value"`
	NutrientsPerSecond flexFloat   `json:"nutrients_per_seconds"`
	RequiredNutrients  flexFloat   `json:"required_nutrients"`
}

// DeviceJSON mirrors one record of devices.json.
type DeviceJSON struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Category           string    `json:"category"`
	HeatConsumingSpeed flexFloat `json:"heat_consuming_speed"`
	HeatSelf           flexFloat `json:"heat_self"`
	Parent             string    `json:"parent"`
	Slots              flexFloat `json:"slots"`
	SlotsRequired      flexFloat `json:"slots_required"`
}

// RecipeJSON mirrors one record of recipes.json.
type RecipeJSON struct {
	ID     string `json:"id"`
	Inputs []struct {
		ID    string    `json:"id"`
		Name  string    `json:"name"`
		Count flexFloat `json:"count"`
	} `json:"inputs"`
	Outputs []struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Count      flexFloat `json:"count"`
		Percentage flexFloat `json:"percentage"`
	} `json:"outputs"`
	Time      flexFloat `json:"time"`
	CraftedIn string    `json:"crafted_in"`
}

// LoadItems loads items from items.json in the data directory.
func LoadItems(dataDir string) ([]*models.Item, error) {
	filePath := filepath.Join(dataDir, "items.json")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read items.json: %w", err)
	}

	var raw []ItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse items.json: %w", err)
	}

	items := make([]*models.Item, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			return nil, fmt.Errorf("item %q has no id", r.Name)
		}
		items = append(items, &models.Item{
			ID:                 strings.ToLower(r.ID),
			Name:               r.Name,
			Category:           r.Category,
			Cost:               float64(r.Cost),
			BaseCost:           float64(r.BaseCost),
			Price:              float64(r.Price),
			HeatValue:          float64(r.HeatValue),
			NutrientValue:      float64(r.NutrientValue),
			NutrientsPerSecond: float64(r.NutrientsPerSecond),
			RequiredNutrients:  float64(r.RequiredNutrients),
		})
	}
	return items, nil
}

// LoadDevices loads devices from devices.json in the data directory.
func LoadDevices(dataDir string) ([]*models.Device, error) {
	filePath := filepath.Join(dataDir, "devices.json")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read devices.json: %w", err)
	}

	var raw []DeviceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse devices.json: %w", err)
	}

	devices := make([]*models.Device, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			return nil, fmt.Errorf("device %q has no id", r.Name)
		}
		devices = append(devices, &models.Device{
			ID:                 strings.ToLower(r.ID),
			Name:               r.Name,
			Category:           models.DeviceCategory(r.Category),
			HeatConsumingSpeed: float64(r.HeatConsumingSpeed),
			HeatSelf:           float64(r.HeatSelf),
			Parent:             strings.ToLower(r.Parent),
			Slots:              float64(r.Slots),
			SlotsRequired:      float64(r.SlotsRequired),
		})
	}
	return devices, nil
}

// LoadRecipes loads recipes from recipes.json in the data directory.
func LoadRecipes(dataDir string) ([]*models.Recipe, error) {
	filePath := filepath.Join(dataDir, "recipes.json")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipes.json: %w", err)
	}

	var raw []RecipeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse recipes.json: %w", err)
	}

	recipes := make([]*models.Recipe, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			return nil, fmt.Errorf("recipe with no id (crafted_in %q)", r.CraftedIn)
		}
		if len(r.Outputs) == 0 {
			return nil, fmt.Errorf("recipe %q has no outputs", r.ID)
		}
		recipe := &models.Recipe{
			ID:        r.ID,
			Time:      float64(r.Time),
			CraftedIn: r.CraftedIn,
		}
		for _, in := range r.Inputs {
			recipe.Inputs = append(recipe.Inputs, models.RecipeInput{
				ID:    strings.ToLower(in.ID),
				Name:  in.Name,
				Count: float64(in.Count),
			})
		}
		for _, out := range r.Outputs {
			recipe.Outputs = append(recipe.Outputs, models.RecipeOutput{
				ID:         strings.ToLower(out.ID),
				Name:       out.Name,
				Count:      float64(out.Count),
				Percentage: float64(out.Percentage),
			})
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}
