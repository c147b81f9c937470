// Package catalog indexes the knowledge base: items, devices and recipes,
// looked up by canonical id or display name. A Catalog is built once and
// never mutated afterwards, so it is safe to share across concurrent
// planning calls.
package catalog

import (
	"sort"
	"strings"

	"github.com/hexveil/chainplan/internal/loader"
	"github.com/hexveil/chainplan/internal/models"
)

// Catalog holds the pre-built lookup maps over the knowledge base.
type Catalog struct {
	items       map[string]*models.Item
	itemsByName map[string]*models.Item

	devices map[string]*models.Device

	recipes         []*models.Recipe
	recipesByID     map[string]*models.Recipe
	recipesByOutput map[string][]*models.Recipe
}

// New builds a Catalog from loaded catalog records. Recipes are sorted by
// id so that every traversal of the catalog is deterministic.
func New(items []*models.Item, devices []*models.Device, recipes []*models.Recipe) *Catalog {
	c := &Catalog{
		items:           make(map[string]*models.Item, len(items)),
		itemsByName:     make(map[string]*models.Item, len(items)),
		devices:         make(map[string]*models.Device, len(devices)*2),
		recipesByID:     make(map[string]*models.Recipe, len(recipes)),
		recipesByOutput: make(map[string][]*models.Recipe),
	}

	for _, item := range items {
		c.items[strings.ToLower(item.ID)] = item
		c.itemsByName[strings.ToLower(item.Name)] = item
	}

	for _, device := range devices {
		c.devices[strings.ToLower(device.ID)] = device
		c.devices[strings.ToLower(device.Name)] = device
	}

	c.recipes = make([]*models.Recipe, len(recipes))
	copy(c.recipes, recipes)
	sort.Slice(c.recipes, func(i, j int) bool { return c.recipes[i].ID < c.recipes[j].ID })

	for _, recipe := range c.recipes {
		c.recipesByID[recipe.ID] = recipe
		for i := range recipe.Outputs {
			key := c.OutputID(&recipe.Outputs[i])
			c.recipesByOutput[key] = append(c.recipesByOutput[key], recipe)
		}
	}

	return c
}

// Load builds a Catalog straight from a JSON data directory.
func Load(dataDir string) (*Catalog, error) {
	items, err := loader.LoadItems(dataDir)
	if err != nil {
		return nil, err
	}
	devices, err := loader.LoadDevices(dataDir)
	if err != nil {
		return nil, err
	}
	recipes, err := loader.LoadRecipes(dataDir)
	if err != nil {
		return nil, err
	}
	return New(items, devices, recipes), nil
}

// Resolve normalizes an item reference (canonical id or display name) to
// its canonical id. Unknown references resolve to the lowercased input:
// the caller treats such items as unknown raw materials, never an error.
func (c *Catalog) Resolve(ref string) string {
	lower := strings.ToLower(ref)
	if _, ok := c.items[lower]; ok {
		return lower
	}
	if item, ok := c.itemsByName[lower]; ok {
		return item.ID
	}
	return lower
}

// Item returns the item for an id or display name, or nil.
func (c *Catalog) Item(ref string) *models.Item {
	return c.items[c.Resolve(ref)]
}

// ItemName returns the display name for a reference, falling back to the
// reference itself for unknown items.
func (c *Catalog) ItemName(ref string) string {
	if item := c.Item(ref); item != nil {
		return item.Name
	}
	return ref
}

// Device returns the device for an id or display name, or nil.
func (c *Catalog) Device(ref string) *models.Device {
	return c.devices[strings.ToLower(ref)]
}

// ParentFurnace returns the furnace a device is installed into, or nil
// for free-standing devices.
func (c *Catalog) ParentFurnace(device *models.Device) *models.Device {
	if device == nil || device.Parent == "" {
		return nil
	}
	return c.Device(device.Parent)
}

// Recipes returns all recipes in deterministic (id) order.
func (c *Catalog) Recipes() []*models.Recipe {
	return c.recipes
}

// RecipeByID returns the recipe with the given id, or nil.
func (c *Catalog) RecipeByID(id string) *models.Recipe {
	return c.recipesByID[id]
}

// RecipesByOutput returns the recipes producing the given item.
func (c *Catalog) RecipesByOutput(ref string) []*models.Recipe {
	return c.recipesByOutput[c.Resolve(ref)]
}

// HasProducer reports whether any recipe produces the item. Items without
// a producer are raw materials.
func (c *Catalog) HasProducer(ref string) bool {
	return len(c.recipesByOutput[c.Resolve(ref)]) > 0
}

// OutputID returns the canonical item id of a recipe output.
func (c *Catalog) OutputID(out *models.RecipeOutput) string {
	if out.ID != "" {
		return out.ID
	}
	return c.Resolve(out.Name)
}

// InputID returns the canonical item id of a recipe input.
func (c *Catalog) InputID(in *models.RecipeInput) string {
	if in.ID != "" {
		return in.ID
	}
	return c.Resolve(in.Name)
}

// Items returns all items in deterministic (id) order.
func (c *Catalog) Items() []*models.Item {
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	items := make([]*models.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, c.items[id])
	}
	return items
}

// Devices returns all devices in deterministic (id) order.
func (c *Catalog) Devices() []*models.Device {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(c.devices))
	for _, d := range c.devices {
		if !seen[d.ID] {
			seen[d.ID] = true
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	devices := make([]*models.Device, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, c.devices[id])
	}
	return devices
}
