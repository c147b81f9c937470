package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hexveil/chainplan/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store wraps a SQLite database holding a pre-synced catalog. It is an
// alternative source for the knowledge base; the planner itself only ever
// sees the in-memory Catalog built from it.
type Store struct {
	*sql.DB
}

// OpenStore opens (and if needed initializes) a catalog database at the
// given path. ":memory:" creates an in-memory database.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging catalog db: %w", err)
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{DB: db}, nil
}

// Import replaces the stored catalog with the contents of a Catalog.
func (s *Store) Import(ctx context.Context, c *Catalog) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"recipe_inputs", "recipe_outputs", "recipes", "devices", "items"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, item := range c.Items() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, name, category, cost, base_cost, price,
				heat_value, nutrient_value, nutrients_per_seconds, required_nutrients)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Name, strings.Join(item.Category, ","),
			item.Cost, item.BaseCost, item.Price,
			item.HeatValue, item.NutrientValue, item.NutrientsPerSecond, item.RequiredNutrients,
		)
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", item.ID, err)
		}
	}

	for _, device := range c.Devices() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO devices (id, name, category, heat_consuming_speed,
				heat_self, parent, slots, slots_required)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			device.ID, device.Name, string(device.Category), device.HeatConsumingSpeed,
			device.HeatSelf, device.Parent, device.Slots, device.SlotsRequired,
		)
		if err != nil {
			return fmt.Errorf("inserting device %s: %w", device.ID, err)
		}
	}

	for _, recipe := range c.Recipes() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, time, crafted_in) VALUES (?, ?, ?)`,
			recipe.ID, recipe.Time, recipe.CraftedIn,
		); err != nil {
			return fmt.Errorf("inserting recipe %s: %w", recipe.ID, err)
		}
		for i, in := range recipe.Inputs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_inputs (recipe_id, ord, item_id, name, count)
				VALUES (?, ?, ?, ?, ?)`,
				recipe.ID, i, in.ID, in.Name, in.Count,
			); err != nil {
				return fmt.Errorf("inserting inputs of %s: %w", recipe.ID, err)
			}
		}
		for i, out := range recipe.Outputs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_outputs (recipe_id, ord, item_id, name, count, percentage)
				VALUES (?, ?, ?, ?, ?, ?)`,
				recipe.ID, i, out.ID, out.Name, out.Count, out.Percentage,
			); err != nil {
				return fmt.Errorf("inserting outputs of %s: %w", recipe.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

// LoadCatalog reads the stored catalog back into an in-memory Catalog.
func (s *Store) LoadCatalog(ctx context.Context) (*Catalog, error) {
	items, err := s.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := s.loadDevices(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := s.loadRecipes(ctx)
	if err != nil {
		return nil, err
	}
	return New(items, devices, recipes), nil
}

func (s *Store) loadItems(ctx context.Context) ([]*models.Item, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, name, category, cost, base_cost, price,
			heat_value, nutrient_value, nutrients_per_seconds, required_nutrients
		FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		var category string
		if err := rows.Scan(&item.ID, &item.Name, &category, &item.Cost, &item.BaseCost,
			&item.Price, &item.HeatValue, &item.NutrientValue,
			&item.NutrientsPerSecond, &item.RequiredNutrients); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if category != "" {
			item.Category = strings.Split(category, ",")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) loadDevices(ctx context.Context) ([]*models.Device, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, name, category, heat_consuming_speed, heat_self, parent, slots, slots_required
		FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		device := &models.Device{}
		var category string
		if err := rows.Scan(&device.ID, &device.Name, &category, &device.HeatConsumingSpeed,
			&device.HeatSelf, &device.Parent, &device.Slots, &device.SlotsRequired); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		device.Category = models.DeviceCategory(category)
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

func (s *Store) loadRecipes(ctx context.Context) ([]*models.Recipe, error) {
	rows, err := s.QueryContext(ctx, `SELECT id, time, crafted_in FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*models.Recipe)
	var recipes []*models.Recipe
	for rows.Next() {
		recipe := &models.Recipe{}
		if err := rows.Scan(&recipe.ID, &recipe.Time, &recipe.CraftedIn); err != nil {
			return nil, fmt.Errorf("scanning recipe: %w", err)
		}
		byID[recipe.ID] = recipe
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	inRows, err := s.QueryContext(ctx,
		`SELECT recipe_id, item_id, name, count FROM recipe_inputs ORDER BY recipe_id, ord`)
	if err != nil {
		return nil, fmt.Errorf("querying recipe inputs: %w", err)
	}
	defer inRows.Close()
	for inRows.Next() {
		var recipeID string
		var in models.RecipeInput
		if err := inRows.Scan(&recipeID, &in.ID, &in.Name, &in.Count); err != nil {
			return nil, fmt.Errorf("scanning recipe input: %w", err)
		}
		if recipe := byID[recipeID]; recipe != nil {
			recipe.Inputs = append(recipe.Inputs, in)
		}
	}
	if err := inRows.Err(); err != nil {
		return nil, err
	}

	outRows, err := s.QueryContext(ctx,
		`SELECT recipe_id, item_id, name, count, percentage FROM recipe_outputs ORDER BY recipe_id, ord`)
	if err != nil {
		return nil, fmt.Errorf("querying recipe outputs: %w", err)
	}
	defer outRows.Close()
	for outRows.Next() {
		var recipeID string
		var out models.RecipeOutput
		if err := outRows.Scan(&recipeID, &out.ID, &out.Name, &out.Count, &out.Percentage); err != nil {
			return nil, fmt.Errorf("scanning recipe output: %w", err)
		}
		if recipe := byID[recipeID]; recipe != nil {
			recipe.Outputs = append(recipe.Outputs, out)
		}
	}
	return recipes, outRows.Err()
}
