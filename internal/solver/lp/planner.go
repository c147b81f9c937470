package lp

import (
	"fmt"
	"log/slog"

	"github.com/hexveil/chainplan/internal/catalog"
	"github.com/hexveil/chainplan/internal/models"
	"github.com/hexveil/chainplan/internal/solver"
)

// Planner plans production chains over a shared read-only catalog. It is
// safe for concurrent use; every Plan call builds its own model and
// interpreter state.
type Planner struct {
	cat *catalog.Catalog
	log *slog.Logger
}

// New returns a planner over the given catalog, logging through the
// default slog handler.
func New(cat *catalog.Catalog) *Planner {
	return NewWithLogger(cat, slog.Default())
}

// NewWithLogger returns a planner with an explicit logger.
func NewWithLogger(cat *catalog.Catalog, log *slog.Logger) *Planner {
	return &Planner{cat: cat, log: log.With("planner", "lp")}
}

// Plan solves the production chain for the configured targets and
// returns one tree root per target. An unsatisfiable model yields an
// empty plan with a logged diagnostic; errors are reserved for solver
// failures.
func (p *Planner) Plan(config *models.PlannerConfig) ([]*models.ProductionNode, error) {
	if err := models.ValidatePlannerConfig(config); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}

	ctx := solver.BuildEfficiencyContext(config)
	model := BuildModel(p.cat, config, ctx)
	sol, err := SolveModel(model)
	if err != nil {
		return nil, err
	}
	if !sol.Feasible {
		p.log.Warn("model is unsatisfiable, returning empty plan",
			"targets", len(config.Targets), "variables", len(model.Vars))
		return []*models.ProductionNode{}, nil
	}

	nodes := Interpret(p.cat, config, ctx, sol)
	if nodes == nil {
		p.log.Warn("no production root found for a target, returning empty plan",
			"targets", len(config.Targets))
		return []*models.ProductionNode{}, nil
	}
	p.log.Debug("plan solved", "roots", len(nodes), "cost", sol.Cost)
	return nodes, nil
}
