package lp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const simplexTol = 1e-10

// Solution holds the optimal activation and purchase rates of a solved
// model. Feasible is false when the constraints cannot be satisfied.
type Solution struct {
	Feasible          bool
	Cost              float64
	RecipeActivations map[string]float64
	RawPurchases      map[string]float64
}

// SolveModel minimizes total raw-material cost subject to the model's
// minimum-flow constraints. Infeasibility is reported in the Solution,
// not as an error; errors are reserved for solver failures.
func SolveModel(model *Model) (*Solution, error) {
	n := len(model.Vars)
	m := len(model.Constraints)
	if n == 0 || m == 0 {
		return &Solution{Feasible: true}, nil
	}

	// Standard form: each "net flow >= min" row gains a surplus column,
	// giving A = [F | -I] with x >= 0. Recipe and raw variables are
	// naturally non-negative so no variable splitting is needed. Rows
	// with a negative right-hand side are negated to keep b >= 0.
	a := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	c := make([]float64, n+m)

	for j, v := range model.Vars {
		c[j] = v.Cost
	}
	for i, con := range model.Constraints {
		for j, v := range model.Vars {
			a.Set(i, j, v.Coeffs[con.ItemID])
		}
		a.Set(i, n+i, -1)
		b[i] = con.Min
		if b[i] < 0 {
			for j := 0; j < n+m; j++ {
				a.Set(i, j, -a.At(i, j))
			}
			b[i] = -b[i]
		}
	}

	cost, x, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) || errors.Is(err, lp.ErrUnbounded) {
			return &Solution{Feasible: false}, nil
		}
		return nil, fmt.Errorf("simplex failed: %w", err)
	}

	sol := &Solution{
		Feasible:          true,
		Cost:              cost,
		RecipeActivations: make(map[string]float64),
		RawPurchases:      make(map[string]float64),
	}
	for j, v := range model.Vars {
		value := x[j]
		if value < 0 {
			value = 0
		}
		switch v.Kind {
		case VarRecipe:
			sol.RecipeActivations[v.RecipeID] = value
		case VarRaw:
			sol.RawPurchases[v.ItemID] = value
		}
	}
	return sol, nil
}
