package solver

import "github.com/hexveil/chainplan/internal/models"

// MergedNode is one row of the flattened plan view: every occurrence of
// the same producer across all target trees folded together.
type MergedNode struct {
	Key                string
	ItemName           string
	Kind               models.NodeKind
	IsRaw              bool
	Rate               float64
	NetOutputRate      float64
	ConsumedRate       float64
	DeviceID           string
	DeviceCount        float64
	HeatConsumption    float64
	ParentFurnaceID    string
	ParentFurnaceCount float64
}

// MergePlan flattens a plan forest for tabular display. Nodes merge by
// Key; copies of the same canonical node contribute their totals only
// once, while every consuming edge (cycle references included) adds to
// the merged ConsumedRate. Rows come out in first-visit order so the
// output is deterministic.
func MergePlan(roots []*models.ProductionNode) []*MergedNode {
	byKey := make(map[string]*MergedNode)
	seen := make(map[*models.ProductionNode]bool)
	var order []*MergedNode

	var walk func(n *models.ProductionNode)
	walk = func(n *models.ProductionNode) {
		c := n.Canonical()
		m := byKey[c.Key()]
		if m == nil {
			m = &MergedNode{
				Key:      c.Key(),
				ItemName: c.ItemName,
				Kind:     c.Kind,
				IsRaw:    c.IsRaw,
			}
			byKey[c.Key()] = m
			order = append(order, m)
		}

		if n.Kind == models.KindConsumptionRef || (n.Source != nil && n.Kind != models.KindTarget) {
			m.ConsumedRate += n.Rate
		}
		if n.Kind == models.KindTarget {
			m.NetOutputRate = n.NetOutputRate
		}
		// References carry flow only; expansion happens where the
		// producer appears as a real edge.
		if n.Kind == models.KindConsumptionRef {
			return
		}

		if seen[c] {
			return
		}
		seen[c] = true
		m.Rate += c.Rate
		m.DeviceCount += c.DeviceCount
		m.HeatConsumption += c.HeatConsumption
		m.ParentFurnaceCount += c.ParentFurnaceCount
		m.DeviceID = c.DeviceID
		m.ParentFurnaceID = c.ParentFurnaceID

		for _, in := range c.Inputs {
			walk(in)
		}
	}

	for _, root := range roots {
		walk(root)
	}
	return order
}
