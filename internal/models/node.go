package models

// NodeKind discriminates the roles a ProductionNode can play. Each kind
// uses a subset of the node's fields; the zero value is never valid.
type NodeKind string

const (
	// KindProduction is an active recipe running on some number of devices.
	KindProduction NodeKind = "production"
	// KindRawSupply is an externally purchased or gathered material.
	KindRawSupply NodeKind = "raw"
	// KindConsumptionRef marks an edge to a producer consumed as
	// fuel/fertilizer inside a cycle. It carries the consumption rate but
	// never re-expands the producer's input subtree.
	KindConsumptionRef NodeKind = "consumption-ref"
	// KindTarget wraps a root node for a configured target and carries the
	// net output rate alongside the gross production rate.
	KindTarget NodeKind = "target"
)

// Byproduct is a non-primary recipe output attached to a production node.
type Byproduct struct {
	ItemName string  `json:"item_name"`
	Rate     float64 `json:"rate"`
}

// ProductionNode is one node of a solved production graph. Rates are in
// items per minute. Inputs form a tree per target; a node shared by
// several consumers appears once per consuming edge, each copy carrying
// that edge's consumption rate and pointing back at the canonical node
// through Source.
type ProductionNode struct {
	Kind     NodeKind `json:"kind"`
	ID       string   `json:"id,omitempty"`
	ItemName string   `json:"item_name"`
	Rate     float64  `json:"rate"`
	IsRaw    bool     `json:"is_raw"`

	// NetOutputRate is set on target roots: gross production minus what
	// the network consumes internally (fuel/fertilizer cycles).
	NetOutputRate float64 `json:"net_output_rate,omitempty"`

	RecipeID           string  `json:"recipe_id,omitempty"`
	DeviceID           string  `json:"device_id,omitempty"`
	DeviceCount        float64 `json:"device_count"`
	HeatConsumption    float64 `json:"heat_consumption"`
	ParentFurnaceID    string  `json:"parent_furnace_id,omitempty"`
	ParentFurnaceCount float64 `json:"parent_furnace_count,omitempty"`

	// SuppliedRate is the share of Rate covered by pre-supplied resources
	// rather than production.
	SuppliedRate float64 `json:"supplied_rate,omitempty"`

	Inputs     []*ProductionNode `json:"inputs,omitempty"`
	Byproducts []Byproduct       `json:"byproducts,omitempty"`

	IsBeltSaturated bool    `json:"is_belt_saturated,omitempty"`
	BeltLimit       float64 `json:"belt_limit,omitempty"`

	// Source points at the canonical node this copy was made from. Nil on
	// canonical nodes. Excluded from JSON to keep trees acyclic.
	Source *ProductionNode `json:"-"`
}

// Key returns the identity used when merging nodes for display: the
// explicit id when present, the item name otherwise.
func (n *ProductionNode) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.ItemName
}

// Canonical follows Source links to the node this one was copied from.
func (n *ProductionNode) Canonical() *ProductionNode {
	c := n
	for c.Source != nil {
		c = c.Source
	}
	return c
}
