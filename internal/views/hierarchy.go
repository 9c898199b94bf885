package views

import "spendboard/internal/core"

// RootName labels the synthetic root of the two-level hierarchy.
const RootName = "Spend"

// Node is one element of a category tree. Value is the node's total: for
// inner nodes it equals the sum of their children.
type Node struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Children []Node  `json:"children,omitempty"`
}

// Hierarchy3 groups records by Level1, Level2 and Level3 and returns the
// Level1 nodes. An empty Level3 still forms a leaf, named "".
func Hierarchy3(records []core.SpendRecord) []Node {
	t := newTallies()
	for _, r := range records {
		t.add(r.Amount, r.Level1, r.Level2, r.Level3)
	}
	return t.nodes()
}

// Hierarchy2 groups records by Level1 and Level2 under a single root named
// RootName.
func Hierarchy2(records []core.SpendRecord) Node {
	t := newTallies()
	var total core.Decimal
	for _, r := range records {
		t.add(r.Amount, r.Level1, r.Level2)
		total = total.AddFloat(r.Amount)
	}
	return Node{Name: RootName, Value: total.Float64(), Children: t.nodes()}
}

// leaves returns the leaf nodes of trees in depth-first order.
func leaves(trees []Node) []Node {
	var out []Node
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			if len(n.Children) == 0 {
				out = append(out, n)
				continue
			}
			walk(n.Children)
		}
	}
	walk(trees)
	return out
}
