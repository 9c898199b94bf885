// Package views reshapes a flat record set into the grouped structures the
// dashboard charts draw: category trees, country breakdowns and a month by
// week calendar.
//
// Every builder is a pure function of its input. Groups come out in the order
// their key was first seen, so repeated runs over the same records produce
// identical output. Sums are accumulated as exact decimals and converted to
// float64 only when the result is assembled.
package views

import "spendboard/internal/core"

// tally is one named group with a running sum and, optionally, subgroups.
type tally struct {
	name     string
	sum      core.Decimal
	children *tallies
}

// tallies keeps groups in first-seen order.
type tallies struct {
	index map[string]int
	list  []*tally
}

func newTallies() *tallies {
	return &tallies{index: make(map[string]int)}
}

// get returns the group for name, creating it at the end when missing.
func (t *tallies) get(name string) *tally {
	if i, ok := t.index[name]; ok {
		return t.list[i]
	}
	g := &tally{name: name}
	t.index[name] = len(t.list)
	t.list = append(t.list, g)
	return g
}

// add sums amount into each group along path, creating them as needed.
func (t *tallies) add(amount float64, path ...string) {
	level := t
	for _, name := range path {
		g := level.get(name)
		g.sum = g.sum.AddFloat(amount)
		if g.children == nil {
			g.children = newTallies()
		}
		level = g.children
	}
}

func (t *tallies) len() int {
	if t == nil {
		return 0
	}
	return len(t.list)
}

// nodes converts the groups to Node trees. Leaves get a nil Children slice.
func (t *tallies) nodes() []Node {
	out := make([]Node, 0, t.len())
	if t == nil {
		return out
	}
	for _, g := range t.list {
		n := Node{Name: g.name, Value: g.sum.Float64()}
		if g.children.len() > 0 {
			n.Children = g.children.nodes()
		}
		out = append(out, n)
	}
	return out
}
