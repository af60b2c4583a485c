package mediastreamer

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/pkg/errors"
)

// compile walks forward from sources and returns the execution order, the number of layers, and whether any
// reached filter carries CanSync.
//
// Every filter is placed in the deepest layer it is reached in, so it runs after all of its upstream peers. Within a
// layer filters are clustered by class registration order, then by instance id.
//
func compile(sources []Filter) (execution []Filter, layers int, canSync bool, err error) {
	depth := make(map[Filter]int)
	current := make([]Filter, 0, len(sources))
	for _, f := range sources {
		if _, found := depth[f]; !found {
			depth[f] = 0
			current = append(current, f)
		}
	}

	for d := 0; len(current) > 0; d++ {
		// a path of d+1 distinct filters needs d+1 filters seen so far
		if d >= len(depth) {
			return nil, 0, false, errors.Wrapf(ErrGraphCycle, "reached depth [%d] with [%d] filters", d, len(depth))
		}
		next := make([]Filter, 0)
		queued := make(map[Filter]bool)
		for _, f := range current {
			for _, down := range Downstream(f) {
				if !queued[down] {
					queued[down] = true
					depth[down] = d + 1
					next = append(next, down)
				}
			}
		}
		current = next
	}

	maxDepth := 0
	byLayer := make(map[int]*treeset.Set)
	for f, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
		layer, found := byLayer[d]
		if !found {
			layer = treeset.NewWith(executionOrder)
			byLayer[d] = layer
		}
		layer.Add(f)
		if f.base().class.Is(CanSync) {
			canSync = true
		}
	}
	for d := 0; d <= maxDepth; d++ {
		layer, found := byLayer[d]
		if !found {
			continue
		}
		layers++
		for _, v := range layer.Values() {
			execution = append(execution, v.(Filter))
		}
	}
	return execution, layers, canSync, nil
}

func executionOrder(a, b interface{}) int {
	ba := a.(Filter).base()
	bb := b.(Filter).base()
	if ba.class.id != bb.class.id {
		return ba.class.id - bb.class.id
	}
	switch {
	case ba.id < bb.id:
		return -1
	case ba.id > bb.id:
		return 1
	default:
		return 0
	}
}
