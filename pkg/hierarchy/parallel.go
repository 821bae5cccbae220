package hierarchy

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/supermro/pkg/dag"
	"github.com/matzehuels/supermro/pkg/dag/transform"
)

// LinearizeAllParallel computes the same result as [Registry.LinearizeAll]
// but merges independent classes concurrently.
//
// Classes are grouped into waves by inheritance depth: every class in a wave
// only inherits from the root or from classes of earlier waves, so a wave can
// be merged with at most workers goroutines once the previous one is done.
// Classes caught in or behind an inheritance cycle are linearized
// sequentially afterwards so their failures are attributed exactly as in the
// sequential walk. workers <= 0 uses GOMAXPROCS.
func (r *Registry) LinearizeAllParallel(workers int) error {
	switch r.state {
	case StateEmpty:
		return fmt.Errorf("linearize in state %s: %w", r.state, ErrWrongState)
	case StateLinearized, StateReady:
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g := r.BaseGraph()
	deferred := transform.AssignLayers(g)
	skip := make(map[string]bool, len(deferred))
	for _, id := range deferred {
		skip[id] = true
	}

	for _, row := range g.RowIDs() {
		wave := make([]*ClassDescriptor, 0, len(g.NodesInRow(row)))
		for _, n := range g.NodesInRow(row) {
			c := n.Meta[metaClass].(*ClassDescriptor)
			if skip[n.ID] || c.status != StatusPending {
				continue
			}
			if b := failedBase(c); b != nil {
				c.fail(dependentFailure(c, b, b.err))
				continue
			}
			wave = append(wave, c)
		}

		var eg errgroup.Group
		eg.SetLimit(workers)
		for _, c := range wave {
			eg.Go(func() error {
				_ = r.merge(c)
				return nil
			})
		}
		_ = eg.Wait()
	}

	for _, id := range deferred {
		n, _ := g.Node(id)
		_ = r.linearize(n.Meta[metaClass].(*ClassDescriptor), nil)
	}

	r.state = StateLinearized
	return nil
}

const metaClass = "class"

// BaseGraph returns the base-reference graph of the declared classes: one
// node per class keyed by qualified name, and an edge from each resolved base
// to the class deriving from it. The root is left out. Node metadata holds
// the *ClassDescriptor under the "class" key.
func (r *Registry) BaseGraph() *dag.DAG {
	g := dag.New(nil)
	for _, c := range r.classes {
		_ = g.AddNode(dag.Node{ID: c.String(), Meta: dag.Metadata{metaClass: c}})
	}
	for _, c := range r.classes {
		for _, b := range c.bases {
			if b.root || g.HasEdge(b.String(), c.String()) {
				continue
			}
			_ = g.AddEdge(dag.Edge{From: b.String(), To: c.String()})
		}
	}
	return g
}

func failedBase(c *ClassDescriptor) *ClassDescriptor {
	for _, b := range c.bases {
		if b.status == StatusErrored {
			return b
		}
	}
	return nil
}
