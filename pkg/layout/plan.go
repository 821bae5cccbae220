package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/supermro/pkg/dag/transform"
	"github.com/matzehuels/supermro/pkg/hierarchy"
)

// DefaultMaxMethods is the number of method names listed per node.
const DefaultMaxMethods = 3

// HintWeight is the weight of invisible ordering edges between clusters.
const HintWeight = 100

// Options configures [Build].
type Options struct {
	// Name titles the plan, typically the analyzed package.
	Name string
	// MaxMethods caps the listed method names per node. Zero uses
	// DefaultMaxMethods.
	MaxMethods int
	// Palette colors clusters and nodes. Nil uses DefaultPalette.
	Palette *Palette
	// IncludePrivate lists methods whose names start with an underscore.
	IncludePrivate bool
	// Hidden names modules whose classes are not drawn. Edges into them are
	// kept.
	Hidden []string
}

// Plan is a renderer-independent description of the inheritance drawing.
type Plan struct {
	Name     string    `json:"name,omitempty"`
	Clusters []Cluster `json:"clusters"`
	Edges    []Edge    `json:"edges"`
	Hints    []Hint    `json:"hints"`
	// Excluded lists the classes left out because they failed to linearize.
	// Classes of hidden modules are not listed.
	Excluded []string `json:"excluded,omitempty"`
}

// Cluster groups the nodes of one module.
type Cluster struct {
	Module string `json:"module"`
	File   string `json:"file,omitempty"`
	Color  string `json:"color"`
	Nodes  []Node `json:"nodes"`
}

// Label returns the three-line cluster caption: module, file and class count.
func (c Cluster) Label() string {
	return fmt.Sprintf("%s\n%s\n%d classes", c.Module, c.File, len(c.Nodes))
}

// Node is one class in the drawing.
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Methods     []string `json:"methods"`
	MethodCount int      `json:"method_count"`
	Overflow    int      `json:"overflow"`
	Color       string   `json:"color"`
	// Rank is the inheritance depth of the class: 0 for classes that only
	// derive from the root.
	Rank int `json:"rank"`
}

// Summary returns the listed methods followed by the overflow counter, or a
// placeholder for classes without methods.
func (n Node) Summary() string {
	if n.MethodCount == 0 {
		return "no public methods"
	}
	s := strings.Join(n.Methods, ", ")
	if n.Overflow > 0 {
		s += fmt.Sprintf("... (+%d)", n.Overflow)
	}
	return s
}

// Edge points from a class to the next class in its MRO.
type Edge struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

// Hint is an invisible edge that keeps clusters stacked in module order.
type Hint struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

// Build computes the drawing plan of a registry. It linearizes lazily, so the
// registry only has to be populated.
//
// Build takes every consecutive pair of each linearized class's MRO, except
// the pair that ends at the root, and keeps the first occurrence of each.
// Clusters follow module declaration order with nodes in class declaration
// order; modules without any linearized class are dropped. One hint links the
// first node of each cluster to the first node of the next.
func Build(reg *hierarchy.Registry, opts Options) (*Plan, error) {
	if reg.State() == hierarchy.StateEmpty {
		return nil, fmt.Errorf("layout: %w", hierarchy.ErrWrongState)
	}
	if opts.MaxMethods <= 0 {
		opts.MaxMethods = DefaultMaxMethods
	}
	palette := DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}

	ranks := depths(reg)
	plan := &Plan{Name: opts.Name, Clusters: []Cluster{}, Edges: []Edge{}, Hints: []Hint{}}
	seen := make(map[Edge]bool)

	for _, m := range reg.Modules() {
		if slices.Contains(opts.Hidden, m.Name()) {
			continue
		}
		cluster := Cluster{Module: m.Name(), File: m.File(), Color: palette.ModuleColor(m.Name())}

		for _, c := range m.Classes() {
			mro, err := reg.MRO(c)
			if err != nil {
				plan.Excluded = append(plan.Excluded, c.String())
				continue
			}
			cluster.Nodes = append(cluster.Nodes, newNode(c, ranks[c.String()], opts, palette))

			for i := 0; i+1 < len(mro); i++ {
				if mro[i+1].IsRoot() {
					break
				}
				e := Edge{Child: mro[i].String(), Parent: mro[i+1].String()}
				if !seen[e] {
					seen[e] = true
					plan.Edges = append(plan.Edges, e)
				}
			}
		}

		if len(cluster.Nodes) > 0 {
			plan.Clusters = append(plan.Clusters, cluster)
		}
	}

	for i := 0; i+1 < len(plan.Clusters); i++ {
		plan.Hints = append(plan.Hints, Hint{
			From:   plan.Clusters[i].Nodes[0].ID,
			To:     plan.Clusters[i+1].Nodes[0].ID,
			Weight: HintWeight,
		})
	}
	return plan, nil
}

func newNode(c *hierarchy.ClassDescriptor, rank int, opts Options, p Palette) Node {
	var methods []string
	for _, m := range c.Methods() {
		if opts.IncludePrivate || !strings.HasPrefix(m, "_") {
			methods = append(methods, m)
		}
	}
	limit := opts.MaxMethods
	n := Node{
		ID:          c.String(),
		Name:        c.Name(),
		MethodCount: len(methods),
		Color:       p.ClassColor(c.Name()),
		Rank:        rank,
	}
	if len(methods) > limit {
		n.Overflow = len(methods) - limit
		methods = methods[:limit]
	}
	n.Methods = methods
	return n
}

func depths(reg *hierarchy.Registry) map[string]int {
	g := reg.BaseGraph()
	transform.AssignLayers(g)
	out := make(map[string]int, g.NodeCount())
	for _, n := range g.Nodes() {
		out[n.ID] = n.Row
	}
	return out
}

// NodeCount returns the number of nodes across all clusters.
func (p *Plan) NodeCount() int {
	n := 0
	for _, c := range p.Clusters {
		n += len(c.Nodes)
	}
	return n
}
