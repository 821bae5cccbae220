package hierarchy

import (
	"fmt"
	"slices"
)

// Chain is the inheritance chain of one class: its MRO as display names.
// Declared classes appear by qualified name, the root by its bare name.
type Chain struct {
	Class     string   `json:"class"`
	Ancestors []string `json:"ancestors"`
}

// Chains holds the chains of every successfully linearized class in
// declaration order.
type Chains []Chain

// Get returns the ancestors of the named class.
func (cs Chains) Get(class string) ([]string, bool) {
	for _, c := range cs {
		if c.Class == class {
			return c.Ancestors, true
		}
	}
	return nil, false
}

// Map returns the chains keyed by class name.
func (cs Chains) Map() map[string][]string {
	m := make(map[string][]string, len(cs))
	for _, c := range cs {
		m[c.Class] = c.Ancestors
	}
	return m
}

// BuildChains returns the chains of every linearized class of r. Classes that
// failed are absent. It linearizes lazily, so it may be called on a registry
// that is only populated.
func BuildChains(r *Registry) Chains {
	out := make(Chains, 0, len(r.classes))
	for _, c := range r.classes {
		mro, err := r.MRO(c)
		if err != nil {
			continue
		}
		out = append(out, Chain{Class: c.String(), Ancestors: names(mro)})
	}
	return out
}

// BuildDerivedViews linearizes any remaining classes, builds the chains and
// moves the registry to [StateReady]. Repeated calls return equal results.
func (r *Registry) BuildDerivedViews() (Chains, error) {
	if r.state == StateEmpty {
		return nil, fmt.Errorf("build views in state %s: %w", r.state, ErrWrongState)
	}
	if err := r.LinearizeAll(); err != nil {
		return nil, err
	}
	r.chains = BuildChains(r)
	r.state = StateReady
	return slices.Clone(r.chains), nil
}

// Chains returns the chains built by the last [Registry.BuildDerivedViews]
// call, or nil before the registry is ready.
func (r *Registry) Chains() Chains { return slices.Clone(r.chains) }
