package hierarchy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/supermro/pkg/c3"
	mroerrors "github.com/matzehuels/supermro/pkg/errors"
)

// MRO returns the method resolution order of c, computing it and every
// missing base linearization on first use. The result starts with c and ends
// with the root. It returns the class's recorded failure if it cannot be
// linearized.
//
// The returned slice is a copy.
func (r *Registry) MRO(c *ClassDescriptor) ([]*ClassDescriptor, error) {
	if r.state == StateEmpty {
		return nil, fmt.Errorf("mro in state %s: %w", r.state, ErrWrongState)
	}
	if err := r.linearize(c, nil); err != nil {
		return nil, err
	}
	return slices.Clone(c.mro), nil
}

// LinearizeAll computes the MRO of every class in declaration order and moves
// the registry to [StateLinearized]. Per-class failures are recorded on the
// classes and reported by [Registry.Failures]; they do not make LinearizeAll
// fail. Calling it again is a no-op.
func (r *Registry) LinearizeAll() error {
	switch r.state {
	case StateEmpty:
		return fmt.Errorf("linearize in state %s: %w", r.state, ErrWrongState)
	case StateLinearized, StateReady:
		return nil
	}
	for _, c := range r.classes {
		_ = r.linearize(c, nil)
	}
	r.state = StateLinearized
	return nil
}

// linearize is a memoized depth-first walk over base references. path holds
// the classes currently being visited; meeting one of them again closes a
// cycle.
func (r *Registry) linearize(c *ClassDescriptor, path []*ClassDescriptor) error {
	switch c.status {
	case StatusLinearized:
		return nil
	case StatusErrored:
		return c.err
	}

	if c.visiting {
		i := slices.Index(path, c)
		cycle := path[i:]
		err := mroerrors.New(mroerrors.ErrCodeCyclicInheritance,
			"class %s: inheritance cycle %s", c, cycleString(cycle))
		for _, m := range cycle {
			m.visiting = false
			m.fail(err)
		}
		return err
	}

	c.visiting = true
	path = append(path, c)
	for _, b := range c.bases {
		if err := r.linearize(b, path); err != nil {
			c.visiting = false
			if c.status != StatusErrored {
				c.fail(dependentFailure(c, b, err))
			}
			return c.err
		}
	}
	c.visiting = false

	return r.merge(c)
}

// merge assumes every base of c is linearized.
func (r *Registry) merge(c *ClassDescriptor) error {
	mro, err := c3.Linearize(c, c.bases, func(b *ClassDescriptor) []*ClassDescriptor { return b.mro })
	if err != nil {
		var conflict *c3.ConflictError[*ClassDescriptor]
		if errors.As(err, &conflict) {
			err = mroerrors.Wrap(mroerrors.ErrCodeInconsistentHierarchy, err,
				"class %s: cannot order bases %s", c, strings.Join(names(conflict.Heads), ", "))
		}
		c.fail(err)
		return c.err
	}
	c.mro = mro
	c.status = StatusLinearized
	return nil
}

// dependentFailure carries the code of the base's failure so callers can
// still classify the dependent class.
func dependentFailure(c, base *ClassDescriptor, cause error) error {
	code := mroerrors.GetCode(cause)
	if code == "" {
		code = mroerrors.ErrCodeInternal
	}
	return mroerrors.Wrap(code, cause, "class %s: base %s cannot be linearized", c, base)
}

func cycleString(cycle []*ClassDescriptor) string {
	parts := names(cycle)
	parts = append(parts, cycle[0].String())
	return strings.Join(parts, " -> ")
}
