package hierarchy

import (
	mroerrors "github.com/matzehuels/supermro/pkg/errors"
)

// TracePolicy decides which declarations count as "defining" a method.
type TracePolicy struct {
	// SkipAbstract leaves out classes that only declare the method as
	// abstract.
	SkipAbstract bool
}

// DefaultTracePolicy counts every direct declaration, abstract or not.
var DefaultTracePolicy = TracePolicy{}

// TraceStep is one ancestor that declares the traced method.
type TraceStep struct {
	Class    string `json:"class"`
	Module   string `json:"module"`
	File     string `json:"file,omitempty"`
	Abstract bool   `json:"abstract,omitempty"`
}

// Trace lists, in MRO order, the ancestors of a class that declare a method.
// The first step is the definition single dispatch would invoke.
type Trace struct {
	Class  string      `json:"class"`
	Method string      `json:"method"`
	Steps  []TraceStep `json:"steps"`
}

// Trace resolves class with [Registry.Resolve] and walks its MRO collecting
// every ancestor whose own declarations contain method.
//
// It returns a CLASS_NOT_FOUND error for unknown classes, the class's own
// failure if it cannot be linearized, and METHOD_NOT_FOUND if no ancestor
// declares method.
func (r *Registry) Trace(class, method string, policy TracePolicy) (*Trace, error) {
	c, err := r.Resolve(class)
	if err != nil {
		return nil, err
	}
	return r.TraceClass(c, method, policy)
}

// TraceClass is [Registry.Trace] for an already resolved class.
func (r *Registry) TraceClass(c *ClassDescriptor, method string, policy TracePolicy) (*Trace, error) {
	mro, err := r.MRO(c)
	if err != nil {
		return nil, err
	}

	t := &Trace{Class: c.String(), Method: method}
	for _, a := range mro {
		if !a.Declares(method) {
			continue
		}
		abstract := a.IsAbstract(method)
		if abstract && policy.SkipAbstract {
			continue
		}
		t.Steps = append(t.Steps, TraceStep{
			Class:    a.String(),
			Module:   a.module,
			File:     a.file,
			Abstract: abstract,
		})
	}
	if len(t.Steps) == 0 {
		return nil, mroerrors.New(mroerrors.ErrCodeMethodNotFound,
			"method %s not found in the MRO of %s", method, c)
	}
	return t, nil
}

// Resolved returns the step single dispatch would invoke.
func (t *Trace) Resolved() TraceStep { return t.Steps[0] }
