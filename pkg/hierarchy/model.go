package hierarchy

import (
	"slices"
	"strings"
)

// Declaration is one class definition as supplied by a loader. It is the only
// input the registry accepts.
type Declaration struct {
	Module   string   `json:"module" toml:"module" yaml:"module"`
	Name     string   `json:"name" toml:"name" yaml:"name"`
	Bases    []string `json:"bases,omitempty" toml:"bases,omitempty" yaml:"bases,omitempty"`
	Methods  []string `json:"methods,omitempty" toml:"methods,omitempty" yaml:"methods,omitempty"`
	Abstract []string `json:"abstract,omitempty" toml:"abstract,omitempty" yaml:"abstract,omitempty"`
	File     string   `json:"file,omitempty" toml:"file,omitempty" yaml:"file,omitempty"`
}

// QualifiedName identifies a class by module and bare name.
type QualifiedName struct {
	Module string
	Name   string
}

// ParseQualifiedName splits s at its last dot. A name without a dot has an
// empty Module.
func ParseQualifiedName(s string) QualifiedName {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return QualifiedName{Name: s}
	}
	return QualifiedName{Module: s[:i], Name: s[i+1:]}
}

func (q QualifiedName) String() string {
	if q.Module == "" {
		return q.Name
	}
	return q.Module + "." + q.Name
}

// Status is the linearization state of a single class.
type Status int

const (
	StatusPending Status = iota
	StatusLinearized
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLinearized:
		return "linearized"
	case StatusErrored:
		return "errored"
	default:
		return "pending"
	}
}

// ClassDescriptor is a registered class. Its declared data never changes
// after population; its MRO is computed at most once.
type ClassDescriptor struct {
	name      string
	module    string
	file      string
	root      bool
	baseNames []string
	bases     []*ClassDescriptor
	methods   []string
	abstract  map[string]bool
	declared  map[string]bool
	seq       int

	visiting bool
	status   Status
	mro      []*ClassDescriptor
	err      error
}

func newClass(seq int, d Declaration) *ClassDescriptor {
	c := &ClassDescriptor{
		name:      d.Name,
		module:    d.Module,
		file:      d.File,
		baseNames: slices.Clone(d.Bases),
		seq:       seq,
		declared:  make(map[string]bool, len(d.Methods)),
		abstract:  make(map[string]bool, len(d.Abstract)),
	}
	for _, m := range d.Methods {
		if !c.declared[m] {
			c.declared[m] = true
			c.methods = append(c.methods, m)
		}
	}
	for _, m := range d.Abstract {
		c.abstract[m] = true
		if !c.declared[m] {
			c.declared[m] = true
			c.methods = append(c.methods, m)
		}
	}
	return c
}

func (c *ClassDescriptor) Name() string   { return c.name }
func (c *ClassDescriptor) Module() string { return c.module }
func (c *ClassDescriptor) File() string   { return c.file }

// IsRoot reports whether c is the universal root class.
func (c *ClassDescriptor) IsRoot() bool { return c.root }

// QualifiedName returns the module-qualified name of c.
func (c *ClassDescriptor) QualifiedName() QualifiedName {
	return QualifiedName{Module: c.module, Name: c.name}
}

// String returns the qualified name, or the bare name for the root.
func (c *ClassDescriptor) String() string {
	if c.root {
		return c.name
	}
	return c.QualifiedName().String()
}

// BaseNames returns the bases exactly as declared.
func (c *ClassDescriptor) BaseNames() []string { return slices.Clone(c.baseNames) }

// Bases returns the resolved direct bases in declared order. A class declared
// without bases has the root as its only base. Bases is empty for the root and
// for classes whose bases could not be resolved.
func (c *ClassDescriptor) Bases() []*ClassDescriptor { return slices.Clone(c.bases) }

// Methods returns the directly declared method names in declaration order.
func (c *ClassDescriptor) Methods() []string { return slices.Clone(c.methods) }

// Declares reports whether c declares method directly.
func (c *ClassDescriptor) Declares(method string) bool { return c.declared[method] }

// IsAbstract reports whether c declares method as abstract.
func (c *ClassDescriptor) IsAbstract(method string) bool { return c.abstract[method] }

// Status returns the linearization state of c.
func (c *ClassDescriptor) Status() Status { return c.status }

// Err returns the failure recorded for c, or nil.
func (c *ClassDescriptor) Err() error { return c.err }

// ModuleDescriptor groups the classes declared in one module.
type ModuleDescriptor struct {
	name    string
	file    string
	classes []*ClassDescriptor
}

func (m *ModuleDescriptor) Name() string { return m.name }

// File returns the source file of the first class that named one.
func (m *ModuleDescriptor) File() string { return m.file }

// Classes returns the module's classes in declaration order.
func (m *ModuleDescriptor) Classes() []*ClassDescriptor { return slices.Clone(m.classes) }

// Len returns the number of classes declared in the module.
func (m *ModuleDescriptor) Len() int { return len(m.classes) }

func names(cs []*ClassDescriptor) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
