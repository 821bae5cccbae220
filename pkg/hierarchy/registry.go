package hierarchy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
)

// ErrWrongState is returned when an operation is invoked in a registry state
// that does not allow it, such as populating twice.
var ErrWrongState = errors.New("operation not allowed in current registry state")

// State is the lifecycle state of a [Registry].
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateLinearized
	StateReady
)

func (s State) String() string {
	switch s {
	case StatePopulated:
		return "populated"
	case StateLinearized:
		return "linearized"
	case StateReady:
		return "ready"
	default:
		return "empty"
	}
}

const (
	// DefaultRootName is the name of the universal root class.
	DefaultRootName = "object"
	// RootModule is the module the root class belongs to.
	RootModule = "builtins"
)

// DefaultRootMethods are the methods the root class declares unless
// overridden with [WithRoot].
var DefaultRootMethods = []string{
	"__class__", "__delattr__", "__dir__", "__eq__", "__format__", "__ge__",
	"__getattribute__", "__gt__", "__hash__", "__init__", "__init_subclass__",
	"__le__", "__lt__", "__ne__", "__new__", "__reduce__", "__reduce_ex__",
	"__repr__", "__setattr__", "__sizeof__", "__str__", "__subclasshook__",
}

// Option configures a [Registry].
type Option func(*Registry)

// WithRoot overrides the root class name and the methods it declares.
// An empty name keeps the default; nil methods keep the default set.
func WithRoot(name string, methods []string) Option {
	return func(r *Registry) {
		if name != "" {
			r.rootName = name
		}
		if methods != nil {
			r.rootMethods = slices.Clone(methods)
		}
	}
}

// Failure is a per-class failure recorded during population or linearization.
type Failure struct {
	Class QualifiedName
	Err   error
}

// Registry holds the declared classes of one analysis and their
// linearizations.
//
// A Registry moves through [StateEmpty], [StatePopulated], [StateLinearized]
// and [StateReady]. Classes that fail keep an error of their own and never
// block the others.
//
// Registry is not safe for concurrent use while MROs are still being
// computed. Once [Registry.LinearizeAll] or [Registry.LinearizeAllParallel]
// has returned, every read method may be called from multiple goroutines.
type Registry struct {
	state       State
	rootName    string
	rootMethods []string
	root        *ClassDescriptor

	classes []*ClassDescriptor
	index   map[QualifiedName]*ClassDescriptor
	byName  map[string][]*ClassDescriptor
	modules []*ModuleDescriptor
	modIdx  map[string]*ModuleDescriptor

	chains Chains
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		rootName:    DefaultRootName,
		rootMethods: DefaultRootMethods,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.root = newClass(-1, Declaration{Module: RootModule, Name: r.rootName, Methods: r.rootMethods})
	r.root.root = true
	r.root.status = StatusLinearized
	r.root.mro = []*ClassDescriptor{r.root}
	return r
}

// State returns the lifecycle state of the registry.
func (r *Registry) State() State { return r.state }

// Root returns the universal root class.
func (r *Registry) Root() *ClassDescriptor { return r.root }

// Len returns the number of declared classes, excluding the root.
func (r *Registry) Len() int { return len(r.classes) }

// Classes returns every declared class in declaration order.
func (r *Registry) Classes() []*ClassDescriptor { return slices.Clone(r.classes) }

// Modules returns the modules in order of first declaration.
func (r *Registry) Modules() []*ModuleDescriptor { return slices.Clone(r.modules) }

// Module returns the module with the given name.
func (r *Registry) Module(name string) (*ModuleDescriptor, bool) {
	m, ok := r.modIdx[name]
	return m, ok
}

// Populate registers decls in order and resolves their bases. It may only be
// called once, on an empty registry.
//
// Structurally invalid declarations (bad names, duplicates) reject the whole
// batch and leave the registry empty. Bases that cannot be resolved, or are
// listed twice, only fail the class that declares them.
func (r *Registry) Populate(decls []Declaration) error {
	if r.state != StateEmpty {
		return fmt.Errorf("populate in state %s: %w", r.state, ErrWrongState)
	}

	var (
		classes = make([]*ClassDescriptor, 0, len(decls))
		index   = make(map[QualifiedName]*ClassDescriptor, len(decls))
		byName  = make(map[string][]*ClassDescriptor, len(decls))
		modules []*ModuleDescriptor
		modIdx  = make(map[string]*ModuleDescriptor)
	)

	for i, d := range decls {
		if err := validateDeclaration(d); err != nil {
			return fmt.Errorf("declaration %d: %w", i, err)
		}
		q := QualifiedName{Module: d.Module, Name: d.Name}
		if _, dup := index[q]; dup || q == r.root.QualifiedName() {
			return mroerrors.New(mroerrors.ErrCodeDuplicateClass, "class %s declared twice", q)
		}

		c := newClass(i, d)
		classes = append(classes, c)
		index[q] = c
		byName[d.Name] = append(byName[d.Name], c)

		m, ok := modIdx[d.Module]
		if !ok {
			m = &ModuleDescriptor{name: d.Module}
			modIdx[d.Module] = m
			modules = append(modules, m)
		}
		if m.file == "" {
			m.file = d.File
		}
		m.classes = append(m.classes, c)
	}

	r.classes, r.index, r.byName = classes, index, byName
	r.modules, r.modIdx = modules, modIdx

	for _, c := range r.classes {
		r.bindBases(c)
	}
	r.state = StatePopulated
	return nil
}

func (r *Registry) bindBases(c *ClassDescriptor) {
	if len(c.baseNames) == 0 {
		c.bases = []*ClassDescriptor{r.root}
		return
	}

	var (
		bases      []*ClassDescriptor
		unresolved []string
		duplicates []string
		seen       = make(map[*ClassDescriptor]bool, len(c.baseNames))
	)
	for _, ref := range c.baseNames {
		b, err := r.resolveFrom(ref, c.module)
		if err != nil {
			unresolved = append(unresolved, err.Error())
			continue
		}
		if seen[b] {
			duplicates = append(duplicates, b.String())
			continue
		}
		seen[b] = true
		bases = append(bases, b)
	}

	switch {
	case len(unresolved) > 0:
		c.fail(mroerrors.New(mroerrors.ErrCodeUnresolvedBase,
			"class %s: %s", c, strings.Join(unresolved, "; ")))
	case len(duplicates) > 0:
		c.bases = bases
		c.fail(mroerrors.New(mroerrors.ErrCodeInconsistentHierarchy,
			"class %s: duplicate base %s", c, strings.Join(duplicates, ", ")))
	default:
		c.bases = bases
	}
}

// Lookup returns the class with the exact qualified name q.
func (r *Registry) Lookup(q QualifiedName) (*ClassDescriptor, error) {
	if q == r.root.QualifiedName() || (q.Module == "" && q.Name == r.root.name) {
		return r.root, nil
	}
	if c, ok := r.index[q]; ok {
		return c, nil
	}
	return nil, mroerrors.New(mroerrors.ErrCodeClassNotFound, "class %s not found", q)
}

// Resolve finds a class from a user-supplied reference. ref may be a bare
// class name, which must be unique across the registry, or a dotted name whose
// module part matches a module exactly or as a dotted suffix.
func (r *Registry) Resolve(ref string) (*ClassDescriptor, error) {
	c, err := r.resolveFrom(ref, "")
	if err != nil {
		return nil, mroerrors.Wrap(mroerrors.ErrCodeClassNotFound, err, "class %s not found", ref)
	}
	return c, nil
}

// resolveFrom resolves ref as written inside module from. Lookup order:
// exact qualified name, module-suffix match, same-module bare name, root,
// unique bare name.
func (r *Registry) resolveFrom(ref, from string) (*ClassDescriptor, error) {
	q := ParseQualifiedName(ref)
	if q.Module == "" {
		if c, ok := r.index[QualifiedName{Module: from, Name: q.Name}]; ok && from != "" {
			return c, nil
		}
		if q.Name == r.root.name {
			return r.root, nil
		}
		return unique(ref, r.byName[q.Name])
	}

	if c, ok := r.index[q]; ok {
		return c, nil
	}
	if q == r.root.QualifiedName() {
		return r.root, nil
	}
	var candidates []*ClassDescriptor
	for _, c := range r.byName[q.Name] {
		if strings.HasSuffix(c.module, "."+q.Module) {
			candidates = append(candidates, c)
		}
	}
	return unique(ref, candidates)
}

func unique(ref string, candidates []*ClassDescriptor) (*ClassDescriptor, error) {
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return nil, fmt.Errorf("base %s not found", ref)
	default:
		return nil, fmt.Errorf("base %s is ambiguous between %s", ref, strings.Join(names(candidates), ", "))
	}
}

// Failures returns every per-class failure recorded so far, in declaration
// order.
func (r *Registry) Failures() []Failure {
	var out []Failure
	for _, c := range r.classes {
		if c.status == StatusErrored {
			out = append(out, Failure{Class: c.QualifiedName(), Err: c.err})
		}
	}
	return out
}

func (c *ClassDescriptor) fail(err error) {
	c.status = StatusErrored
	c.err = err
	c.mro = nil
}

func validateDeclaration(d Declaration) error {
	if err := mroerrors.ValidateModuleName(d.Module); err != nil {
		return err
	}
	if err := mroerrors.ValidateClassName(d.Name); err != nil {
		return err
	}
	for _, b := range d.Bases {
		if err := mroerrors.ValidateModuleName(b); err != nil {
			return mroerrors.Wrap(mroerrors.ErrCodeInvalidName, err, "class %s: invalid base", d.Name)
		}
	}
	for _, m := range slices.Concat(d.Methods, d.Abstract) {
		if err := mroerrors.ValidateMethodName(m); err != nil {
			return err
		}
	}
	return nil
}
