package source

import (
	"slices"

	"github.com/matzehuels/supermro/pkg/hierarchy"
)

// Stub modules stand in for the parts of the Python standard library that
// user classes commonly inherit from. They are only declarations; their MROs
// follow CPython's for the classes listed.
var stubs = []hierarchy.Declaration{
	{Module: "builtins", Name: "BaseException", Methods: []string{"__init__", "__str__", "__repr__", "with_traceback", "add_note"}},
	{Module: "builtins", Name: "Exception", Bases: []string{"BaseException"}, Methods: []string{"__init__", "__new__"}},
	{Module: "builtins", Name: "ArithmeticError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "AssertionError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "AttributeError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "LookupError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "IndexError", Bases: []string{"LookupError"}},
	{Module: "builtins", Name: "KeyError", Bases: []string{"LookupError"}, Methods: []string{"__str__"}},
	{Module: "builtins", Name: "OSError", Bases: []string{"Exception"}, Methods: []string{"__init__", "__str__"}},
	{Module: "builtins", Name: "RuntimeError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "NotImplementedError", Bases: []string{"RuntimeError"}},
	{Module: "builtins", Name: "TypeError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "ValueError", Bases: []string{"Exception"}},
	{Module: "builtins", Name: "dict", Methods: []string{"__init__", "__getitem__", "__setitem__", "get", "items", "keys", "values", "update", "pop"}},
	{Module: "builtins", Name: "list", Methods: []string{"__init__", "__getitem__", "__setitem__", "append", "extend", "insert", "pop", "sort"}},
	{Module: "builtins", Name: "str", Methods: []string{"__new__", "__str__", "format", "join", "split", "strip"}},
	{Module: "builtins", Name: "int", Methods: []string{"__new__", "__int__", "__index__", "to_bytes"}},
	{Module: "abc", Name: "ABC"},
	{Module: "enum", Name: "Enum", Methods: []string{"__new__", "__repr__", "__str__", "__hash__", "__reduce_ex__", "name", "value"}},
	{Module: "enum", Name: "ReprEnum", Bases: []string{"Enum"}},
	{Module: "enum", Name: "IntEnum", Bases: []string{"int", "ReprEnum"}},
	{Module: "enum", Name: "StrEnum", Bases: []string{"str", "ReprEnum"}},
	{Module: "enum", Name: "Flag", Bases: []string{"Enum"}, Methods: []string{"__or__", "__and__", "__xor__", "__invert__", "__contains__"}},
	{Module: "typing", Name: "Generic", Methods: []string{"__class_getitem__", "__init_subclass__"}},
	{Module: "typing", Name: "Protocol", Bases: []string{"Generic"}, Methods: []string{"__init_subclass__"}},
	{Module: "collections", Name: "OrderedDict", Bases: []string{"builtins.dict"}, Methods: []string{"move_to_end", "popitem"}},
}

// Stubs returns declarations for common standard-library base classes.
func Stubs() []hierarchy.Declaration {
	out := make([]hierarchy.Declaration, len(stubs))
	for i, d := range stubs {
		d.Bases = slices.Clone(d.Bases)
		d.Methods = slices.Clone(d.Methods)
		d.File = "(built-in)"
		out[i] = d
	}
	return out
}

// StubModules returns the module names used by [Stubs].
func StubModules() []string {
	var out []string
	for _, d := range stubs {
		if !slices.Contains(out, d.Module) {
			out = append(out, d.Module)
		}
	}
	return out
}

// BuiltinNames returns the stub class names Python resolves without an
// import.
func BuiltinNames() map[string]bool {
	m := make(map[string]bool)
	for _, d := range stubs {
		if d.Module == "builtins" {
			m[d.Name] = true
		}
	}
	return m
}
