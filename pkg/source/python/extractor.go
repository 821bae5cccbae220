package python

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/matzehuels/supermro/pkg/hierarchy"
)

// File is one Python source file to extract.
type File struct {
	Module    string // dotted module name, e.g. "shop.models"
	Path      string // file hint stored on the declarations
	IsPackage bool   // the file is a package's __init__.py
	Content   []byte
}

// Extractor turns Python source into class declarations.
//
// Only top-level classes are extracted, decorated ones included. Bases come
// from the class argument list: names and dotted attributes are kept,
// subscripted generics are reduced to their base name, and keyword arguments
// such as metaclass= are ignored. Every method defined directly in the class
// body is recorded; methods decorated with abstractmethod are also listed as
// abstract.
//
// Base names are qualified using the file's top-level imports, so
// "from .models import Base" followed by "class User(Base)" yields the base
// "pkg.models.Base". Extractor is safe for concurrent use.
type Extractor struct {
	// Builtins are class names Python resolves without an import. A bare
	// base naming one of them, that is neither imported nor defined in the
	// file, is qualified with the builtins module.
	Builtins map[string]bool
}

// Extract parses f and returns its class declarations in source order.
// A file with syntax errors is rejected as a whole.
func (e *Extractor) Extract(ctx context.Context, f File) ([]hierarchy.Declaration, error) {
	if !utf8.Valid(f.Content) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8", f.Path)
	}

	// Parsers are not safe for concurrent use; create one per call.
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, f.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: tree-sitter parse failed: %w", f.Path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := 0
		if n := firstError(root); n != nil {
			line = int(n.StartPoint().Row) + 1
		}
		return nil, fmt.Errorf("%s:%d: syntax error", f.Path, line)
	}

	s := &scope{
		file:     f,
		src:      f.Content,
		imports:  make(map[string]string),
		locals:   make(map[string]bool),
		builtins: e.Builtins,
	}
	s.collect(root)

	var decls []hierarchy.Declaration
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if cls := classNode(root.NamedChild(i)); cls != nil {
			if d, ok := s.class(cls); ok {
				decls = append(decls, d)
			}
		}
	}
	return decls, nil
}

// scope holds what a file's top level binds.
type scope struct {
	file     File
	src      []byte
	imports  map[string]string // local name -> qualified name
	locals   map[string]bool   // top-level class names
	builtins map[string]bool
}

func (s *scope) text(n *sitter.Node) string { return n.Content(s.src) }

func (s *scope) collect(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			s.importStatement(child)
		case "import_from_statement":
			s.importFromStatement(child)
		default:
			if cls := classNode(child); cls != nil {
				if name := cls.ChildByFieldName("name"); name != nil {
					s.locals[s.text(name)] = true
				}
			}
		}
	}
}

// importStatement records "import a.b as c". Plain "import a.b" binds a,
// which already qualifies attribute bases correctly.
func (s *scope) importStatement(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "aliased_import" {
			continue
		}
		name, alias := child.ChildByFieldName("name"), child.ChildByFieldName("alias")
		if name != nil && alias != nil {
			s.imports[s.text(alias)] = s.text(name)
		}
	}
}

func (s *scope) importFromStatement(n *sitter.Node) {
	var module string
	sawImport := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			module = s.relative(child)
		case "dotted_name":
			if !sawImport {
				module = s.text(child)
				continue
			}
			name := s.text(child)
			s.imports[name] = module + "." + name
		case "aliased_import":
			name, alias := child.ChildByFieldName("name"), child.ChildByFieldName("alias")
			if name != nil && alias != nil {
				s.imports[s.text(alias)] = module + "." + s.text(name)
			}
		}
	}
}

// relative resolves "..pkg" style module references against the file's
// package.
func (s *scope) relative(n *sitter.Node) string {
	var dots int
	var name string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import_prefix":
			dots = strings.Count(s.text(child), ".")
		case "dotted_name":
			name = s.text(child)
		}
	}

	parts := strings.Split(s.file.Module, ".")
	if !s.file.IsPackage {
		parts = parts[:len(parts)-1]
	}
	if up := dots - 1; up > 0 {
		parts = parts[:max(len(parts)-up, 0)]
	}
	if name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, ".")
}

func (s *scope) qualify(ref string) string {
	head, rest, dotted := strings.Cut(ref, ".")
	if target, ok := s.imports[head]; ok {
		if dotted {
			return target + "." + rest
		}
		return target
	}
	if !dotted && !s.locals[ref] && s.builtins[ref] {
		return "builtins." + ref
	}
	return ref
}

func (s *scope) class(n *sitter.Node) (hierarchy.Declaration, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return hierarchy.Declaration{}, false
	}
	d := hierarchy.Declaration{
		Module: s.file.Module,
		Name:   s.text(nameNode),
		File:   s.file.Path,
	}

	if args := n.ChildByFieldName("superclasses"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			if ref := s.baseRef(args.NamedChild(i)); ref != "" {
				d.Bases = append(d.Bases, s.qualify(ref))
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return d, true
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		var decorators []string
		if child.Type() == "decorated_definition" {
			decorators = s.decorators(child)
			child = child.ChildByFieldName("definition")
		}
		if child == nil || child.Type() != "function_definition" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			continue
		}
		method := s.text(name)
		d.Methods = append(d.Methods, method)
		if isAbstract(decorators) {
			d.Abstract = append(d.Abstract, method)
		}
	}
	return d, true
}

// baseRef returns the static name of a superclass argument, or "" for
// arguments that are not a class reference.
func (s *scope) baseRef(arg *sitter.Node) string {
	switch arg.Type() {
	case "identifier", "attribute":
		return s.text(arg)
	case "subscript":
		if v := arg.ChildByFieldName("value"); v != nil && (v.Type() == "identifier" || v.Type() == "attribute") {
			return s.text(v)
		}
	}
	return ""
}

func (s *scope) decorators(n *sitter.Node) []string {
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "decorator" || child.NamedChildCount() == 0 {
			continue
		}
		expr := child.NamedChild(0)
		if expr.Type() == "call" {
			if fn := expr.ChildByFieldName("function"); fn != nil {
				expr = fn
			}
		}
		out = append(out, s.text(expr))
	}
	return out
}

func isAbstract(decorators []string) bool {
	for _, d := range decorators {
		if d == "abstractmethod" || strings.HasSuffix(d, ".abstractmethod") {
			return true
		}
	}
	return false
}

func classNode(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "class_definition":
		return n
	case "decorated_definition":
		if def := n.ChildByFieldName("definition"); def != nil && def.Type() == "class_definition" {
			return def
		}
	}
	return nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := firstError(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}
