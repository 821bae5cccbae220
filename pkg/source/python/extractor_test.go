package python

import (
	"context"
	"reflect"
	"testing"

	"github.com/matzehuels/supermro/pkg/hierarchy"
)

const sample = `"""Shop models."""
from abc import ABC, abstractmethod
from typing import Generic, TypeVar
from .base import Model as BaseModel
from ..core import mixins
import collections as coll

T = TypeVar("T")


class Repository(ABC, Generic[T]):
    @abstractmethod
    def get(self, key):
        ...

    def __len__(self):
        return 0


@dataclass
class Item(BaseModel, mixins.Printable, metaclass=Meta):
    price = 0

    def save(self):
        pass

    @property
    def label(self):
        return ""


class Cache(coll.OrderedDict):
    pass


class ShopError(Exception):
    pass


class Local(Item):
    def save(self):
        pass


def helper():
    class Hidden:
        pass
`

func extract(t *testing.T, f File) []hierarchy.Declaration {
	t.Helper()
	e := &Extractor{Builtins: map[string]bool{"Exception": true, "object": true}}
	decls, err := e.Extract(context.Background(), f)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	return decls
}

func TestExtract(t *testing.T) {
	decls := extract(t, File{Module: "shop.sub.models", Path: "shop/sub/models.py", Content: []byte(sample)})

	want := []hierarchy.Declaration{
		{
			Module:   "shop.sub.models",
			Name:     "Repository",
			Bases:    []string{"abc.ABC", "typing.Generic"},
			Methods:  []string{"get", "__len__"},
			Abstract: []string{"get"},
			File:     "shop/sub/models.py",
		},
		{
			Module:  "shop.sub.models",
			Name:    "Item",
			Bases:   []string{"shop.sub.base.Model", "shop.core.mixins.Printable"},
			Methods: []string{"save", "label"},
			File:    "shop/sub/models.py",
		},
		{
			Module: "shop.sub.models",
			Name:   "Cache",
			Bases:  []string{"collections.OrderedDict"},
			File:   "shop/sub/models.py",
		},
		{
			Module: "shop.sub.models",
			Name:   "ShopError",
			Bases:  []string{"builtins.Exception"},
			File:   "shop/sub/models.py",
		},
		{
			Module:  "shop.sub.models",
			Name:    "Local",
			Bases:   []string{"Item"},
			Methods: []string{"save"},
			File:    "shop/sub/models.py",
		},
	}

	if len(decls) != len(want) {
		t.Fatalf("Extract() returned %d declarations, want %d: %+v", len(decls), len(want), decls)
	}
	for i := range want {
		if !reflect.DeepEqual(decls[i], want[i]) {
			t.Errorf("decl[%d] = %+v, want %+v", i, decls[i], want[i])
		}
	}
}

func TestExtractRelativeImports(t *testing.T) {
	tests := []struct {
		name      string
		module    string
		isPackage bool
		src       string
		want      string
	}{
		{"sibling", "pkg.a", false, "from .b import B\nclass A(B): pass\n", "pkg.b.B"},
		{"package init", "pkg", true, "from .b import B\nclass A(B): pass\n", "pkg.b.B"},
		{"parent", "pkg.sub.a", false, "from ..b import B\nclass A(B): pass\n", "pkg.b.B"},
		{"bare dot", "pkg.a", false, "from . import b\nclass A(b.B): pass\n", "pkg.b.B"},
		{"absolute", "pkg.a", false, "from other.mod import B\nclass A(B): pass\n", "other.mod.B"},
		{"local shadows builtin", "pkg.a", false, "class Exception: pass\nclass A(Exception): pass\n", "Exception"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls := extract(t, File{Module: tt.module, IsPackage: tt.isPackage, Content: []byte(tt.src)})
			last := decls[len(decls)-1]
			if len(last.Bases) != 1 || last.Bases[0] != tt.want {
				t.Errorf("Bases = %v, want [%s]", last.Bases, tt.want)
			}
		})
	}
}

func TestExtractSyntaxError(t *testing.T) {
	e := &Extractor{}
	_, err := e.Extract(context.Background(), File{
		Module:  "bad",
		Path:    "bad.py",
		Content: []byte("class A(:\n    pass\n"),
	})
	if err == nil {
		t.Error("Extract() should reject a file with syntax errors")
	}

	_, err = e.Extract(context.Background(), File{Module: "bin", Path: "bin.py", Content: []byte{0xff, 0xfe}})
	if err == nil {
		t.Error("Extract() should reject invalid UTF-8")
	}
}

func TestExtractEmpty(t *testing.T) {
	decls := extract(t, File{Module: "empty", Content: []byte("x = 1\n")})
	if len(decls) != 0 {
		t.Errorf("Extract() = %v, want no declarations", decls)
	}
}
