package source

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadPackage(t *testing.T) {
	root := writeTree(t, map[string]string{
		"shop/__init__.py":          "class Base: pass\n",
		"shop/models.py":            "from . import Base\nclass Item(Base):\n    def save(self): pass\n",
		"shop/errors.py":            "class ShopError(Exception): pass\n",
		"shop/broken.py":            "class Oops(:\n",
		"shop/api/__init__.py":      "",
		"shop/api/views.py":         "from ..models import Item\nclass View(Item): pass\n",
		"shop/scripts/tool.py":      "class NotInPackage: pass\n",
		"shop/tests/__init__.py":    "",
		"shop/tests/test_models.py": "class TestItem: pass\n",
		"shop/__pycache__/x.py":     "class Cached: pass\n",
		"shop/README.md":            "not python",
	})

	report, err := LoadPackage(context.Background(), root, "shop", Options{Exclude: []string{"shop/tests", "shop/tests/**"}})
	if err != nil {
		t.Fatalf("LoadPackage() error = %v", err)
	}

	wantModules := []string{"shop", "shop.api", "shop.api.views", "shop.errors", "shop.models"}
	if !reflect.DeepEqual(report.Modules, wantModules) {
		t.Errorf("Modules = %v, want %v", report.Modules, wantModules)
	}

	var names []string
	for _, d := range report.Declarations {
		names = append(names, d.Module+"."+d.Name)
	}
	wantNames := []string{"shop.Base", "shop.api.views.View", "shop.errors.ShopError", "shop.models.Item"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("declarations = %v, want %v", names, wantNames)
	}

	view := report.Declarations[1]
	if !reflect.DeepEqual(view.Bases, []string{"shop.models.Item"}) || view.File != "shop/api/views.py" {
		t.Errorf("View = %+v", view)
	}
	if got := report.Declarations[2].Bases; !reflect.DeepEqual(got, []string{"builtins.Exception"}) {
		t.Errorf("ShopError bases = %v, want [builtins.Exception]", got)
	}
	if got := report.Declarations[3].Bases; !reflect.DeepEqual(got, []string{"shop.Base"}) {
		t.Errorf("Item bases = %v, want [shop.Base]", got)
	}

	files, err := PackageFiles(root, "shop", Options{Exclude: []string{"shop/tests", "shop/tests/**"}})
	if err != nil {
		t.Fatal(err)
	}
	wantFiles := []string{"shop/__init__.py", "shop/api/__init__.py", "shop/api/views.py", "shop/broken.py", "shop/errors.py", "shop/models.py"}
	if !reflect.DeepEqual(files, wantFiles) {
		t.Errorf("PackageFiles() = %v, want %v", files, wantFiles)
	}

	if len(report.Failures) != 1 || report.Failures[0].Module != "shop.broken" {
		t.Fatalf("Failures = %v, want shop.broken", report.Failures)
	}
	if !mroerrors.Is(report.Failures[0].Err, mroerrors.ErrCodeModuleLoad) {
		t.Errorf("failure code = %s, want MODULE_LOAD_FAILURE", mroerrors.GetCode(report.Failures[0].Err))
	}
}

func TestLoadPackageNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{"plain/mod.py": "class A: pass\n"})

	_, err := LoadPackage(context.Background(), root, "plain", Options{})
	if !mroerrors.Is(err, mroerrors.ErrCodePackageNotFound) {
		t.Errorf("LoadPackage() error = %v, want PACKAGE_NOT_FOUND", err)
	}
	_, err = LoadPackage(context.Background(), root, "not valid", Options{})
	if !mroerrors.Is(err, mroerrors.ErrCodeInvalidName) {
		t.Errorf("LoadPackage() error = %v, want INVALID_NAME", err)
	}
	_, err = LoadPackage(context.Background(), root, "plain", Options{Exclude: []string{"[unclosed"}})
	if !mroerrors.Is(err, mroerrors.ErrCodeInvalidInput) {
		t.Errorf("LoadPackage() error = %v, want INVALID_INPUT", err)
	}
}

func TestLoadPackageCanceled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"p/__init__.py": "",
		"p/a.py":        "class A: pass\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadPackage(ctx, root, "p", Options{}); err == nil {
		t.Error("LoadPackage() with canceled context should fail")
	}
}

func TestDiscover(t *testing.T) {
	root := writeTree(t, map[string]string{
		"__init__.py":            "",
		"alpha/__init__.py":      "",
		"alpha/sub/__init__.py":  "",
		"beta/__init__.py":       "",
		"docs/conf.py":           "",
		"docs/inner/__init__.py": "",
		".venv/lib/__init__.py":  "",
		"build/gen/__init__.py":  "",
	})

	got, err := Discover(root, Options{Exclude: []string{"build"}})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{"alpha", "alpha.sub", "beta", "docs.inner"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
	if top := TopLevel(got); !reflect.DeepEqual(top, []string{"alpha", "beta", "docs.inner"}) {
		t.Errorf("TopLevel() = %v", top)
	}

	if _, err := Discover(filepath.Join(root, "missing"), Options{}); !mroerrors.Is(err, mroerrors.ErrCodeInvalidPath) {
		t.Errorf("Discover(missing) error = %v, want INVALID_PATH", err)
	}
}
