package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/source/python"
)

const initFile = "__init__.py"

// Options control package discovery and loading.
type Options struct {
	// Exclude lists glob patterns matched against slash-separated paths
	// relative to the project root, e.g. "tests/**" or "**/migrations".
	Exclude []string

	// Workers bounds concurrent file parsing. Zero means GOMAXPROCS.
	Workers int
}

// ModuleFailure records a module that could not be loaded. The module is
// skipped; loading continues with the rest of the package.
type ModuleFailure struct {
	Module string
	File   string
	Err    error
}

func (f ModuleFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Module, f.Err)
}

// LoadReport is the result of loading one package.
type LoadReport struct {
	Package      string
	Modules      []string // loaded modules in walk order
	Declarations []hierarchy.Declaration
	Failures     []ModuleFailure
}

type pyFile struct {
	module    string
	rel       string
	path      string
	isPackage bool
}

// LoadPackage walks the package pkg under root and extracts the classes of
// every module, the package's own __init__.py included.
//
// Subdirectories are only entered when they are packages themselves. Files
// are parsed concurrently but declarations are returned in walk order:
// lexical by path, each module's classes in source order. A module that
// cannot be read or parsed is recorded in [LoadReport.Failures] and skipped.
func LoadPackage(ctx context.Context, root, pkg string, opts Options) (*LoadReport, error) {
	files, err := packageFiles(root, pkg, opts)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([][]hierarchy.Declaration, len(files))
	failures := make([]error, len(files))
	ex := &python.Extractor{Builtins: BuiltinNames()}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(f.path)
			if err != nil {
				failures[i] = err
				return nil
			}
			decls, err := ex.Extract(gctx, python.File{
				Module:    f.module,
				Path:      f.rel,
				IsPackage: f.isPackage,
				Content:   content,
			})
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				return nil
			}
			results[i] = decls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &LoadReport{Package: pkg}
	for i, f := range files {
		if failures[i] != nil {
			report.Failures = append(report.Failures, ModuleFailure{
				Module: f.module,
				File:   f.rel,
				Err:    mroerrors.Wrap(mroerrors.ErrCodeModuleLoad, failures[i], "load module %s", f.module),
			})
			continue
		}
		report.Modules = append(report.Modules, f.module)
		report.Declarations = append(report.Declarations, results[i]...)
	}
	return report, nil
}

// PackageFiles lists the files [LoadPackage] reads for pkg, as
// slash-separated paths relative to root, in load order.
func PackageFiles(root, pkg string, opts Options) ([]string, error) {
	files, err := packageFiles(root, pkg, opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.rel
	}
	return out, nil
}

func packageFiles(root, pkg string, opts Options) ([]pyFile, error) {
	if err := mroerrors.ValidateModuleName(pkg); err != nil {
		return nil, err
	}
	excludes, err := compileExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/")))
	if !isPackageDir(dir) {
		return nil, mroerrors.New(mroerrors.ErrCodePackageNotFound, "package %q not found under %s", pkg, root)
	}
	return walkPackage(root, dir, pkg, excludes)
}

func walkPackage(root, dir, pkg string, excludes []glob.Glob) ([]pyFile, error) {
	var files []pyFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != dir && (skipDir(d.Name()) || !isPackageDir(path) || excluded(rel, excludes)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".py") || excluded(rel, excludes) {
			return nil
		}

		relPkg, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		parts := strings.Split(strings.TrimSuffix(filepath.ToSlash(relPkg), ".py"), "/")
		f := pyFile{rel: rel, path: path}
		if parts[len(parts)-1] == "__init__" {
			parts = parts[:len(parts)-1]
			f.isPackage = true
		}
		f.module = strings.Join(append([]string{pkg}, parts...), ".")
		if mroerrors.ValidateModuleName(f.module) != nil {
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, mroerrors.Wrap(mroerrors.ErrCodeInvalidPath, err, "walk %s", dir)
	}

	// Keep each package's __init__ ahead of its submodules.
	slices.SortStableFunc(files, func(a, b pyFile) int {
		return strings.Compare(a.module, b.module)
	})
	return files, nil
}

// Discover lists the packages under root: every directory below it holding
// an __init__.py, as sorted dotted names. Root itself is not a candidate.
func Discover(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, mroerrors.New(mroerrors.ErrCodeInvalidPath, "project path %s does not exist", root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, mroerrors.New(mroerrors.ErrCodeInvalidPath, "project path %s is not a directory", root)
	}
	excludes, err := compileExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var pkgs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skipDir(d.Name()) || excluded(rel, excludes) {
			return filepath.SkipDir
		}
		if !isPackageDir(path) {
			return nil
		}
		name := strings.ReplaceAll(rel, "/", ".")
		if mroerrors.ValidateModuleName(name) == nil {
			pkgs = append(pkgs, name)
		}
		return nil
	})
	if err != nil {
		return nil, mroerrors.Wrap(mroerrors.ErrCodeInvalidPath, err, "walk %s", root)
	}
	slices.Sort(pkgs)
	return pkgs, nil
}

// TopLevel filters packages to those not nested in another listed package.
func TopLevel(pkgs []string) []string {
	var out []string
	for _, p := range pkgs {
		nested := false
		for _, q := range pkgs {
			if strings.HasPrefix(p, q+".") {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, p)
		}
	}
	return out
}

func isPackageDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, initFile))
	return err == nil && !info.IsDir()
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}

func compileExcludes(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, mroerrors.Wrap(mroerrors.ErrCodeInvalidInput, err, "invalid exclude pattern %q", p)
		}
		out = append(out, g)
	}
	return out, nil
}

func excluded(rel string, excludes []glob.Glob) bool {
	for _, g := range excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
