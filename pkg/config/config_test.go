package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[analysis]
root = "Base"
skip_abstract = true

[layout]
max_methods = 5

[[layout.class_colors]]
keywords = ["view"]
color = "#abcdef"

[render]
formats = ["dot", "png"]

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "2h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.Root != "Base" || !cfg.Analysis.SkipAbstract {
		t.Errorf("Analysis = %+v", cfg.Analysis)
	}
	if !cfg.Analysis.Parallel {
		t.Error("unset analysis.parallel should keep its default")
	}
	if cfg.Layout.MaxMethods != 5 {
		t.Errorf("MaxMethods = %d, want 5", cfg.Layout.MaxMethods)
	}
	if !reflect.DeepEqual(cfg.Render.Formats, []string{"dot", "png"}) {
		t.Errorf("Formats = %v", cfg.Render.Formats)
	}
	if cfg.Render.Output != "mro_graph" {
		t.Errorf("Output = %q, want default", cfg.Render.Output)
	}
	if cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("TTL = %v, want 2h", cfg.Cache.TTL)
	}
	if !cfg.Source.Stubs {
		t.Error("unset source.stubs should keep its default")
	}
	if got := cfg.Palette().ClassColor("UserView"); got != "#abcdef" {
		t.Errorf("Palette().ClassColor(UserView) = %s, want #abcdef", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    mroerrors.Code
	}{
		{"syntax", "[analysis\n", mroerrors.ErrCodeInvalidInput},
		{"unknown key", "[analysis]\nrooot = \"x\"\n", mroerrors.ErrCodeInvalidInput},
		{"bad format", "[render]\nformats = [\"gif\"]\n", mroerrors.ErrCodeInvalidFormat},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", mroerrors.ErrCodeInvalidInput},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", mroerrors.ErrCodeInvalidInput},
		{"bad color", "[[layout.module_colors]]\nkeywords = [\"x\"]\ncolor = \"red\"\n", mroerrors.ErrCodeInvalidInput},
		{"zero methods", "[layout]\nmax_methods = 0\n", mroerrors.ErrCodeInvalidInput},
		{"bad root", "[analysis]\nroot = \"not a name\"\n", mroerrors.ErrCodeInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !mroerrors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() with an explicit missing path should fail")
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}
