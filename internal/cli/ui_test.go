package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

func analyzeDecls(t *testing.T, decls []hierarchy.Declaration) *pipeline.Result {
	t.Helper()
	res, err := pipeline.NewRunner(nil, nil, nil).Analyze(context.Background(), pipeline.Options{Declarations: decls})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	return res
}

var shopDecls = []hierarchy.Declaration{
	{Module: "shop.models", File: "shop/models.py", Name: "Base", Methods: []string{"save"}, Abstract: []string{"save"}},
	{Module: "shop.models", File: "shop/models.py", Name: "Item", Bases: []string{"Base"}, Methods: []string{"save", "price"}},
	{Module: "shop.models", File: "shop/models.py", Name: "Book", Bases: []string{"Item"}},
	{Module: "shop.broken", File: "shop/broken.py", Name: "Orphan", Bases: []string{"Missing"}},
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, analyzeDecls(t, shopDecls))
	out := buf.String()

	for _, want := range []string{
		"Package declarations",
		strings.Repeat("=", 60),
		"Module shop.models (shop/models.py)",
		"  Class Book",
		"→ shop.models.Book",
		"→ shop.models.Item",
		"→ object",
		"Module shop.broken",
		"UNRESOLVED_BASE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	// Chains list the class first and the root last.
	book := out[strings.Index(out, "Class Book"):]
	if strings.Index(book, "shop.models.Book") > strings.Index(book, "object") {
		t.Errorf("Book chain out of order:\n%s", book)
	}
}

func TestWriteReportHidesModules(t *testing.T) {
	res := analyzeDecls(t, shopDecls)
	res.Hidden = []string{"shop.broken"}

	var buf bytes.Buffer
	writeReport(&buf, res)
	if strings.Contains(buf.String(), "Orphan") {
		t.Errorf("hidden module should be left out:\n%s", buf.String())
	}
}

func TestWriteTrace(t *testing.T) {
	res := analyzeDecls(t, shopDecls)
	tr, err := res.Trace("Book", "save")
	if err != nil {
		t.Fatalf("Trace() error: %v", err)
	}

	var buf bytes.Buffer
	writeTrace(&buf, tr)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "shop.models.Book.save() resolution order:") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "shop.models.Item.save() defined in shop/models.py") {
		t.Errorf("first step = %q", lines[1])
	}
	if !strings.Contains(lines[2], "shop.models.Base.save()") || !strings.Contains(lines[2], "(abstract)") {
		t.Errorf("second step = %q, want abstract Base", lines[2])
	}
}

func TestFailureText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "not linearized"},
		{"coded", mroerrors.New(mroerrors.ErrCodeCyclicInheritance, "cycle A -> B -> A"), "CYCLIC_INHERITANCE: cycle A -> B -> A"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		if got := failureText(tt.err); got != tt.want {
			t.Errorf("failureText(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFileHint(t *testing.T) {
	if got := fileHint(""); got != "unknown" {
		t.Errorf("fileHint(\"\") = %q, want unknown", got)
	}
	if got := fileHint("a.py"); got != "a.py" {
		t.Errorf("fileHint(a.py) = %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	out := formatStats(analyzeDecls(t, shopDecls))
	for _, want := range []string{"4 classes", "2 modules", "1 failed", iconFresh} {
		if !strings.Contains(out, want) {
			t.Errorf("formatStats() = %q, missing %q", out, want)
		}
	}
}
