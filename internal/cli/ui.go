package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failed classes.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleModule  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	styleClass   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints analysis statistics on a single line.
func printStats(res *pipeline.Result) {
	fmt.Println(formatStats(res))
}

func formatStats(res *pipeline.Result) string {
	parts := []string{
		fmt.Sprintf("%d classes", res.Stats.Classes),
		fmt.Sprintf("%d modules", res.Stats.Modules),
	}
	if res.Stats.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", res.Stats.Failed))
	}
	if n := len(res.LoadFailures); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped modules", n))
	}

	status, statusStyle := iconFresh, styleComputed
	if res.CacheInfo.SourceHit {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	return line + StyleDim.Render(" · ") + statusStyle.Render(status)
}

// =============================================================================
// Reports
// =============================================================================

// writeReport prints every module of the analysis with the chain of each of
// its classes, followed by the failures.
func writeReport(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w, StyleTitle.Render("Package "+res.Source))
	fmt.Fprintln(w, StyleDim.Render(strings.Repeat("=", 60)))

	chains := res.Chains.Map()
	for _, m := range res.Registry.Modules() {
		if slices.Contains(res.Hidden, m.Name()) {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", styleModule.Render("Module "+m.Name()), StyleDim.Render("("+m.File()+")"))
		for _, c := range m.Classes() {
			fmt.Fprintln(w)
			fmt.Fprintln(w, styleClass.Render("  Class "+c.Name()))
			ancestors, ok := chains[c.String()]
			if !ok {
				fmt.Fprintf(w, "    %s %s\n", styleIconError.Render(iconError), StyleError.Render(failureText(c.Err())))
				continue
			}
			for _, a := range ancestors {
				fmt.Fprintf(w, "    %s %s\n", StyleDim.Render(iconArrow), a)
			}
		}
	}

	if len(res.LoadFailures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleWarning.Render("Skipped modules"))
		for _, f := range res.LoadFailures {
			fmt.Fprintf(w, "  %s %s %s\n", styleIconWarning.Render(iconWarning), f.Module, StyleDim.Render(mroerrors.UserMessage(f.Err)))
		}
	}
	fmt.Fprintln(w)
}

// writeChain prints the chain of a single class.
func writeChain(w io.Writer, class string, ancestors []string) {
	fmt.Fprintln(w, styleClass.Render(class))
	for _, a := range ancestors {
		fmt.Fprintf(w, "  %s %s\n", StyleDim.Render(iconArrow), a)
	}
}

// writeTrace prints the ancestors defining a method, the first one being the
// definition a call resolves to.
func writeTrace(w io.Writer, t *hierarchy.Trace) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s.%s() resolution order:", t.Class, t.Method)))
	for i, s := range t.Steps {
		marker := StyleDim.Render(iconArrow)
		if i == 0 {
			marker = styleIconSuccess.Render(iconArrow)
		}
		line := fmt.Sprintf("  %s %s.%s() defined in %s", marker, s.Class, t.Method, fileHint(s.File))
		if s.Abstract {
			line += StyleDim.Render(" (abstract)")
		}
		fmt.Fprintln(w, line)
	}
}

// failureText renders a class failure as "CODE: message".
func failureText(err error) string {
	if err == nil {
		return "not linearized"
	}
	if code := mroerrors.GetCode(err); code != "" {
		return string(code) + ": " + mroerrors.UserMessage(err)
	}
	return err.Error()
}

func fileHint(file string) string {
	if file == "" {
		return "unknown"
	}
	return file
}
