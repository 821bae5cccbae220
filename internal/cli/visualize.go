package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/supermro/pkg/pipeline"
)

// visualizeCommand creates the visualize command for rendering the
// inheritance graph.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		flags      analysisFlags
		formatsStr string
		output     string
		font       string
		detailed   bool
	)

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Render the inheritance graph",
		Long: `Render the inheritance graph of a package.

Each module becomes a cluster; each class a node listing its first public
methods; edges run from each class to the next class in its MRO. Classes
that cannot be linearized are left out.

Formats: dot (Graphviz source), svg, png, pdf (needs rsvg-convert) and json
(the layout plan). Rendered files are cached by plan content.`,
		Example: `  supermro visualize
  supermro visualize --package shop -f svg,png -o docs/shop_mro
  supermro visualize -f dot -o - | dot -Tsvg > graph.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			ropts := pipeline.RenderOptions{
				Formats:  cfg.Render.Formats,
				FontName: cfg.Render.FontName,
				Detailed: cfg.Render.Detailed,
			}
			if cmd.Flags().Changed("format") {
				ropts.Formats = parseFormats(formatsStr)
			}
			if cmd.Flags().Changed("font") {
				ropts.FontName = font
			}
			if cmd.Flags().Changed("detailed") {
				ropts.Detailed = detailed
			}
			if err := ropts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if output == "" {
				output = cfg.Render.Output
			}

			opts := flags.options(cmd, cfg)
			if err := c.resolvePackage(&opts); err != nil {
				return err
			}
			return c.runVisualize(cmd.Context(), opts, ropts, output, flags.noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot, svg (default), png, pdf, json (comma-separated)")
	cmd.Flags().StringVar(&font, "font", pipeline.DefaultFontName, "font family for labels")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add the inheritance depth to node labels")

	return cmd
}

// runVisualize analyzes, renders and writes the artifacts.
func (c *CLI) runVisualize(ctx context.Context, opts pipeline.Options, ropts pipeline.RenderOptions, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := c.runAnalyze(ctx, runner, opts)
	if err != nil {
		return err
	}
	if len(res.Plan.Excluded) > 0 {
		printWarning("%d classes left out of the graph", len(res.Plan.Excluded))
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cacheHit, err := runner.Render(ctx, res.Plan, ropts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("visualize: %w", err)
	}
	spinner.Stop()

	if output == "-" {
		if len(ropts.Formats) != 1 {
			return fmt.Errorf("stdout output needs exactly one format, got %d", len(ropts.Formats))
		}
		_, err := os.Stdout.Write(artifacts[ropts.Formats[0]])
		return err
	}

	paths := outputPaths(output, ropts.Formats)
	for _, format := range ropts.Formats {
		path := paths[format]
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	status := iconFresh
	if cacheHit {
		status = iconCached
	}
	printSuccess("Rendered %s %s", res.Source, StyleDim.Render("("+status+")"))
	for _, format := range ropts.Formats {
		printFile(paths[format])
	}
	return nil
}

// outputPaths maps each format to its file. A single format written to a
// path that already carries its extension is used as is; otherwise the
// extension is appended to the base path.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	for _, f := range formats {
		ext := "." + f
		if f == pipeline.FormatJSON {
			ext = ".plan.json"
		}
		if len(formats) == 1 && strings.EqualFold(filepath.Ext(output), "."+f) {
			paths[f] = output
			continue
		}
		paths[f] = output + ext
	}
	return paths
}
