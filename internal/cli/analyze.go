package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/supermro/pkg/pipeline"
)

// analyzeCommand creates the analyze command, the default entry point.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		flags  analysisFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [class]",
		Short: "Print the method resolution order of every class",
		Long: `Print the method resolution order of every class in a Python package.

Without --package the project path is searched for packages (directories
holding an __init__.py). A single package is used directly; with several, an
interactive picker is shown.

With a class argument, only that class's chain is printed. Classes can be
named by qualified name (shop.models.Book) or, when unambiguous, bare name.

Classes that cannot be linearized are listed with their error; the rest of
the package is still analyzed.`,
		Example: `  supermro analyze
  supermro analyze --package shop -p ./src
  supermro analyze Book
  supermro analyze --manifest classes.yaml --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.config())
			if err := c.resolvePackage(&opts); err != nil {
				return err
			}
			res, err := c.analyzeOnce(cmd.Context(), opts, flags.noCache)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return printClassChain(res, args[0], asJSON)
			}
			if asJSON {
				return printJSON(res.Chains)
			}
			writeReport(os.Stdout, res)
			printStats(res)
			if res.Stats.Failed > 0 {
				printWarning("%d classes could not be linearized", res.Stats.Failed)
			}
			printNextStep("Trace a method", appName+" trace CLASS METHOD")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print chains as JSON")

	return cmd
}

// analyzeOnce runs a single analysis with a runner of its own.
func (c *CLI) analyzeOnce(ctx context.Context, opts pipeline.Options, noCache bool) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	return c.runAnalyze(ctx, runner, opts)
}

// runAnalyze runs an analysis behind a spinner.
func (c *CLI) runAnalyze(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s...", opts.SourceName()))
	spinner.Start()

	res, err := runner.Analyze(ctx, opts)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	prog.done(fmt.Sprintf("Analyzed %d classes", res.Stats.Classes))
	return res, nil
}

func printClassChain(res *pipeline.Result, class string, asJSON bool) error {
	c, err := res.Registry.Resolve(class)
	if err != nil {
		return err
	}
	ancestors, ok := res.Chains.Get(c.String())
	if !ok {
		return fmt.Errorf("%s: %s", c, failureText(c.Err()))
	}
	if asJSON {
		return printJSON(map[string]any{"class": c.String(), "ancestors": ancestors})
	}
	writeChain(os.Stdout, c.String(), ancestors)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
