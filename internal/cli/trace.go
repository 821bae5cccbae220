package cli

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

// traceCommand creates the trace command.
func (c *CLI) traceCommand() *cobra.Command {
	var (
		flags  analysisFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "trace [class] [method]",
		Short: "Show which ancestors define a method, in resolution order",
		Long: `Show which classes in a class's MRO define a method.

The first line is the definition a call on an instance resolves to; the
following lines are what successive super() calls reach. Omitted arguments
are chosen interactively.

Abstract declarations count as definitions unless --skip-abstract is set.`,
		Example: `  supermro trace Book save
  supermro trace shop.models.Book __init__ --skip-abstract`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 && !c.interactive {
				return mroerrors.New(mroerrors.ErrCodeInvalidInput, "class and method are required")
			}
			opts := flags.options(cmd, c.config())
			if err := c.resolvePackage(&opts); err != nil {
				return err
			}
			res, err := c.analyzeOnce(cmd.Context(), opts, flags.noCache)
			if err != nil {
				return err
			}

			class, method, err := traceTarget(res, args)
			if err != nil {
				return err
			}
			t, err := res.Trace(class, method)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(t)
			}
			writeTrace(os.Stdout, t)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the trace as JSON")

	return cmd
}

// traceTarget returns the class and method named in args, picking the
// missing ones.
func traceTarget(res *pipeline.Result, args []string) (class, method string, err error) {
	if len(args) > 0 {
		class = args[0]
	} else {
		it, err := pickDetailed("Select Class", classItems(res))
		if err != nil {
			return "", "", err
		}
		class = it.Label
	}
	if len(args) > 1 {
		return class, args[1], nil
	}

	c, err := res.Registry.Resolve(class)
	if err != nil {
		return "", "", err
	}
	methods, err := mroMethods(res.Registry, c)
	if err != nil {
		return "", "", err
	}
	method, err = pick("Select Method of "+c.String(), methods)
	return class, method, err
}

// classItems lists the linearized classes outside hidden modules.
func classItems(res *pipeline.Result) []pickItem {
	var items []pickItem
	for _, ch := range res.Chains {
		c, err := res.Registry.Resolve(ch.Class)
		if err != nil || slices.Contains(res.Hidden, c.Module()) {
			continue
		}
		items = append(items, pickItem{Label: ch.Class, Detail: fileHint(c.File())})
	}
	return items
}

// mroMethods lists every method declared anywhere in the MRO of c, sorted.
func mroMethods(reg *hierarchy.Registry, c *hierarchy.ClassDescriptor) ([]string, error) {
	mro, err := reg.MRO(c)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, a := range mro {
		for _, m := range a.Methods() {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}
