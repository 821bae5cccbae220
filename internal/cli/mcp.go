package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supermro/pkg/buildinfo"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

// mcpCommand creates the mcp command, a Model Context Protocol server on
// stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve analyses to MCP clients over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
  analyze_hierarchy  MRO of every class in a package
  class_chain        MRO of one class
  trace_method       ancestors defining a method, in resolution order

Packages are loaded from --project-path only. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.config())
			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts.Logger = c.Logger
			tools := &mcpTools{runner: runner, defaults: opts}
			c.Logger.Info("starting MCP server on stdio", "project", opts.ProjectPath)
			return server.ServeStdio(tools.server())
		},
	}

	flags.register(cmd)
	return cmd
}

// mcpTools implements the MCP tool handlers over a shared runner.
type mcpTools struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
}

func (t *mcpTools) server() *server.MCPServer {
	s := server.NewMCPServer(
		appName,
		buildinfo.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	packageArg := mcp.WithString("package",
		mcp.Description("Dotted name of the Python package to analyze, relative to the server's project path. Defaults to the server's package."),
	)

	s.AddTool(mcp.NewTool("analyze_hierarchy",
		mcp.WithDescription("Compute the C3 method resolution order of every class in a Python package."),
		packageArg,
		mcp.WithString("output_format",
			mcp.Description("Report format."),
			mcp.DefaultString("text"),
			mcp.Enum("text", "json"),
		),
	), t.analyzeHierarchy)

	s.AddTool(mcp.NewTool("class_chain",
		mcp.WithDescription("Return the method resolution order of one class."),
		mcp.WithString("class",
			mcp.Description("Qualified (shop.models.Book) or unambiguous bare class name."),
			mcp.Required(),
		),
		packageArg,
	), t.classChain)

	s.AddTool(mcp.NewTool("trace_method",
		mcp.WithDescription("List the ancestors of a class that define a method, in the order super() reaches them. The first entry is the definition a call resolves to."),
		mcp.WithString("class",
			mcp.Description("Qualified (shop.models.Book) or unambiguous bare class name."),
			mcp.Required(),
		),
		mcp.WithString("method",
			mcp.Description("Method name, e.g. save or __init__."),
			mcp.Required(),
		),
		packageArg,
		mcp.WithBoolean("skip_abstract",
			mcp.Description("Leave out classes that only declare the method as abstract."),
		),
	), t.traceMethod)

	return s
}

// analyze runs an analysis for the package named in args.
func (t *mcpTools) analyze(ctx context.Context, args map[string]interface{}) (*pipeline.Result, error) {
	opts := t.defaults
	if pkg, ok := args["package"].(string); ok && pkg != "" {
		opts.Package = pkg
	}
	if skip, ok := args["skip_abstract"].(bool); ok {
		opts.SkipAbstract = skip
	}
	if opts.Package == "" && opts.Manifest == "" {
		return nil, fmt.Errorf("missing required argument: package (string)")
	}
	return t.runner.Analyze(ctx, opts)
}

func (t *mcpTools) analyzeHierarchy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	format, ok := args["output_format"].(string)
	if !ok {
		format = "text"
	}

	res, err := t.analyze(ctx, args)
	if err != nil {
		return nil, err
	}

	if format == "json" {
		return jsonResult(res.Chains)
	}
	var buf bytes.Buffer
	writeReport(&buf, res)
	buf.WriteString(formatStats(res))
	buf.WriteString("\n")
	return textResult(buf.String()), nil
}

func (t *mcpTools) classChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	class, ok := args["class"].(string)
	if !ok || class == "" {
		return nil, fmt.Errorf("missing or invalid required argument: class (string)")
	}

	res, err := t.analyze(ctx, args)
	if err != nil {
		return nil, err
	}
	c, err := res.Registry.Resolve(class)
	if err != nil {
		return nil, err
	}
	ancestors, ok := res.Chains.Get(c.String())
	if !ok {
		return nil, fmt.Errorf("%s: %s", c, failureText(c.Err()))
	}
	var buf bytes.Buffer
	writeChain(&buf, c.String(), ancestors)
	return textResult(buf.String()), nil
}

func (t *mcpTools) traceMethod(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	class, ok := args["class"].(string)
	if !ok || class == "" {
		return nil, fmt.Errorf("missing or invalid required argument: class (string)")
	}
	method, ok := args["method"].(string)
	if !ok || method == "" {
		return nil, fmt.Errorf("missing or invalid required argument: method (string)")
	}

	res, err := t.analyze(ctx, args)
	if err != nil {
		return nil, err
	}
	tr, err := res.Trace(class, method)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeTrace(&buf, tr)
	return textResult(buf.String()), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return textResult(string(data)), nil
}
