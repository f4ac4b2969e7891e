package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/config"
	"github.com/matzehuels/forge/pkg/diagram"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/frontmatter"
	"github.com/matzehuels/forge/pkg/pipeline"
	"github.com/matzehuels/forge/pkg/shapes"
)

// diagramCommand creates the diagram command group.
func (c *CLI) diagramCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diagram",
		Aliases: []string{"d"},
		Short:   "Parse, format, validate, export and edit diagram documents",
	}

	cmd.AddCommand(c.diagramParseCommand())
	cmd.AddCommand(c.diagramFmtCommand())
	cmd.AddCommand(c.diagramValidateCommand())
	cmd.AddCommand(c.diagramExportCommand())
	cmd.AddCommand(c.diagramAddNodeCommand())
	cmd.AddCommand(c.diagramAddEdgeCommand())
	cmd.AddCommand(c.diagramRemoveNodeCommand())

	return cmd
}

// diagramSession bundles what every diagram subcommand needs.
type diagramSession struct {
	cfg    config.Config
	runner *pipeline.Runner
}

func (c *CLI) openDiagrams(ctx context.Context) (*diagramSession, error) {
	cfg, err := c.loadWorkspace()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &diagramSession{cfg: cfg, runner: runner}, nil
}

func (s *diagramSession) Close() error { return s.runner.Close() }

// =============================================================================
// parse
// =============================================================================

func (c *CLI) diagramParseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a diagram document and print its graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.runParse(cmd.Context(), s, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the graph and diagnostics as JSON")
	return cmd
}

func (c *CLI) runParse(ctx context.Context, s *diagramSession, arg string, asJSON bool) error {
	path, content, err := readDocument(s.cfg, arg)
	if err != nil {
		return err
	}
	parsed, hit, err := s.runner.ParseWithCacheInfo(ctx, content, false)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(parsed)
	}

	printSuccess("Parsed %s", relPath(s.cfg, path))
	printStats(parsed.Data.NodeCount(), parsed.Data.EdgeCount(), hit)
	for _, n := range parsed.Data.Nodes {
		printDetail("node %s", describeNode(n))
	}
	for _, e := range parsed.Data.Edges {
		printDetail("edge %s", describeEdge(e))
	}
	printDiagnostics(parsed.Diagnostics)
	return nil
}

func describeNode(n diagram.Node) string {
	var b strings.Builder
	b.WriteString(n.ID)
	if n.Classifier != "" {
		fmt.Fprintf(&b, " <%s>", n.Classifier)
	}
	if n.Label != "" && n.Label != n.ID {
		fmt.Fprintf(&b, " %q", n.Label)
	}
	return b.String()
}

func describeEdge(e diagram.Edge) string {
	s := e.Source + " -> " + e.Target
	if e.Label != "" {
		s += " : " + e.Label
	}
	if e.ID != diagram.DefaultEdgeID(e.Source, e.Target) {
		s += " (" + e.ID + ")"
	}
	return s
}

func printDiagnostics(diags []diagram.Diagnostic) {
	for _, d := range diags {
		if d.LosesData() {
			printWarning("%s", d)
		} else {
			printInfo("%s", d)
		}
	}
}

// =============================================================================
// fmt
// =============================================================================

func (c *CLI) diagramFmtCommand() *cobra.Command {
	var (
		write bool
		force bool
		title string
	)

	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Rewrite a diagram document in canonical form",
		Long: `Parse a diagram document and serialize it again with its own frontmatter.

The prose around the diagram block is replaced by the configured skeleton.
Without --write the result is printed. Content the parser had to skip would be
lost by rewriting, so --write refuses such documents unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.runFmt(cmd.Context(), s, args[0], fmtOpts{write: write, force: force, title: title})
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "write the result back to the file")
	cmd.Flags().BoolVar(&force, "force", false, "write even if skipped content would be lost")
	cmd.Flags().StringVar(&title, "title", "", "heading written above the diagram block")
	return cmd
}

type fmtOpts struct {
	write bool
	force bool
	title string
}

func (c *CLI) runFmt(ctx context.Context, s *diagramSession, arg string, opts fmtOpts) error {
	path, content, err := readDocument(s.cfg, arg)
	if err != nil {
		return err
	}
	parsed, err := s.runner.Parse(ctx, content)
	if err != nil {
		return err
	}

	ser := s.cfg.Serializer()
	if opts.title != "" {
		ser.Skeleton.Title = opts.title
	}
	front, _, _ := frontmatter.Split(content)
	out := ser.Serialize(parsed.Data, front)

	if !opts.write {
		_, err := fmt.Fprint(c.Out, out)
		return err
	}

	rel := relPath(s.cfg, path)
	if parsed.LosesData() && !opts.force {
		printDiagnostics(parsed.Diagnostics)
		return errs.New(errs.ErrCodeInvalidDiagram, "%s has content the parser skipped; rerun with --force to drop it", rel)
	}
	if out == content {
		printInfo("%s is already formatted", rel)
		return nil
	}
	if err := writeDocument(path, out); err != nil {
		return err
	}
	printSuccess("Formatted %s", rel)
	return nil
}

// =============================================================================
// validate
// =============================================================================

func (c *CLI) diagramValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Report skipped content and unknown shapes in diagram documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.runValidate(cmd.Context(), s, args)
		},
	}
}

// validation is the outcome of checking one document.
type validation struct {
	Path        string
	Diagnostics []diagram.Diagnostic
	Unknown     []string // classifiers missing from the shape registry
}

// Failed reports whether the document lost content on parse.
func (v validation) Failed() bool {
	for _, d := range v.Diagnostics {
		if d.LosesData() {
			return true
		}
	}
	return false
}

func validateContent(ctx context.Context, runner *pipeline.Runner, path, content string) (validation, error) {
	parsed, err := runner.Parse(ctx, content)
	if err != nil {
		return validation{}, err
	}
	v := validation{Path: path, Diagnostics: parsed.Diagnostics}
	seen := map[string]bool{}
	for _, n := range parsed.Data.Nodes {
		if n.Classifier == "" || shapes.Known(n.Classifier) || seen[n.Classifier] {
			continue
		}
		seen[n.Classifier] = true
		v.Unknown = append(v.Unknown, n.Classifier)
	}
	return v, nil
}

func (c *CLI) runValidate(ctx context.Context, s *diagramSession, args []string) error {
	failed := 0
	for _, arg := range args {
		path, content, err := readDocument(s.cfg, arg)
		if err != nil {
			return err
		}
		v, err := validateContent(ctx, s.runner, relPath(s.cfg, path), content)
		if err != nil {
			return err
		}
		reportValidation(v)
		if v.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return errs.New(errs.ErrCodeInvalidDiagram, "%d of %d document(s) failed validation", failed, len(args))
	}
	return nil
}

func reportValidation(v validation) {
	switch {
	case v.Failed():
		printError("%s", v.Path)
	case len(v.Diagnostics) > 0 || len(v.Unknown) > 0:
		printWarning("%s", v.Path)
	default:
		printSuccess("%s", v.Path)
	}
	for _, d := range v.Diagnostics {
		printDetail("%s", d)
	}
	for _, cl := range v.Unknown {
		printDetail("unknown classifier %q (drawn as %s)", cl, shapes.Default)
	}
}

// =============================================================================
// add-node / add-edge / remove-node
// =============================================================================

func (c *CLI) diagramAddNodeCommand() *cobra.Command {
	var (
		n    diagram.Node
		x, y float64
	)

	cmd := &cobra.Command{
		Use:   "add-node <file>",
		Short: "Add a node to a diagram document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errs.ValidateClassifier(n.Classifier); err != nil {
				return err
			}
			if n.Classifier != "" && !shapes.Known(n.Classifier) {
				printWarning("unknown classifier %q, drawn as %s", n.Classifier, shapes.Default)
			}
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				shape := shapes.MustLookup(n.Classifier)
				n.X, n.Y, n.Width, n.Height = x, y, shape.Width, shape.Height
			}
			if n.ID == "" {
				n.ID = n.Label
			}
			if n.ID == "" {
				n.ID = "n-" + uuid.NewString()[:8]
			}
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.editDiagram(cmd.Context(), s, args[0], "Added node "+n.ID, func(d *diagram.Data) error {
				return d.AddNode(n)
			})
		},
	}

	cmd.Flags().StringVar(&n.Label, "label", "", "node label")
	cmd.Flags().StringVar(&n.Classifier, "classifier", "", "node shape (see forge shapes)")
	cmd.Flags().StringVar(&n.ID, "id", "", "node ID (default: the label)")
	cmd.Flags().Float64Var(&x, "x", 0, "canvas x position")
	cmd.Flags().Float64Var(&y, "y", 0, "canvas y position")
	return cmd
}

func (c *CLI) diagramAddEdgeCommand() *cobra.Command {
	var e diagram.Edge

	cmd := &cobra.Command{
		Use:   "add-edge <file> <source> <target>",
		Short: "Connect two nodes of a diagram document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.Source, e.Target = args[1], args[2]
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.editDiagram(cmd.Context(), s, args[0], "Added edge "+e.Source+" -> "+e.Target, func(d *diagram.Data) error {
				return d.AddEdge(e)
			})
		},
	}

	cmd.Flags().StringVar(&e.Label, "label", "", "edge label")
	cmd.Flags().StringVar(&e.ID, "id", "", "edge ID (default: source->target)")
	return cmd
}

func (c *CLI) diagramRemoveNodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-node <file> <id>",
		Short: "Remove a node and its edges from a diagram document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.editDiagram(cmd.Context(), s, args[0], "Removed node "+args[1], func(d *diagram.Data) error {
				return d.RemoveNode(args[1])
			})
		},
	}
}

// editDiagram runs a parse, mutate, serialize cycle on a document, keeping
// its frontmatter. Documents with skipped content are left untouched.
func (c *CLI) editDiagram(ctx context.Context, s *diagramSession, arg, done string, mutate func(*diagram.Data) error) error {
	path, content, err := readDocument(s.cfg, arg)
	if err != nil {
		return err
	}
	parsed, err := s.runner.Parse(ctx, content)
	if err != nil {
		return err
	}
	rel := relPath(s.cfg, path)
	if parsed.LosesData() {
		printDiagnostics(parsed.Diagnostics)
		return errs.New(errs.ErrCodeInvalidDiagram, "%s has content the parser skipped; fix it or run forge diagram fmt --write --force", rel)
	}

	d := parsed.Data.Clone()
	if err := mutate(&d); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidDiagram, err, "edit %s", rel)
	}
	front, _, _ := frontmatter.Split(content)
	if err := writeDocument(path, s.cfg.Serializer().Serialize(d, front)); err != nil {
		return err
	}
	printSuccess("%s", done)
	printDetail("%s · %d nodes · %d edges", rel, d.NodeCount(), d.EdgeCount())
	return nil
}
