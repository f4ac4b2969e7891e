package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/pipeline"
	"github.com/matzehuels/forge/pkg/render"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output  string // output file (single format) or base path (multiple)
	formats []string
	render  pipeline.Options
}

func (c *CLI) diagramExportCommand() *cobra.Command {
	var formatsStr string
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a diagram as DOT, SVG, PNG, PDF or JSON",
		Long: `Export the graph of a diagram document as a node-link drawing.

With a single format and no --output the artifact goes to stdout. With
several formats each is written next to the document (or next to --output)
with the format as extension. PNG and PDF need rsvg-convert on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.render.Formats = parseFormats(formatsStr)
			if err := opts.render.Validate(); err != nil {
				return err
			}
			if needsConverter(opts.render.Formats) && !render.Available() {
				return fmt.Errorf("png and pdf export need rsvg-convert on PATH")
			}
			s, err := c.openDiagrams(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return c.runExport(cmd.Context(), s, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf, json (comma-separated)")
	cmd.Flags().StringVar(&opts.render.Direction, "direction", "LR", "rank direction: LR, TB, RL, BT")
	cmd.Flags().BoolVar(&opts.render.Detailed, "detailed", false, "show classifiers and metadata in labels")
	cmd.Flags().BoolVar(&opts.render.Pinned, "pinned", false, "keep nodes at their canvas positions")
	cmd.Flags().Float64Var(&opts.render.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.render.Refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, s *diagramSession, arg string, opts *exportOpts) error {
	path, content, err := readDocument(s.cfg, arg)
	if err != nil {
		return err
	}

	var spin *Spinner
	if needsConverter(opts.render.Formats) {
		spin = newSpinnerWithContext(ctx, "Rendering "+relPath(s.cfg, path)+"...")
		spin.Start()
	}
	prog := newProgress(c.Logger)
	res, err := s.runner.Execute(ctx, content, opts.render)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	if res.LosesData() {
		printDiagnostics(res.Diagnostics)
	}

	formats := opts.render.Formats
	if len(formats) == 1 && opts.output == "" {
		_, err := c.Out.Write(res.Artifacts[formats[0]])
		return err
	}

	base := basePath(opts.output, path)
	for _, format := range formats {
		out := base + "." + format
		if len(formats) == 1 {
			out = opts.output
		}
		if err := os.WriteFile(out, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		printFile(out)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.RenderHit)
	prog.done("Exported " + relPath(s.cfg, path))
	return nil
}

// basePath derives the base output path. Without an output it is the
// document path minus its extensions (checkout.diagram.md -> checkout); a
// known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		name := filepath.Base(input)
		if i := strings.Index(name, "."); i > 0 {
			name = name[:i]
		}
		return filepath.Join(filepath.Dir(input), name)
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func needsConverter(formats []string) bool {
	return slices.Contains(formats, pipeline.FormatPNG) || slices.Contains(formats, pipeline.FormatPDF)
}
