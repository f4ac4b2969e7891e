package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matzehuels/forge/pkg/config"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/forge"
	"github.com/matzehuels/forge/pkg/frontmatter"
)

// =============================================================================
// new
// =============================================================================

func (c *CLI) newCommand() *cobra.Command {
	var (
		description string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "new <kind> <name>",
		Short: "Create a document from its template",
		Long: `Create a document in the workspace from the template of its kind.

Kinds: actor, feature, diagram, spec, session. The file is written to
ai/<kind>s/<id>.<kind>.md, where the ID is derived from the name (sessions get
a random ID).`,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := forge.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			rel, err := createDocument(cfg, k, name, description, force, time.Now)
			if err != nil {
				return err
			}
			printSuccess("Created %s %s", k, StyleHighlight.Render(name))
			printFile(rel)
			if k == forge.KindDiagram {
				printNextStep("Add a node", fmt.Sprintf("forge diagram add-node %s --label Start", rel))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "one-line description")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing document")
	return cmd
}

// createDocument renders and writes a new document, returning its
// workspace-relative path.
func createDocument(cfg config.Config, k forge.Kind, name, description string, force bool, now func() time.Time) (string, error) {
	meta, err := forge.NewMeta(k, name)
	if err != nil {
		return "", err
	}
	meta.Description = description

	tmpl := forge.Templates{Diagram: cfg.Serializer(), Now: now}
	content, err := tmpl.Render(k, meta)
	if err != nil {
		return "", err
	}

	rel := forge.PathFor(k, meta.ID)
	abs := filepath.Join(cfg.Root, filepath.FromSlash(rel))
	if _, err := os.Stat(abs); err == nil && !force {
		return "", errs.New(errs.ErrCodeAlreadyExists, "%s already exists (use --force to overwrite)", rel)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

func kindNames() []string {
	var names []string
	for _, k := range forge.Kinds() {
		names = append(names, string(k))
	}
	return names
}

// =============================================================================
// list
// =============================================================================

func (c *CLI) listCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the documents of the workspace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			docs, err := listDocuments(cfg, kind)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				printInfo("No documents in %s", filepath.Join(cfg.Root, forge.Root))
				printNextStep("Create one", "forge new diagram Checkout")
				return nil
			}

			counts := forge.Counts(docs)
			var current forge.Kind
			for _, d := range docs {
				if d.Kind != current {
					if current != "" {
						printNewline()
					}
					current = d.Kind
					fmt.Println(StyleTitle.Render(d.Kind.Dir()) + " " + StyleDim.Render(fmt.Sprintf("(%d)", counts[d.Kind])))
				}
				line := fmt.Sprintf("  %-32s %s", d.Name, StyleDim.Render(d.Path))
				if d.Problem != "" {
					line += " " + StyleWarning.Render("! "+d.Problem)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only list documents of this kind")
	return cmd
}

func listDocuments(cfg config.Config, kind string) ([]forge.Document, error) {
	docs, err := forge.Discover(cfg.Root)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return docs, nil
	}
	k, err := forge.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return forge.Filter(docs, k), nil
}

// =============================================================================
// show
// =============================================================================

func (c *CLI) showCommand() *cobra.Command {
	var (
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Render a document in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			_, content, err := readDocument(cfg, args[0])
			if err != nil {
				return err
			}
			if raw {
				_, err := fmt.Fprint(c.Out, content)
				return err
			}
			out, err := renderMarkdown(content, width)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.Out, out)
			return err
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the file without rendering")
	cmd.Flags().IntVar(&width, "width", 0, "wrap width (default: terminal width, max 100)")
	return cmd
}

// renderMarkdown renders a document with glamour. The frontmatter is shown
// as a YAML code block above the body.
func renderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = terminalWidth()
	}
	block, body, ok := frontmatter.Split(content)
	md := body
	if ok {
		md = "```yaml\n" + frontmatter.Inner(block) + "\n```\n\n" + body
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return min(w, 100)
}

// =============================================================================
// Helpers
// =============================================================================

// findDocuments returns the workspace documents of kind k.
func findDocuments(cfg config.Config, k forge.Kind) ([]forge.Document, error) {
	docs, err := forge.Discover(cfg.Root)
	if err != nil {
		return nil, err
	}
	return forge.Filter(docs, k), nil
}
