package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/config"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/forge"
)

// sessionCommand creates the session command group.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Track the files touched by a work session",
		Long: `Work sessions are documents in ai/sessions. Start one with
"forge new session <name>", record changes while working, and end it.

Commands taking a session accept its file path or ID. Without one they use
the only active session of the workspace.`,
	}

	cmd.AddCommand(c.sessionStatusCommand())
	cmd.AddCommand(c.sessionRecordCommand())
	cmd.AddCommand(c.sessionEndCommand())

	return cmd
}

func (c *CLI) sessionStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [session]",
		Short: "Show the changed-file summary of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			sf, err := openSession(cfg, args)
			if err != nil {
				return err
			}
			printSessionStatus(sf.session, time.Now())
			return nil
		},
	}
}

func (c *CLI) sessionRecordCommand() *cobra.Command {
	var (
		session   string
		change    string
		scenarios []string
	)

	cmd := &cobra.Command{
		Use:   "record <file>...",
		Short: "Record changed files in a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := forge.ChangeType(strings.ToLower(change))
			if !slices.Contains([]forge.ChangeType{forge.ChangeAdded, forge.ChangeModified, forge.ChangeDeleted}, ct) {
				return errs.New(errs.ErrCodeInvalidInput, "unknown change type %q (available: added, modified, deleted)", change)
			}
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			var sel []string
			if session != "" {
				sel = []string{session}
			}
			sf, err := openSession(cfg, sel)
			if err != nil {
				return err
			}
			if sf.session.Status != forge.StatusActive {
				return errs.New(errs.ErrCodeInvalidInput, "session %s is %s", sf.session.Name, sf.session.Status)
			}
			for _, arg := range args {
				if err := errs.ValidatePath(arg); err != nil {
					return err
				}
				sf.session.Record(arg, ct, scenarios...)
			}
			if err := sf.save(); err != nil {
				return err
			}
			printSuccess("Recorded %d file(s) in %s", len(args), sf.session.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "session path or ID")
	cmd.Flags().StringVarP(&change, "change", "c", string(forge.ChangeModified), "change type: added, modified, deleted")
	cmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "feature scenario covered by the change (repeatable)")
	return cmd
}

func (c *CLI) sessionEndCommand() *cobra.Command {
	var abandon bool

	cmd := &cobra.Command{
		Use:   "end [session]",
		Short: "Mark a session completed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			sf, err := openSession(cfg, args)
			if err != nil {
				return err
			}
			if sf.session.Status != forge.StatusActive {
				return errs.New(errs.ErrCodeInvalidInput, "session %s is already %s", sf.session.Name, sf.session.Status)
			}
			status := forge.StatusCompleted
			if abandon {
				status = forge.StatusAbandoned
			}
			now := time.Now()
			sf.session.End(status, now)
			if err := sf.save(); err != nil {
				return err
			}
			printSuccess("Session %s %s", sf.session.Name, status)
			printSessionStatus(sf.session, now)
			return nil
		},
	}

	cmd.Flags().BoolVar(&abandon, "abandon", false, "mark the session abandoned instead of completed")
	return cmd
}

// =============================================================================
// Session files
// =============================================================================

// sessionFile is a loaded session document.
type sessionFile struct {
	path    string
	content string
	session forge.Session
}

func (f *sessionFile) save() error {
	out, err := f.session.Rewrite(f.content)
	if err != nil {
		return err
	}
	if err := writeDocument(f.path, out); err != nil {
		return err
	}
	f.content = out
	return nil
}

// openSession loads the session named by args[0] (a path or an ID), or the
// single active session when args is empty.
func openSession(cfg config.Config, args []string) (*sessionFile, error) {
	if len(args) == 0 {
		return activeSession(cfg)
	}
	arg := args[0]
	if _, ok := forge.KindOf(arg); !ok {
		arg = forge.PathFor(forge.KindSession, arg)
	}
	path, content, err := readDocument(cfg, arg)
	if err != nil {
		if errs.Is(err, errs.ErrCodeFileNotFound) {
			return nil, errs.New(errs.ErrCodeSessionNotFound, "session not found: %s", args[0])
		}
		return nil, err
	}
	s, err := forge.ReadSession(content)
	if err != nil {
		return nil, err
	}
	return &sessionFile{path: path, content: content, session: s}, nil
}

func activeSession(cfg config.Config) (*sessionFile, error) {
	docs, err := findDocuments(cfg, forge.KindSession)
	if err != nil {
		return nil, err
	}
	var active []*sessionFile
	for _, d := range docs {
		sf, err := openSession(cfg, []string{d.Path})
		if err != nil {
			continue
		}
		if sf.session.Status == forge.StatusActive {
			active = append(active, sf)
		}
	}
	switch len(active) {
	case 0:
		return nil, errs.New(errs.ErrCodeSessionNotFound, "no active session (start one with forge new session <name>)")
	case 1:
		return active[0], nil
	}
	names := make([]string, len(active))
	for i, sf := range active {
		names[i] = sf.session.ID
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "%d active sessions, name one of: %s", len(active), strings.Join(names, ", "))
}

// =============================================================================
// Output
// =============================================================================

// indicatorLine renders the one-line session indicator, e.g.
// "4 files · +1 ~2 -1 · 3 scenarios".
func indicatorLine(sum forge.Summary) string {
	parts := []string{fmt.Sprintf("%d files", sum.Files)}
	if sum.Files > 0 {
		parts = append(parts, fmt.Sprintf("+%d ~%d -%d", sum.Added, sum.Modified, sum.Deleted))
	}
	if sum.Scenarios > 0 {
		parts = append(parts, fmt.Sprintf("%d scenarios", sum.Scenarios))
	}
	return strings.Join(parts, " · ")
}

func printSessionStatus(s forge.Session, now time.Time) {
	printKeyValue("Session", s.Name)
	printKeyValue("Status", string(s.Status))
	printKeyValue("Duration", s.Duration(now).Round(time.Second).String())
	printKeyValue("Changes", indicatorLine(forge.Indicator(s)))
	for _, cf := range s.ChangedFiles {
		switch v := cf.(type) {
		case forge.DetailedEntry:
			ct := v.ChangeType
			if ct == "" {
				ct = forge.ChangeModified
			}
			line := fmt.Sprintf("%-8s %s", ct, v.Path)
			if len(v.Scenarios) > 0 {
				line += " [" + strings.Join(v.Scenarios, ", ") + "]"
			}
			printDetail("%s", line)
		case forge.LegacyPath:
			printDetail("%-8s %s", forge.ChangeModified, v)
		}
	}
}
