package forge

import (
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/frontmatter"
)

// Status is the lifecycle state of a work session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// ChangeType records what a session did to a file.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// Session is the frontmatter of a session document.
type Session struct {
	ID           string       `yaml:"id"`
	Name         string       `yaml:"name"`
	Type         Kind         `yaml:"type"`
	Description  string       `yaml:"description,omitempty"`
	Status       Status       `yaml:"status"`
	StartTime    time.Time    `yaml:"start_time"`
	EndTime      *time.Time   `yaml:"end_time,omitempty"`
	ChangedFiles ChangedFiles `yaml:"changed_files,omitempty"`
}

// ChangedFile is one entry of a session's changed_files list. It is either
// a [LegacyPath], written by older tools as a bare string, or a
// [DetailedEntry]. Consumers match on the concrete type.
type ChangedFile interface {
	// FilePath returns the workspace-relative path of the file.
	FilePath() string

	changedFile()
}

// LegacyPath is a changed file recorded as a plain path.
type LegacyPath string

func (p LegacyPath) FilePath() string { return string(p) }
func (LegacyPath) changedFile()       {}

// DetailedEntry is a changed file with the kind of change and the feature
// scenarios it touched.
type DetailedEntry struct {
	Path       string     `yaml:"path"`
	ChangeType ChangeType `yaml:"change_type,omitempty"`
	Scenarios  []string   `yaml:"scenarios,omitempty"`
}

func (e DetailedEntry) FilePath() string { return e.Path }
func (DetailedEntry) changedFile()       {}

// ChangedFiles is a list of changed files that decodes both entry shapes.
type ChangedFiles []ChangedFile

// UnmarshalYAML decodes each sequence item by its node kind: scalars become
// LegacyPath, mappings become DetailedEntry.
func (c *ChangedFiles) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: changed_files must be a list", node.Line)
	}
	out := make(ChangedFiles, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			if item.Value == "" {
				return fmt.Errorf("line %d: empty changed file path", item.Line)
			}
			out = append(out, LegacyPath(item.Value))
		case yaml.MappingNode:
			var e DetailedEntry
			if err := item.Decode(&e); err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			if e.Path == "" {
				return fmt.Errorf("line %d: changed file entry without path", item.Line)
			}
			out = append(out, e)
		default:
			return fmt.Errorf("line %d: changed file must be a path or a mapping", item.Line)
		}
	}
	*c = out
	return nil
}

// MarshalYAML writes LegacyPath entries back as plain strings.
func (c ChangedFiles) MarshalYAML() (any, error) {
	out := make([]any, 0, len(c))
	for _, cf := range c {
		switch v := cf.(type) {
		case LegacyPath:
			out = append(out, string(v))
		case DetailedEntry:
			out = append(out, v)
		default:
			return nil, fmt.Errorf("unsupported changed file %T", cf)
		}
	}
	return out, nil
}

// ReadSession decodes the frontmatter of a session document.
func ReadSession(content string) (Session, error) {
	block, _, ok := frontmatter.Split(content)
	if !ok {
		return Session{}, errs.New(errs.ErrCodeInvalidDocument, "session document has no frontmatter")
	}
	var s Session
	if err := frontmatter.Decode(block, &s); err != nil {
		return Session{}, errs.Wrap(errs.ErrCodeInvalidDocument, err, "read session")
	}
	if s.ID == "" {
		return Session{}, errs.New(errs.ErrCodeInvalidDocument, "session has no id")
	}
	return s, nil
}

// Rewrite replaces the frontmatter of a session document with s, keeping
// the body.
func (s Session) Rewrite(content string) (string, error) {
	front, err := frontmatter.Render(s)
	if err != nil {
		return "", err
	}
	_, body, _ := frontmatter.Split(content)
	return front + body, nil
}

// Record adds a change to the session. A file recorded again keeps one entry:
// the latest change type wins and scenarios are merged. Recording a change
// type or scenario upgrades a legacy entry to a detailed one.
func (s *Session) Record(path string, ct ChangeType, scenarios ...string) {
	for i, cf := range s.ChangedFiles {
		if cf.FilePath() != path {
			continue
		}
		e := DetailedEntry{Path: path}
		if prev, ok := cf.(DetailedEntry); ok {
			e = prev
			e.Scenarios = slices.Clone(prev.Scenarios)
		}
		if ct != "" {
			e.ChangeType = ct
		}
		for _, sc := range scenarios {
			if !slices.Contains(e.Scenarios, sc) {
				e.Scenarios = append(e.Scenarios, sc)
			}
		}
		s.ChangedFiles[i] = e
		return
	}
	s.ChangedFiles = append(s.ChangedFiles, DetailedEntry{Path: path, ChangeType: ct, Scenarios: slices.Clone(scenarios)})
}

// End marks the session finished at t.
func (s *Session) End(status Status, t time.Time) {
	t = t.UTC().Truncate(time.Second)
	s.Status = status
	s.EndTime = &t
}

// Summary is what the session indicator shows.
type Summary struct {
	Files     int
	Scenarios int
	Added     int
	Modified  int
	Deleted   int
}

// Indicator summarizes the changed files of a session. Legacy entries and
// entries without a change type count as modified.
func Indicator(s Session) Summary {
	var sum Summary
	for _, cf := range s.ChangedFiles {
		sum.Files++
		ct := ChangeModified
		switch v := cf.(type) {
		case DetailedEntry:
			sum.Scenarios += len(v.Scenarios)
			if v.ChangeType != "" {
				ct = v.ChangeType
			}
		}
		switch ct {
		case ChangeAdded:
			sum.Added++
		case ChangeDeleted:
			sum.Deleted++
		default:
			sum.Modified++
		}
	}
	return sum
}

// Duration returns how long the session ran, up to now for active sessions.
func (s Session) Duration(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}
