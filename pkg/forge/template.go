package forge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/forge/pkg/diagram"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/frontmatter"
)

// Meta is the frontmatter shared by every document kind.
type Meta struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Type        Kind   `yaml:"type"`
	Description string `yaml:"description,omitempty"`
}

// NewMeta creates the frontmatter of a new document. Session IDs are random
// UUIDs; every other kind uses the slug of the name.
func NewMeta(k Kind, name string) (Meta, error) {
	if !k.Valid() {
		return Meta{}, errs.New(errs.ErrCodeInvalidKind, "unknown document kind %q", k)
	}
	if err := errs.ValidateDocumentName(name); err != nil {
		return Meta{}, err
	}
	m := Meta{Name: strings.TrimSpace(name), Type: k}
	if k == KindSession {
		m.ID = uuid.NewString()
	} else {
		m.ID = Slug(name)
	}
	return m, nil
}

// Templates renders the initial text of new documents.
type Templates struct {
	// Diagram renders the body of diagram documents. Defaults to the
	// package defaults of [diagram.Serialize].
	Diagram *diagram.Serializer

	// Now stamps the start time of new sessions. Defaults to time.Now.
	Now func() time.Time
}

// Template renders a new document with the default templates.
func Template(k Kind, m Meta) (string, error) {
	return (&Templates{}).Render(k, m)
}

// Render returns the full text of a new document of kind k. A diagram
// document is exactly what the diagram serializer writes for an empty graph,
// so it parses back to an empty diagram.
func (t *Templates) Render(k Kind, m Meta) (string, error) {
	if !k.Valid() {
		return "", errs.New(errs.ErrCodeInvalidKind, "unknown document kind %q", k)
	}
	if m.ID == "" || m.Name == "" {
		return "", errs.New(errs.ErrCodeInvalidInput, "document needs an id and a name")
	}
	m.Type = k

	if k == KindSession {
		return t.session(m)
	}

	front, err := frontmatter.Render(m)
	if err != nil {
		return "", err
	}
	if k == KindDiagram {
		ser := t.Diagram
		if ser == nil {
			ser = diagram.NewSerializer("", diagram.DefaultSkeleton())
		}
		return ser.Serialize(diagram.Empty(), front), nil
	}

	return front + body(k, m), nil
}

var sections = map[Kind][]string{
	KindActor:   {"Goals", "Responsibilities", "Interactions"},
	KindFeature: {"Actors", "Scenarios", "Acceptance Criteria"},
	KindSpec:    {"Overview", "Requirements", "Open Questions"},
	KindSession: {"Goals", "Log"},
}

func (t *Templates) session(m Meta) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	s := Session{
		ID:          m.ID,
		Name:        m.Name,
		Type:        KindSession,
		Description: m.Description,
		Status:      StatusActive,
		StartTime:   now().UTC().Truncate(time.Second),
	}
	front, err := frontmatter.Render(s)
	if err != nil {
		return "", err
	}

	return front + body(KindSession, m), nil
}

// body is the prose skeleton below the frontmatter: a title, the
// description and the section headings of the kind.
func body(k Kind, m Meta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n# %s\n", m.Name)
	if m.Description != "" {
		b.WriteString("\n" + m.Description + "\n")
	}
	for _, sec := range sections[k] {
		fmt.Fprintf(&b, "\n## %s\n", sec)
	}
	return b.String()
}
