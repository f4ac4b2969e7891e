package forge

import (
	"path"
	"slices"
	"strings"

	errs "github.com/matzehuels/forge/pkg/errors"
)

// Kind identifies the type of a Forge document.
type Kind string

const (
	KindActor   Kind = "actor"
	KindFeature Kind = "feature"
	KindDiagram Kind = "diagram"
	KindSpec    Kind = "spec"
	KindSession Kind = "session"
)

// Root is the workspace directory holding all documents.
const Root = "ai"

type kindInfo struct {
	dir string
	ext string
}

var kinds = map[Kind]kindInfo{
	KindActor:   {dir: "actors", ext: ".actor.md"},
	KindFeature: {dir: "features", ext: ".feature.md"},
	KindDiagram: {dir: "diagrams", ext: ".diagram.md"},
	KindSpec:    {dir: "specs", ext: ".spec.md"},
	KindSession: {dir: "sessions", ext: ".session.md"},
}

// Kinds returns all document kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindActor, KindFeature, KindDiagram, KindSpec, KindSession}
}

// ParseKind converts a user-supplied name ("actor", "actors", "Diagram") into
// a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if _, ok := kinds[k]; !ok {
		names := make([]string, 0, len(kinds))
		for _, k := range Kinds() {
			names = append(names, string(k))
		}
		return "", errs.New(errs.ErrCodeInvalidKind, "unknown document kind %q (available: %s)", s, strings.Join(names, ", "))
	}
	return k, nil
}

// Dir returns the workspace-relative directory of the kind, e.g. "ai/actors".
func (k Kind) Dir() string {
	return path.Join(Root, kinds[k].dir)
}

// Ext returns the file extension of the kind, e.g. ".actor.md".
func (k Kind) Ext() string {
	return kinds[k].ext
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// PathFor returns the workspace-relative, slash-separated path of a document.
func PathFor(k Kind, id string) string {
	return path.Join(k.Dir(), id+k.Ext())
}

// KindOf classifies a filename by its extension.
func KindOf(name string) (Kind, bool) {
	name = strings.ToLower(name)
	for _, k := range Kinds() {
		if strings.HasSuffix(name, kinds[k].ext) && len(name) > len(kinds[k].ext) {
			return k, true
		}
	}
	return "", false
}

// IDFromPath strips the directory and kind extension from a document path.
func IDFromPath(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if k, ok := KindOf(base); ok {
		return base[:len(base)-len(k.Ext())]
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func sortedKinds(ks []Kind) []Kind {
	order := Kinds()
	slices.SortStableFunc(ks, func(a, b Kind) int {
		return slices.Index(order, a) - slices.Index(order, b)
	})
	return ks
}
