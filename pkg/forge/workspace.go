package forge

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/frontmatter"
)

// Document is a file found in a workspace.
type Document struct {
	Path string `json:"path"` // slash-separated, relative to the workspace root
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name"`

	// Problem is set when the frontmatter could not be decoded. The
	// document is still listed with an ID and name taken from its path.
	Problem string `json:"problem,omitempty"`
}

// Discover walks the ai/ tree below root and returns every Forge document,
// ordered by kind and then path. A missing ai/ directory yields no documents.
func Discover(root string) ([]Document, error) {
	base := filepath.Join(root, Root)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}

	var docs []Document
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		k, ok := KindOf(d.Name())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		docs = append(docs, load(p, filepath.ToSlash(rel), k))
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "discover documents in %s", root)
	}

	order := Kinds()
	slices.SortFunc(docs, func(a, b Document) int {
		if c := slices.Index(order, a.Kind) - slices.Index(order, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return docs, nil
}

func load(abs, rel string, k Kind) Document {
	doc := Document{Path: rel, Kind: k, ID: IDFromPath(rel), Name: IDFromPath(rel)}
	data, err := os.ReadFile(abs)
	if err != nil {
		doc.Problem = err.Error()
		return doc
	}
	block, _, ok := frontmatter.Split(string(data))
	if !ok {
		doc.Problem = "no frontmatter"
		return doc
	}
	var m Meta
	if err := frontmatter.Decode(block, &m); err != nil {
		doc.Problem = err.Error()
		return doc
	}
	if m.ID != "" {
		doc.ID = m.ID
	}
	if m.Name != "" {
		doc.Name = m.Name
	}
	return doc
}

// Filter returns the documents of the given kinds. No kinds returns docs
// unchanged.
func Filter(docs []Document, ks ...Kind) []Document {
	if len(ks) == 0 {
		return docs
	}
	var out []Document
	for _, d := range docs {
		if slices.Contains(ks, d.Kind) {
			out = append(out, d)
		}
	}
	return out
}

// Counts returns the number of documents per kind, for kinds that have any.
func Counts(docs []Document) map[Kind]int {
	counts := map[Kind]int{}
	for _, d := range docs {
		counts[d.Kind]++
	}
	return counts
}

// CountedKinds returns the kinds present in counts in display order.
func CountedKinds(counts map[Kind]int) []Kind {
	ks := make([]Kind, 0, len(counts))
	for k := range counts {
		ks = append(ks, k)
	}
	return sortedKinds(ks)
}

// Resolve joins a workspace-relative path onto root after checking that it
// stays inside the workspace.
func Resolve(root, rel string) (string, error) {
	rel = filepath.ToSlash(rel)
	if err := errs.ValidatePath(rel); err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(path.Clean(rel))), nil
}
