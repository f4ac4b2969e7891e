package diagram

import (
	"bytes"
	"strings"
)

// Skeleton is the fixed document layout written around the diagram block.
// Prose of the source document is not carried over; every save regenerates
// the skeleton.
type Skeleton struct {
	Title      string   // text of the level-one heading
	Directives []string // nomnoml directives written at the top of the block, e.g. "#direction: right"
	Sections   []string // level-two headings written after the block
}

// DefaultSkeleton is the layout used by [Serialize].
func DefaultSkeleton() Skeleton {
	return Skeleton{Title: "Diagram", Sections: []string{"Notes"}}
}

// Serializer renders diagram data back into document text.
type Serializer struct {
	Language string
	Skeleton Skeleton
}

// NewSerializer creates a serializer with the given fence language (empty
// selects DefaultLanguage) and skeleton.
func NewSerializer(language string, sk Skeleton) *Serializer {
	if language == "" {
		language = DefaultLanguage
	}
	return &Serializer{Language: language, Skeleton: sk}
}

// Serialize renders d with the default language and skeleton.
// See [Serializer.Serialize].
func Serialize(d Data, frontmatterBlock string) string {
	return NewSerializer("", DefaultSkeleton()).Serialize(d, frontmatterBlock)
}

// Serialize returns the full document text: the frontmatter block as given
// (it must already carry its "---" delimiters), then the skeleton with the
// diagram block holding one directive per node followed by one per edge.
//
// Serialize does not validate d. Data that breaks referential integrity is
// written as is and its dangling edges are dropped on the next parse.
func (s *Serializer) Serialize(d Data, frontmatterBlock string) string {
	var buf bytes.Buffer
	if frontmatterBlock != "" {
		buf.WriteString(frontmatterBlock)
		if !strings.HasSuffix(frontmatterBlock, "\n") {
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}

	title := s.Skeleton.Title
	if title == "" {
		title = DefaultSkeleton().Title
	}
	buf.WriteString("# " + title + "\n\n")

	lang := s.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	buf.WriteString("```" + lang + "\n")
	for _, dir := range s.Skeleton.Directives {
		buf.WriteString(dir + "\n")
	}
	for _, n := range d.Nodes {
		buf.WriteString(encodeNode(n) + "\n")
	}
	for _, e := range d.Edges {
		buf.WriteString(encodeEdge(e) + "\n")
	}
	buf.WriteString("```\n")

	for _, sec := range s.Skeleton.Sections {
		buf.WriteString("\n## " + sec + "\n")
	}
	return buf.String()
}
