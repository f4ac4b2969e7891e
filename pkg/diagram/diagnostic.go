package diagram

import "fmt"

// DiagnosticKind classifies content the parser skipped.
type DiagnosticKind string

const (
	// KindMalformed marks a fence line that is neither a node, an edge, nor
	// an ignorable comment or directive.
	KindMalformed DiagnosticKind = "malformed"

	// KindDanglingEdge marks an edge whose source or target is not declared.
	KindDanglingEdge DiagnosticKind = "dangling-edge"

	// KindDuplicateID marks a node or edge whose ID was already declared.
	KindDuplicateID DiagnosticKind = "duplicate-id"

	// KindExtraFence marks a diagram block after the first one.
	KindExtraFence DiagnosticKind = "extra-fence"
)

// Diagnostic describes one piece of skipped content. Line is the 1-based
// line in the full document, frontmatter included.
type Diagnostic struct {
	Line    int            `json:"line"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

// String formats the diagnostic as "line N: kind: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Message)
}

// LosesData reports whether the diagnostic stands for graph content that
// did not make it into the parsed data. Extra fences are informational.
func (d Diagnostic) LosesData() bool {
	return d.Kind != KindExtraFence
}
