// Package diagram converts between Forge diagram documents and the graph the
// canvas edits.
//
// # Document Layout
//
// A diagram document is Markdown with YAML frontmatter and one fenced block
// tagged "nomnoml" holding the graph:
//
//	---
//	name: Checkout
//	---
//
//	# Diagram
//
//	```nomnoml
//	[<actor> Shopper] {id=shopper x=40 y=80 w=120 h=60}
//	[Cart]
//	[Cart] -> [Checkout] : submits {route="200,80 260,80"}
//	[Checkout]
//	```
//
// Inside the block each line is one directive. A node is a bracketed label
// with an optional <classifier> and an optional trailing {key=value ...}
// attribute block; its ID defaults to the label. An edge joins two node IDs
// with "->", may carry a ": label", and its ID defaults to "source->target".
// Blank lines, "#" directives and "//" comments are ignored.
//
// # Parsing
//
// [Parse] never fails. Without a diagram block it returns an empty graph.
// Lines that cannot be decoded, repeated IDs, and edges pointing at
// undeclared nodes are skipped; [Parser.ParseReport] returns what was skipped
// as [Diagnostic] values and [Parser.Parse] logs them. Only the first
// diagram block of a document is read.
//
// # Serializing
//
// [Serialize] writes the frontmatter block it is given followed by a fixed
// skeleton around the rendered block. The prose of the original document is
// regenerated from the skeleton, not preserved.
//
// For any graph with consistent edges, parsing the serialized text yields
// the same nodes and edges (IDs, classifiers, labels, endpoints, positions)
// in the same order, whatever the frontmatter.
//
// # Concurrency
//
// Both directions are pure functions of their input. [Parser] and
// [Serializer] values are read-only and may be shared between goroutines.
package diagram
