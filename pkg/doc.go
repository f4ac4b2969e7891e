// Package pkg holds the libraries behind the forge CLI.
//
// # Overview
//
// Forge manages a workspace of Markdown documents under ai/: actors,
// features, diagrams, specs and work sessions. The packages split into:
//
//  1. [diagram] - the graph inside diagram documents (parse and serialize)
//  2. [frontmatter], [forge] - document metadata, kinds, templates, sessions
//  3. [shapes] - the classifier registry shared with the canvas
//  4. [pipeline], [render] - parse and export with caching
//  5. [cache], [config], [server], [observability] - infrastructure
//
// # Data Flow
//
//	diagram document (.diagram.md)
//	         ↓
//	    [diagram] Parse (nodes, edges, diagnostics)
//	         ↓
//	    [pipeline] Runner (cache lookup by content hash)
//	         ↓
//	    [render/nodelink] DOT / SVG, [render] PNG / PDF
//
// Edits go the other way: the canvas or a CLI command changes the graph and
// [diagram.Serializer] writes it back under the original frontmatter.
package pkg
