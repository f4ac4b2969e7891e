// Package server exposes a Forge workspace over HTTP.
//
// It is the host side of the diagram canvas: the canvas loads a document's
// graph, edits it, and sends the whole graph back to be written into the
// same file.
//
// # Routes
//
//	GET  /api/health
//	GET  /api/documents?kind=     workspace documents, optionally filtered
//	GET  /api/diagram?path=       graph and diagnostics of a diagram document
//	PUT  /api/diagram?path=       replace the graph, keeping the frontmatter
//	GET  /api/export?path=&format=
//	GET  /api/shapes
//
// Every path parameter is relative to the workspace root and may not leave
// it. Errors are JSON objects of the form {"code": ..., "error": ...}.
package server
