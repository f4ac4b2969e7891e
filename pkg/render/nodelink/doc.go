// Package nodelink renders Forge diagrams as Graphviz node-link diagrams.
//
// # Usage
//
// Convert diagram data to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(d, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, convert the SVG with the render package:
//
//	pdf, err := render.ToPDF(ctx, svg)
//
// # Shapes
//
// Each node is drawn with the Graphviz shape and fill color registered for
// its classifier in [shapes]. Unknown classifiers fall back to the default
// box.
//
// # Positions
//
// With [Options.Pinned], node coordinates saved in the document are passed
// to Graphviz as pinned positions so the export matches the canvas. Nodes
// without a position are placed by the layout engine.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [shapes]: github.com/matzehuels/forge/pkg/shapes
package nodelink
