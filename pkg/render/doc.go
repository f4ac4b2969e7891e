// Package render converts rendered diagrams between output formats.
//
// The [nodelink] subpackage turns diagram data into Graphviz DOT and SVG.
// [ToPDF] and [ToPNG] convert any SVG further using the external
// rsvg-convert tool (from librsvg):
//
//	dot := nodelink.ToDOT(d, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/forge/pkg/render/nodelink
package render
