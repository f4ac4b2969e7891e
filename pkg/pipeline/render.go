package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/forge/pkg/diagram"
	"github.com/matzehuels/forge/pkg/render"
	"github.com/matzehuels/forge/pkg/render/nodelink"
)

// RenderArtifacts renders d in every requested format without caching.
// opts must already be validated.
func RenderArtifacts(ctx context.Context, d diagram.Data, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(d, nodelink.Options{
		Detailed:  opts.Detailed,
		Direction: opts.Direction,
		Pinned:    opts.Pinned,
	})

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = nodelink.RenderSVG(dot)
		return svg, err
	}

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			data, err = json.MarshalIndent(d, "", "  ")
		case FormatSVG:
			data, err = svgOnce()
		case FormatPDF, FormatPNG:
			if _, err = svgOnce(); err == nil {
				if format == FormatPDF {
					data, err = render.ToPDF(ctx, svg)
				} else {
					data, err = render.ToPNG(ctx, svg, opts.Scale)
				}
			}
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}
