// Package pipeline runs the parse → export pipeline for diagram documents.
//
// Both the CLI and forge serve go through a [Runner], which caches each
// stage by a hash of its input:
//
//  1. Parse: document text → diagram data plus diagnostics
//  2. Render: diagram data → export artifacts (DOT, SVG, PNG, PDF, JSON)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, parser, logger)
//	result, err := runner.Execute(ctx, content, pipeline.Options{
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	parsed, err := runner.Parse(ctx, content)
//	artifacts, err := runner.Render(ctx, parsed.Data, opts)
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/forge/pkg/diagram"
)

// =============================================================================
// Formats
// =============================================================================

// Format constants for export formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// Formats lists the supported export formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF, FormatJSON}

// ValidDirections is the set of Graphviz rank directions.
var ValidDirections = []string{"LR", "TB", "RL", "BT"}

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options and results
// =============================================================================

// Options configures the render stage.
type Options struct {
	Formats   []string `json:"formats,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	Pinned    bool     `json:"pinned,omitempty"`
	Scale     float64  `json:"scale,omitempty"`

	// Refresh bypasses cached results; fresh results are still stored.
	Refresh bool `json:"-"`
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Direction == "" {
		o.Direction = "LR"
	}
	o.Direction = strings.ToUpper(o.Direction)
	if !slices.Contains(ValidDirections, o.Direction) {
		return fmt.Errorf("invalid direction: %q (must be one of: %s)", o.Direction, strings.Join(ValidDirections, ", "))
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return fmt.Errorf("invalid scale: %v", o.Scale)
	}
	return nil
}

// variant identifies the render options that change artifact bytes.
func (o Options) variant(format string) string {
	return fmt.Sprintf("%s|%s|%t|%t|%.2f", format, o.Direction, o.Detailed, o.Pinned, o.Scale)
}

// Parsed is the output of the parse stage.
type Parsed struct {
	Data        diagram.Data         `json:"data"`
	Diagnostics []diagram.Diagnostic `json:"diagnostics,omitempty"`
}

// LosesData reports whether any diagnostic dropped graph content.
func (p Parsed) LosesData() bool {
	for _, d := range p.Diagnostics {
		if d.LosesData() {
			return true
		}
	}
	return false
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Parsed

	// ContentHash is the hash of the document text.
	ContentHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	ParseTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the parse result came from cache
	RenderHit bool // Whether all artifacts came from cache
}
