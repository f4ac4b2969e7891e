package cli

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"from document", "", filepath.Join("ai", "diagrams", "checkout.diagram.md"), filepath.Join("ai", "diagrams", "checkout")},
		{"output without extension", "out/flow", "x.diagram.md", "out/flow"},
		{"output with format extension", "out/flow.svg", "x.diagram.md", "out/flow"},
		{"output with other extension", "out/flow.v2", "x.diagram.md", "out/flow.v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"dot", []string{"dot"}},
		{"SVG, png ,,pdf", []string{"svg", "png", "pdf"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.in)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestNeedsConverter(t *testing.T) {
	if needsConverter([]string{"svg", "dot"}) {
		t.Error("needsConverter(svg, dot) = true")
	}
	if !needsConverter([]string{"svg", "pdf"}) {
		t.Error("needsConverter(svg, pdf) = false")
	}
}
