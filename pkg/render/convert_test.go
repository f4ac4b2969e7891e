package render

import (
	"context"
	"strings"
	"testing"
)

func TestConvertMissingTool(t *testing.T) {
	old := converter
	converter = "forge-no-such-converter"
	defer func() { converter = old }()

	if Available() {
		t.Fatal("Available() = true for a missing tool")
	}
	_, err := ToPDF(context.Background(), []byte("<svg/>"))
	if err == nil || !strings.Contains(err.Error(), "librsvg") {
		t.Errorf("ToPDF() error = %v, want install hint", err)
	}
	if _, err := ToPNG(context.Background(), []byte("<svg/>"), 0); err == nil {
		t.Error("ToPNG() error = nil, want error")
	}
}
