package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} v9.9.9\n") {
		t.Errorf("Template() = %q", tmpl)
	}
	if got := Current().Version; got != "v9.9.9" {
		t.Errorf("Current().Version = %q, want v9.9.9", got)
	}
}
