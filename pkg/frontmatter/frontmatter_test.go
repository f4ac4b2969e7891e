package frontmatter

import (
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantBlock string
		wantOK    bool
	}{
		{"simple", "---\nname: x\n---\nbody\n", "---\nname: x\n---\n", true},
		{"empty block", "---\n---\nbody", "---\n---\n", true},
		{"no trailing newline", "---\na: 1\n---", "---\na: 1\n---", true},
		{"trailing spaces", "--- \na: 1\n---\t\nbody", "--- \na: 1\n---\t\n", true},
		{"crlf", "---\r\na: 1\r\n---\r\nbody", "---\r\na: 1\r\n---\r\n", true},
		{"unterminated", "---\na: 1\n", "", false},
		{"not at start", "\n---\na: 1\n---\n", "", false},
		{"no frontmatter", "# Title\n", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, body, ok := Split(tt.content)
			if ok != tt.wantOK {
				t.Fatalf("Split() ok = %v, want %v", ok, tt.wantOK)
			}
			if block != tt.wantBlock {
				t.Errorf("Split() block = %q, want %q", block, tt.wantBlock)
			}
			if block+body != tt.content {
				t.Errorf("block+body = %q, want %q", block+body, tt.content)
			}
		})
	}
}

func TestInner(t *testing.T) {
	tests := []struct {
		block string
		want  string
	}{
		{"---\nname: x\n---\n", "name: x\n"},
		{"---\n---\n", ""},
		{"name: x\n", "name: x\n"},
	}
	for _, tt := range tests {
		if got := Inner(tt.block); got != tt.want {
			t.Errorf("Inner(%q) = %q, want %q", tt.block, got, tt.want)
		}
	}
}

func TestDecodeRender(t *testing.T) {
	type meta struct {
		Name string   `yaml:"name"`
		Tags []string `yaml:"tags,omitempty"`
	}

	block, err := Render(meta{Name: "Checkout", Tags: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "---\nname: Checkout\ntags:\n  - a\n  - b\n---\n"
	if block != want {
		t.Errorf("Render() = %q, want %q", block, want)
	}

	var got meta
	if err := Decode(block, &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Name != "Checkout" || len(got.Tags) != 2 {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestDecodeError(t *testing.T) {
	var v map[string]any
	err := Decode("---\nname: [unclosed\n---\n", &v)
	if err == nil || !strings.Contains(err.Error(), "decode frontmatter") {
		t.Errorf("Decode() error = %v, want decode frontmatter error", err)
	}
}

func TestRead(t *testing.T) {
	meta, body, err := Read("---\nname: Checkout\ntype: diagram\n---\n# Body\n")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if meta["name"] != "Checkout" || meta["type"] != "diagram" {
		t.Errorf("Read() meta = %v", meta)
	}
	if body != "# Body\n" {
		t.Errorf("Read() body = %q", body)
	}

	meta, body, err = Read("no frontmatter")
	if err != nil || len(meta) != 0 || body != "no frontmatter" {
		t.Errorf("Read() = %v, %q, %v; want empty meta and full body", meta, body, err)
	}

	meta, _, err = Read("---\n---\n")
	if err != nil || meta == nil {
		t.Errorf("Read(empty block) = %v, %v; want non-nil empty map", meta, err)
	}
}

func TestLineCount(t *testing.T) {
	if got := LineCount("---\nname: x\n---\n"); got != 3 {
		t.Errorf("LineCount() = %d, want 3", got)
	}
	if got := LineCount(""); got != 0 {
		t.Errorf("LineCount(\"\") = %d, want 0", got)
	}
}
