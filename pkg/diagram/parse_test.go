package diagram

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const checkoutDoc = "---\n" +
	"name: Checkout\n" +
	"---\n" +
	"\n" +
	"# Checkout\n" +
	"\n" +
	"```nomnoml\n" +
	"[Cart]\n" +
	"[Checkout]\n" +
	"[Cart] -> [Checkout]\n" +
	"```\n" +
	"\n" +
	"Some prose about the flow.\n"

func doc(lines ...string) string {
	return "---\nname: Test\n---\n\n```nomnoml\n" + strings.Join(lines, "\n") + "\n```\n"
}

func quietParser() *Parser {
	return NewParser("", log.New(&bytes.Buffer{}))
}

func TestParseEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty string", ""},
		{"frontmatter only", "---\nname: x\n---\n"},
		{"no diagram block", "# Title\n\nJust prose.\n"},
		{"other language block", "```go\n[Cart]\n```\n"},
		{"unterminated frontmatter", "---\nname: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := quietParser().ParseReport(tt.content)
			if got.Nodes == nil || got.Edges == nil {
				t.Fatalf("ParseReport() returned nil slices: %+v", got)
			}
			if len(got.Nodes) != 0 || len(got.Edges) != 0 {
				t.Errorf("ParseReport() = %+v, want empty graph", got)
			}
			if len(diags) != 0 {
				t.Errorf("diagnostics = %v, want none", diags)
			}
		})
	}
}

func TestParseEmptyEncodesAsArrays(t *testing.T) {
	data, err := json.Marshal(quietParser().Parse(""))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"nodes":[],"edges":[]}` {
		t.Errorf("json = %s, want {\"nodes\":[],\"edges\":[]}", data)
	}
}

func TestParseCheckoutScenario(t *testing.T) {
	got, diags := quietParser().ParseReport(checkoutDoc)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}

	want := Data{
		Nodes: []Node{
			{ID: "Cart", Label: "Cart"},
			{ID: "Checkout", Label: "Checkout"},
		},
		Edges: []Edge{
			{ID: "Cart->Checkout", Source: "Cart", Target: "Checkout"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseReport() mismatch (-want +got):\n%s", diff)
	}

	reparsed := quietParser().Parse(Serialize(got, "---\nname: Checkout\n---\n"))
	if diff := cmp.Diff(got, reparsed); diff != "" {
		t.Errorf("re-parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOrderPreserved(t *testing.T) {
	got := quietParser().Parse(doc(
		"[C]",
		"[A]",
		"[B]",
		"[B] -> [C]",
		"[A] -> [B]",
		"[C] -> [A]",
	))

	var ids []string
	for _, n := range got.Nodes {
		ids = append(ids, n.ID)
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, ids); diff != "" {
		t.Errorf("node order mismatch (-want +got):\n%s", diff)
	}

	var edges []string
	for _, e := range got.Edges {
		edges = append(edges, e.ID)
	}
	if diff := cmp.Diff([]string{"B->C", "A->B", "C->A"}, edges); diff != "" {
		t.Errorf("edge order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	tests := []struct {
		name string
		bad  string
	}{
		{"prose", "this is not a directive"},
		{"unterminated bracket", "[Broken"},
		{"trailing text", "[A] and more"},
		{"bad classifier", "[<not valid> A]"},
		{"unclosed classifier", "[<actor A]"},
		{"bad number", "[A] {x=wide}"},
		{"unterminated attrs", "[A] {x=1"},
		{"duplicate key", "[A] {x=1 x=2}"},
		{"missing value", "[A] {x=}"},
		{"empty node", "[]"},
		{"edge missing target", "[Good] ->"},
		{"edge with classifier", "[<actor> Good] -> [Good]"},
		{"bad route", `[Good] -> [Good] {route="1;2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := quietParser().ParseReport(doc("[Good]", tt.bad))
			want := Data{Nodes: []Node{{ID: "Good", Label: "Good"}}, Edges: []Edge{}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("ParseReport() mismatch (-want +got):\n%s", diff)
			}
			if len(diags) != 1 || diags[0].Kind != KindMalformed {
				t.Fatalf("diagnostics = %v, want one %s", diags, KindMalformed)
			}
			if diags[0].Line != 7 {
				t.Errorf("diagnostic line = %d, want 7", diags[0].Line)
			}
		})
	}
}

func TestParseIgnoresCommentsAndDirectives(t *testing.T) {
	got, diags := quietParser().ParseReport(doc(
		"#direction: right",
		"// a comment",
		"",
		"   ",
		"[A]",
	))
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "A" {
		t.Errorf("Nodes = %+v, want [A]", got.Nodes)
	}
}

func TestParseDropsDanglingEdges(t *testing.T) {
	got, diags := quietParser().ParseReport(doc(
		"[A]",
		"[B]",
		"[A] -> [Ghost]",
		"[Ghost] -> [B]",
		"[A] -> [B]",
	))

	want := []Edge{{ID: "A->B", Source: "A", Target: "B"}}
	if diff := cmp.Diff(want, got.Edges); diff != "" {
		t.Errorf("Edges mismatch (-want +got):\n%s", diff)
	}
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v, want 2", diags)
	}
	for _, d := range diags {
		if d.Kind != KindDanglingEdge {
			t.Errorf("diagnostic kind = %s, want %s", d.Kind, KindDanglingEdge)
		}
		if !strings.Contains(d.Message, "Ghost") {
			t.Errorf("diagnostic %q does not name the missing node", d.Message)
		}
	}
}

func TestParseEdgeBeforeNodes(t *testing.T) {
	got, diags := quietParser().ParseReport(doc(
		"[A] -> [B]",
		"[A]",
		"[B]",
	))
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
	if len(got.Edges) != 1 {
		t.Errorf("Edges = %+v, want one edge", got.Edges)
	}
}

func TestParseDuplicates(t *testing.T) {
	got, diags := quietParser().ParseReport(doc(
		"[<actor> A]",
		"[<group> A]",
		"[B]",
		"[A] -> [B] {id=e1}",
		"[B] -> [A] {id=e1}",
	))

	if len(got.Nodes) != 2 || got.Nodes[0].Classifier != "actor" {
		t.Errorf("Nodes = %+v, want first declaration of A kept", got.Nodes)
	}
	if len(got.Edges) != 1 || got.Edges[0].Source != "A" {
		t.Errorf("Edges = %+v, want first e1 kept", got.Edges)
	}
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v, want 2", diags)
	}
	for _, d := range diags {
		if d.Kind != KindDuplicateID {
			t.Errorf("diagnostic kind = %s, want %s", d.Kind, KindDuplicateID)
		}
	}
}

func TestParseDefaultEdgeIDs(t *testing.T) {
	got := quietParser().Parse(doc(
		"[A]",
		"[B]",
		"[A] -> [B]",
		"[A] -> [B] : again",
		"[A] -> [B] {id=\"A->B#2\"}",
	))

	var ids []string
	for _, e := range got.Edges {
		ids = append(ids, e.ID)
	}
	want := []string{"A->B", "A->B#3", "A->B#2"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("edge IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAttributes(t *testing.T) {
	got, diags := quietParser().ParseReport(doc(
		`[<actor> Shopper] {id=shopper x=40 y=80.5 w=120 h=60 color="light blue"}`,
		`[<external_system> Payment \[PSP\]] {id=psp}`,
		`[shopper] -> [psp] : pays with {id=pay route="10,20 30,-40" style=dashed}`,
	))
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}

	want := Data{
		Nodes: []Node{
			{
				ID: "shopper", Classifier: "actor", Label: "Shopper",
				X: 40, Y: 80.5, Width: 120, Height: 60,
				Meta: map[string]string{"color": "light blue"},
			},
			{ID: "psp", Classifier: "external_system", Label: "Payment [PSP]"},
		},
		Edges: []Edge{
			{
				ID: "pay", Source: "shopper", Target: "psp", Label: "pays with",
				Route: []Point{{X: 10, Y: 20}, {X: 30, Y: -40}},
				Meta:  map[string]string{"style": "dashed"},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseReport() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFirstFenceOnly(t *testing.T) {
	content := doc("[A]") + "\n```nomnoml\n[B]\n```\n"
	got, diags := quietParser().ParseReport(content)

	if len(got.Nodes) != 1 || got.Nodes[0].ID != "A" {
		t.Errorf("Nodes = %+v, want only A", got.Nodes)
	}
	if len(diags) != 1 || diags[0].Kind != KindExtraFence {
		t.Fatalf("diagnostics = %v, want one %s", diags, KindExtraFence)
	}
	if diags[0].LosesData() {
		t.Error("extra fence diagnostic should not count as data loss")
	}
}

func TestParseCustomLanguage(t *testing.T) {
	content := "```forge\n[A]\n```\n```nomnoml\n[B]\n```\n"
	p := NewParser("forge", log.New(&bytes.Buffer{}))
	got := p.Parse(content)
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "A" {
		t.Errorf("Nodes = %+v, want only A", got.Nodes)
	}
}

func TestParseLogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	p := NewParser("", log.New(&buf))
	p.Parse(doc("[A]", "[A] -> [Ghost]", "garbage"))

	out := buf.String()
	for _, want := range []string{"dangling-edge", "malformed", "Ghost"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestParseCRLF(t *testing.T) {
	content := strings.ReplaceAll(checkoutDoc, "\n", "\r\n")
	got, diags := quietParser().ParseReport(content)
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Errorf("ParseReport() = %+v, want 2 nodes and 1 edge", got)
	}
}

func TestParseMetaEquatesEmpty(t *testing.T) {
	got := quietParser().Parse(doc("[A] {}"))
	want := Data{Nodes: []Node{{ID: "A", Label: "A"}}}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}
