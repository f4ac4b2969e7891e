package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/forge/pkg/diagram"
)

func checkout() diagram.Data {
	return diagram.Data{
		Nodes: []diagram.Node{
			{ID: "shopper", Classifier: "actor", Label: "Shopper", X: 72, Y: 144},
			{ID: "Cart", Label: "Cart", Meta: map[string]string{"owner": "team-a"}},
			{ID: "db", Classifier: "database"},
		},
		Edges: []diagram.Edge{
			{ID: "e1", Source: "shopper", Target: "Cart", Label: "fills"},
			{ID: "Cart->db", Source: "Cart", Target: "db"},
			{ID: "x", Source: "Cart", Target: "ghost"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(checkout(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`"shopper" [label="Shopper", shape=oval, fillcolor="#fde2cf", width=1.11, height=1.39];`,
		`"Cart" [label="Cart", shape=box, fillcolor="#ffffff"`,
		`"db" [label="db", shape=cylinder`,
		`"shopper" -> "Cart" [label="fills"];`,
		`"Cart" -> "db";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Errorf("ToDOT() rendered a dangling edge:\n%s", dot)
	}
	if strings.Contains(dot, "pos=") || strings.Contains(dot, "neato") {
		t.Errorf("ToDOT() pinned positions without Pinned:\n%s", dot)
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(checkout(), Options{Detailed: true, Direction: "TB", Pinned: true})

	for _, want := range []string{
		"rankdir=TB;",
		"layout=neato;",
		`pos="1.00,-2.00!"`,
		`label="Shopper\n«actor»"`,
		`label="Cart\nowner: team-a"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "pos=") != 1 {
		t.Errorf("only positioned nodes should be pinned:\n%s", dot)
	}
}

func TestToDOTQuotesIDs(t *testing.T) {
	d := diagram.Data{Nodes: []diagram.Node{{ID: `say "hi"`, Label: `say "hi"`}}}
	dot := ToDOT(d, Options{})
	if !strings.Contains(dot, `"say \"hi\""`) {
		t.Errorf("ToDOT() did not escape quotes:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("normalizeViewBox() changed svg without a viewBox")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping graphviz render in short mode")
	}
	svg, err := RenderSVG(ToDOT(checkout(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Shopper") {
		t.Errorf("RenderSVG() output does not look like the diagram:\n%.300s", svg)
	}
}
