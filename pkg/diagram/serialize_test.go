package diagram

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func checkoutData() Data {
	return Data{
		Nodes: []Node{
			{ID: "Cart", Label: "Cart"},
			{ID: "Checkout", Label: "Checkout"},
		},
		Edges: []Edge{
			{ID: "Cart->Checkout", Source: "Cart", Target: "Checkout"},
		},
	}
}

func TestSerializeCheckout(t *testing.T) {
	got := Serialize(checkoutData(), "---\nname: Checkout\n---\n")
	want := "---\n" +
		"name: Checkout\n" +
		"---\n" +
		"\n" +
		"# Diagram\n" +
		"\n" +
		"```nomnoml\n" +
		"[Cart]\n" +
		"[Checkout]\n" +
		"[Cart] -> [Checkout]\n" +
		"```\n" +
		"\n" +
		"## Notes\n"
	if got != want {
		t.Errorf("Serialize() mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestSerializeFrontmatterHandling(t *testing.T) {
	tests := []struct {
		name       string
		front      string
		wantPrefix string
	}{
		{"none", "", "# Diagram\n"},
		{"with newline", "---\na: 1\n---\n", "---\na: 1\n---\n\n# Diagram\n"},
		{"missing newline", "---\na: 1\n---", "---\na: 1\n---\n\n# Diagram\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Serialize(Empty(), tt.front)
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("Serialize() = %q, want prefix %q", got, tt.wantPrefix)
			}
		})
	}
}

func TestSerializerSkeleton(t *testing.T) {
	s := NewSerializer("forge", Skeleton{
		Title:      "Checkout Flow",
		Directives: []string{"#direction: right"},
		Sections:   []string{"Actors", "Open Questions"},
	})
	got := s.Serialize(checkoutData(), "")
	want := "# Checkout Flow\n" +
		"\n" +
		"```forge\n" +
		"#direction: right\n" +
		"[Cart]\n" +
		"[Checkout]\n" +
		"[Cart] -> [Checkout]\n" +
		"```\n" +
		"\n## Actors\n" +
		"\n## Open Questions\n"
	if got != want {
		t.Errorf("Serialize() mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}

	back := NewParser("forge", nil).Parse(got)
	if diff := cmp.Diff(checkoutData(), back); diff != "" {
		t.Errorf("re-parse mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeDropsProse(t *testing.T) {
	out := Serialize(quietParser().Parse(checkoutDoc), "---\nname: Checkout\n---\n")
	if strings.Contains(out, "Some prose") {
		t.Error("Serialize() kept prose from the source document")
	}
}

func TestSerializeDoesNotValidate(t *testing.T) {
	d := Data{
		Nodes: []Node{{ID: "A", Label: "A"}},
		Edges: []Edge{{ID: "A->Ghost", Source: "A", Target: "Ghost"}},
	}
	out := Serialize(d, "")
	if !strings.Contains(out, "[A] -> [Ghost]") {
		t.Errorf("Serialize() = %q, want dangling edge rendered as given", out)
	}
	if got := quietParser().Parse(out); len(got.Edges) != 0 {
		t.Errorf("re-parse Edges = %+v, want dangling edge dropped", got.Edges)
	}
}

// =============================================================================
// Round trip
// =============================================================================

var (
	labelPool = []string{
		"Cart", "Shopping Cart", "a[b]", "{x}", "<tag>", "multi\nline", `back\slash`,
		"ünïcode", "colon: here", "->arrow", "# not a directive", "// not a comment", "",
	}
	classifierPool = []string{"", "actor", "external_system", "group", "feature"}
	idFormats      = []string{"n%d", " n%d", "n%d ", "\tn%d\t", " <n%d"}
	frontPool      = []string{
		"",
		"---\nname: Checkout\n---\n",
		"---\nname: \"```nomnoml\"\ntags: [a, b]\n---\n",
		"---\n---\n",
	}
)

// randomData builds a graph with consistent edges. Labels and IDs are drawn
// from pools that exercise escaping.
func randomData(r *rand.Rand) Data {
	d := Empty()
	n := r.Intn(8)
	for i := 0; i < n; i++ {
		label := labelPool[r.Intn(len(labelPool))]
		id := label
		if id == "" || r.Intn(3) == 0 || d.HasNode(id) {
			id = fmt.Sprintf(idFormats[r.Intn(len(idFormats))], i)
		}
		node := Node{ID: id, Classifier: classifierPool[r.Intn(len(classifierPool))], Label: label}
		if r.Intn(2) == 0 {
			node.X, node.Y = float64(r.Intn(800))/2, float64(r.Intn(600))-100
			node.Width, node.Height = 120, 60
		}
		if r.Intn(4) == 0 {
			node.Meta = map[string]string{"color": "light blue", "owner": "team-a"}
		}
		if err := d.AddNode(node); err != nil {
			panic(err)
		}
	}
	if n == 0 {
		return d
	}
	for i := 0; i < r.Intn(10); i++ {
		e := Edge{
			Source: d.Nodes[r.Intn(n)].ID,
			Target: d.Nodes[r.Intn(n)].ID,
			Label:  labelPool[r.Intn(len(labelPool))],
		}
		if r.Intn(3) == 0 {
			e.ID = fmt.Sprintf("e%d", i)
		}
		if r.Intn(4) == 0 {
			e.Route = []Point{{X: float64(i), Y: 1.5}, {X: -3, Y: float64(r.Intn(50))}}
		}
		if err := d.AddEdge(e); err != nil {
			panic(err)
		}
	}
	return d
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	p := quietParser()

	for i := 0; i < 200; i++ {
		d := randomData(r)
		front := frontPool[i%len(frontPool)]
		text := Serialize(d, front)

		got, diags := p.ParseReport(text)
		if len(diags) != 0 {
			t.Fatalf("case %d: diagnostics = %v\n%s", i, diags, text)
		}
		if diff := cmp.Diff(d, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("case %d: round trip mismatch (-want +got):\n%s\ndocument:\n%s", i, diff, text)
		}
		if again := Serialize(got, front); again != text {
			t.Fatalf("case %d: second serialization differs:\n%s", i, cmp.Diff(text, again))
		}
	}
}

func TestRoundTripPaddedIDs(t *testing.T) {
	d := Empty()
	for _, id := range []string{" a", "b ", "\tc"} {
		if err := d.AddNode(Node{ID: id, Label: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []Edge{{Source: " a", Target: "b "}, {Source: "b ", Target: "\tc", Label: "next"}} {
		if err := d.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}

	text := Serialize(d, "")
	got, diags := quietParser().ParseReport(text)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v\n%s", diags, text)
	}
	if diff := cmp.Diff(d, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s\ndocument:\n%s", diff, text)
	}
}

func TestRoundTripTrimsLabels(t *testing.T) {
	d := Data{Nodes: []Node{{ID: "A", Label: "  A  "}}}
	got := quietParser().Parse(Serialize(d, ""))
	want := []Node{{ID: "A", Label: "A"}}
	if diff := cmp.Diff(want, got.Nodes); diff != "" {
		t.Errorf("Nodes mismatch (-want +got):\n%s", diff)
	}
}
