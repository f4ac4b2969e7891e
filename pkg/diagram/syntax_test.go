package diagram

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		kind  lineKind
		node  Node
		edge  Edge
		hasID bool
	}{
		{name: "blank", line: "", kind: lineIgnored},
		{name: "directive", line: "#fill: #fff", kind: lineIgnored},
		{name: "comment", line: "  // note", kind: lineIgnored},
		{name: "bare node", line: "[Cart]", kind: lineNode, node: Node{ID: "Cart", Label: "Cart"}},
		{name: "padded node", line: "\t[  Cart  ]  ", kind: lineNode, node: Node{ID: "Cart", Label: "Cart"}},
		{
			name: "classifier", line: "[<actor> Customer]", kind: lineNode,
			node: Node{ID: "Customer", Classifier: "actor", Label: "Customer"},
		},
		{
			name: "classifier without label", line: "[<group>] {id=g1}", kind: lineNode,
			node: Node{ID: "g1", Classifier: "group"}, hasID: true,
		},
		{
			name: "escaped leading angle", line: `[\<b> tag]`, kind: lineNode,
			node: Node{ID: "<b> tag", Label: "<b> tag"},
		},
		{
			name: "escaped newline", line: `[two\nlines]`, kind: lineNode,
			node: Node{ID: "two\nlines", Label: "two\nlines"},
		},
		{
			name: "unknown escape kept", line: `[C:\temp]`, kind: lineNode,
			node: Node{ID: `C:\temp`, Label: `C:\temp`},
		},
		{
			name: "edge", line: "[a] -> [b]", kind: lineEdge,
			edge: Edge{Source: "a", Target: "b"},
		},
		{
			name: "tight edge", line: "[a]->[b]", kind: lineEdge,
			edge: Edge{Source: "a", Target: "b"},
		},
		{
			name: "edge label", line: `[a] -> [b] : sends \{json\}`, kind: lineEdge,
			edge: Edge{Source: "a", Target: "b", Label: "sends {json}"},
		},
		{
			name: "edge label and attrs", line: `[a] -> [b] : calls {id=c1}`, kind: lineEdge,
			edge: Edge{ID: "c1", Source: "a", Target: "b", Label: "calls"}, hasID: true,
		},
		{
			name: "quoted unicode id", line: `[Zähler] {id="zähler-1"}`, kind: lineNode,
			node: Node{ID: "zähler-1", Label: "Zähler"}, hasID: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeLine(tt.line)
			if err != nil {
				t.Fatalf("decodeLine(%q) error = %v", tt.line, err)
			}
			if got.kind != tt.kind {
				t.Fatalf("kind = %v, want %v", got.kind, tt.kind)
			}
			if got.hasID != tt.hasID {
				t.Errorf("hasID = %v, want %v", got.hasID, tt.hasID)
			}
			if diff := cmp.Diff(tt.node, got.node); diff != "" {
				t.Errorf("node mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.edge, got.edge); diff != "" {
				t.Errorf("edge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeNode(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"bare", Node{ID: "Cart", Label: "Cart"}, "[Cart]"},
		{"classifier", Node{ID: "u", Classifier: "actor", Label: "User"}, "[<actor> User] {id=u}"},
		{"no label", Node{ID: "g", Classifier: "group"}, "[<group>] {id=g}"},
		{
			"geometry",
			Node{ID: "A", Label: "A", X: 10, Y: -2.5, Width: 100, Height: 40},
			"[A] {x=10 y=-2.5 w=100 h=40}",
		},
		{
			"meta sorted and quoted",
			Node{ID: "A", Label: "A", Meta: map[string]string{"z": "last one", "a": "first"}},
			`[A] {a=first z="last one"}`,
		},
		{
			"reserved and invalid meta keys dropped",
			Node{ID: "A", Label: "A", Meta: map[string]string{"id": "x", "bad key": "v", "ok": "v"}},
			"[A] {ok=v}",
		},
		{"escapes", Node{ID: "x", Label: "<a> [b] {c}"}, `[\<a> \[b\] \{c\}] {id=x}`},
		{"trimmed label keeps id", Node{ID: " A ", Label: " A "}, `[A] {id=" A "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeNode(tt.node); got != tt.want {
				t.Errorf("encodeNode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeEdge(t *testing.T) {
	tests := []struct {
		name string
		edge Edge
		want string
	}{
		{"default id", Edge{ID: "a->b", Source: "a", Target: "b"}, "[a] -> [b]"},
		{"custom id", Edge{ID: "e1", Source: "a", Target: "b"}, "[a] -> [b] {id=e1}"},
		{"label", Edge{ID: "a->b", Source: "a", Target: "b", Label: "uses"}, "[a] -> [b] : uses"},
		{
			"route",
			Edge{ID: "a->b", Source: "a", Target: "b", Route: []Point{{1, 2}, {3.5, 4}}},
			`[a] -> [b] {route="1,2 3.5,4"}`,
		},
		{"escaped refs", Edge{ID: "[x]->y", Source: "[x]", Target: "y"}, `[\[x\]] -> [y]`},
		{"padded refs", Edge{ID: " a->b ", Source: " a", Target: "b "}, `[\ a] -> [b\ ]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeEdge(tt.edge); got != tt.want {
				t.Errorf("encodeEdge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		`back\slash`,
		`trailing\`,
		"[brackets]",
		"{braces}",
		"<leading angle",
		"inner <angle>",
		"multi\nline",
		"colon: here",
		"arrow -> inside",
		" leading blank",
		"trailing blank ",
		"\ttabs\t",
		"  two",
		`slash\ `,
	}
	for _, in := range inputs {
		if got := unescape(trimRaw(escape(in, true))); got != in {
			t.Errorf("unescape(escape(%q)) = %q", in, got)
		}
	}
}
