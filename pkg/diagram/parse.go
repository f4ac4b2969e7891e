package diagram

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/matzehuels/forge/pkg/frontmatter"
)

// DefaultLanguage is the info string that marks the diagram fence.
const DefaultLanguage = "nomnoml"

// markdown is shared by all parsers; goldmark parsers are safe for
// concurrent use.
var markdown = goldmark.New()

// Parser extracts diagram data from Forge documents.
// A Parser is read-only after construction and may be shared.
type Parser struct {
	// Language is the fence info string holding the diagram. Defaults to
	// DefaultLanguage.
	Language string

	// Logger receives one warning per diagnostic from [Parser.Parse].
	// Defaults to log.Default().
	Logger *log.Logger
}

// NewParser creates a parser for the given fence language.
// An empty language selects DefaultLanguage; a nil logger selects log.Default().
func NewParser(language string, logger *log.Logger) *Parser {
	if language == "" {
		language = DefaultLanguage
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{Language: language, Logger: logger}
}

// Parse extracts the graph from the full document text using the default
// parser. See [Parser.Parse].
func Parse(content string) Data {
	return NewParser("", nil).Parse(content)
}

// Parse extracts the graph from the full document text. It never fails: a
// document without a diagram block yields an empty graph, and every line
// that cannot be decoded is skipped. Skipped content is logged as a warning.
func (p *Parser) Parse(content string) Data {
	data, diags := p.ParseReport(content)
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	for _, d := range diags {
		logger.Warn("diagram: "+d.Message, "line", d.Line, "kind", d.Kind)
	}
	return data
}

// ParseReport is Parse without logging: it returns the diagnostics instead.
//
// Nodes and edges keep document order. When a node or edge ID repeats, the
// first declaration wins. Edges whose endpoints are not declared anywhere in
// the block are dropped.
func (p *Parser) ParseReport(content string) (Data, []Diagnostic) {
	block, body, _ := frontmatter.Split(content)
	lineOffset := frontmatter.LineCount(block)

	fences := p.findFences([]byte(body))
	if len(fences) == 0 {
		return Empty(), nil
	}

	var diags []Diagnostic
	for _, f := range fences[1:] {
		diags = append(diags, Diagnostic{
			Line:    lineOffset + f.line,
			Kind:    KindExtraFence,
			Message: fmt.Sprintf("ignoring additional %s block; only the first is read", p.language()),
		})
	}

	data, lineDiags := decodeFence(fences[0], lineOffset)
	return data, append(lineDiags, diags...)
}

func (p *Parser) language() string {
	if p.Language == "" {
		return DefaultLanguage
	}
	return p.Language
}

// fenceLine is one line of fence content with its 1-based body line number.
type fenceLine struct {
	text string
	line int
}

type fence struct {
	line  int // line of the opening fence marker
	lines []fenceLine
}

// findFences returns every fenced code block tagged with the parser's
// language, in document order.
func (p *Parser) findFences(src []byte) []fence {
	lang := []byte(p.language())
	doc := markdown.Parser().Parse(text.NewReader(src))

	var fences []fence
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok || !bytes.Equal(fcb.Language(src), lang) {
			return ast.WalkContinue, nil
		}
		f := fence{}
		if fcb.Info != nil {
			f.line = lineAt(src, fcb.Info.Segment.Start)
		}
		segs := fcb.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			f.lines = append(f.lines, fenceLine{
				text: strings.TrimRight(string(seg.Value(src)), "\r\n"),
				line: lineAt(src, seg.Start),
			})
		}
		if f.line == 0 && len(f.lines) > 0 {
			f.line = f.lines[0].line - 1
		}
		fences = append(fences, f)
		return ast.WalkSkipChildren, nil
	})
	return fences
}

// lineAt returns the 1-based line containing byte offset off.
func lineAt(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return bytes.Count(src[:off], []byte("\n")) + 1
}

// decodeFence turns fence lines into a graph, collecting diagnostics.
func decodeFence(f fence, lineOffset int) (Data, []Diagnostic) {
	data := Empty()
	var diags []Diagnostic
	report := func(line int, kind DiagnosticKind, format string, args ...any) {
		diags = append(diags, Diagnostic{Line: lineOffset + line, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	type pendingEdge struct {
		edge  Edge
		hasID bool
		line  int
	}
	var pending []pendingEdge
	nodes := map[string]bool{}

	for _, l := range f.lines {
		d, err := decodeLine(l.text)
		if err != nil {
			report(l.line, KindMalformed, "skipping malformed line %q: %v", strings.TrimSpace(l.text), err)
			continue
		}
		switch d.kind {
		case lineNode:
			if nodes[d.node.ID] {
				report(l.line, KindDuplicateID, "skipping duplicate node %q", d.node.ID)
				continue
			}
			nodes[d.node.ID] = true
			data.Nodes = append(data.Nodes, d.node)
		case lineEdge:
			pending = append(pending, pendingEdge{edge: d.edge, hasID: d.hasID, line: l.line})
		}
	}

	// Explicit IDs are claimed before defaults are handed out so a default
	// never steals an ID written in the document.
	used := map[string]bool{}
	kept := pending[:0]
	for _, pe := range pending {
		e := pe.edge
		switch {
		case !nodes[e.Source]:
			report(pe.line, KindDanglingEdge, "dropping edge %s -> %s: unknown source node %q", e.Source, e.Target, e.Source)
			continue
		case !nodes[e.Target]:
			report(pe.line, KindDanglingEdge, "dropping edge %s -> %s: unknown target node %q", e.Source, e.Target, e.Target)
			continue
		case pe.hasID && used[e.ID]:
			report(pe.line, KindDuplicateID, "skipping duplicate edge %q", e.ID)
			continue
		}
		if pe.hasID {
			used[e.ID] = true
		}
		kept = append(kept, pe)
	}
	for _, pe := range kept {
		if !pe.hasID {
			pe.edge.ID = nextEdgeID(DefaultEdgeID(pe.edge.Source, pe.edge.Target), used)
			used[pe.edge.ID] = true
		}
		data.Edges = append(data.Edges, pe.edge)
	}
	return data, diags
}
