package diagram

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Directive line grammar:
//
//	node  := "[" [ "<" classifier ">" ] label "]" [ attrs ]
//	edge  := "[" ref "]" "->" "[" ref "]" [ ":" label ] [ attrs ]
//	attrs := "{" { key "=" value } "}"
//	value := bare | quoted
//
// Labels and refs escape \ [ ] { } and newline with a backslash; a leading
// "<" inside brackets is escaped so it is not read as a classifier.

type lineKind int

const (
	lineIgnored lineKind = iota
	lineNode
	lineEdge
)

// blanks are the characters trimmed around labels and refs.
const blanks = " \t"

// Reserved attribute keys. Everything else lands in Meta.
const (
	attrID     = "id"
	attrX      = "x"
	attrY      = "y"
	attrWidth  = "w"
	attrHeight = "h"
	attrRoute  = "route"
)

var (
	errUnterminatedBracket = errors.New("unterminated bracket")
	errUnterminatedAttrs   = errors.New("unterminated attribute block")
	errTrailingText        = errors.New("unexpected text after directive")
	errEmptyNode           = errors.New("node has neither label nor id")
	errEmptyRef            = errors.New("edge endpoint is empty")
	errClassifierInRef     = errors.New("edge endpoint cannot carry a classifier")
	errBadClassifier       = errors.New("invalid classifier")
	errBadKey              = errors.New("invalid attribute key")
	errDuplicateKey        = errors.New("duplicate attribute key")
	errMissingValue        = errors.New("attribute value is missing")
)

// directive is one decoded fence line. Only the field matching kind is set.
// hasID distinguishes an edge without an id attribute from one whose id
// happens to equal the default.
type directive struct {
	kind  lineKind
	node  Node
	edge  Edge
	hasID bool
}

// isIgnorable reports whether a trimmed line carries no graph data: blank
// lines, nomnoml "#" directives and "//" comments.
func isIgnorable(trimmed string) bool {
	return trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//")
}

// decodeLine parses a single fence line.
func decodeLine(line string) (directive, error) {
	trimmed := strings.TrimSpace(line)
	if isIgnorable(trimmed) {
		return directive{kind: lineIgnored}, nil
	}
	s := &scanner{src: trimmed}
	if !s.consume('[') {
		return directive{}, fmt.Errorf("expected '[' at column %d", s.pos+1)
	}
	first, err := s.bracket()
	if err != nil {
		return directive{}, err
	}
	s.skipSpace()
	if s.consumeString("->") {
		return s.edge(first)
	}
	return s.node(first)
}

// =============================================================================
// Scanner
// =============================================================================

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) consume(c byte) bool {
	if s.peek() == c && !s.eof() {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) consumeString(lit string) bool {
	if strings.HasPrefix(s.src[s.pos:], lit) {
		s.pos += len(lit)
		return true
	}
	return false
}

func (s *scanner) skipSpace() {
	for !s.eof() && strings.IndexByte(blanks, s.src[s.pos]) >= 0 {
		s.pos++
	}
}

// bracket reads raw text up to the unescaped ']' closing the bracket opened
// just before s.pos. Escapes are left intact.
func (s *scanner) bracket() (string, error) {
	start := s.pos
	for !s.eof() {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case ']':
			raw := s.src[start:s.pos]
			s.pos++
			return raw, nil
		}
		s.pos++
	}
	return "", errUnterminatedBracket
}

// until reads raw text up to (not including) the first unescaped stop byte
// or the end of the line.
func (s *scanner) until(stop byte) string {
	start := s.pos
	for !s.eof() && s.src[s.pos] != stop {
		if s.src[s.pos] == '\\' {
			s.pos++
		}
		s.pos++
	}
	if s.pos > len(s.src) {
		s.pos = len(s.src)
	}
	return s.src[start:s.pos]
}

func (s *scanner) node(raw string) (directive, error) {
	classifier, label, err := splitClassifier(raw)
	if err != nil {
		return directive{}, err
	}
	attrs, err := s.trailer()
	if err != nil {
		return directive{}, err
	}

	n := Node{Classifier: classifier, Label: label, ID: label}
	id, hasID := attrs[attrID]
	if hasID {
		n.ID = id
		delete(attrs, attrID)
	}
	if n.ID == "" {
		return directive{}, errEmptyNode
	}
	for key, dst := range map[string]*float64{attrX: &n.X, attrY: &n.Y, attrWidth: &n.Width, attrHeight: &n.Height} {
		v, ok := attrs[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return directive{}, fmt.Errorf("attribute %s: %w", key, err)
		}
		*dst = f
		delete(attrs, key)
	}
	if len(attrs) > 0 {
		n.Meta = attrs
	}
	return directive{kind: lineNode, node: n, hasID: hasID}, nil
}

func (s *scanner) edge(rawSource string) (directive, error) {
	source, err := ref(rawSource)
	if err != nil {
		return directive{}, err
	}
	s.skipSpace()
	if !s.consume('[') {
		return directive{}, fmt.Errorf("expected '[' after '->' at column %d", s.pos+1)
	}
	rawTarget, err := s.bracket()
	if err != nil {
		return directive{}, err
	}
	target, err := ref(rawTarget)
	if err != nil {
		return directive{}, err
	}

	e := Edge{Source: source, Target: target}
	s.skipSpace()
	if s.consume(':') {
		e.Label = unescape(trimRaw(s.until('{')))
	}
	attrs, err := s.trailer()
	if err != nil {
		return directive{}, err
	}
	id, hasID := attrs[attrID]
	if hasID {
		e.ID = id
		delete(attrs, attrID)
	}
	if v, ok := attrs[attrRoute]; ok {
		if e.Route, err = parseRoute(v); err != nil {
			return directive{}, fmt.Errorf("attribute route: %w", err)
		}
		delete(attrs, attrRoute)
	}
	if len(attrs) > 0 {
		e.Meta = attrs
	}
	return directive{kind: lineEdge, edge: e, hasID: hasID}, nil
}

// trailer reads an optional attribute block and requires the line to end
// after it.
func (s *scanner) trailer() (map[string]string, error) {
	s.skipSpace()
	attrs := map[string]string{}
	if s.consume('{') {
		if err := s.attrs(attrs); err != nil {
			return nil, err
		}
		s.skipSpace()
	}
	if !s.eof() {
		return nil, fmt.Errorf("%w at column %d", errTrailingText, s.pos+1)
	}
	return attrs, nil
}

func (s *scanner) attrs(into map[string]string) error {
	for {
		s.skipSpace()
		if s.eof() {
			return errUnterminatedAttrs
		}
		if s.consume('}') {
			return nil
		}
		start := s.pos
		for !s.eof() && isKeyByte(s.peek()) {
			s.pos++
		}
		key := s.src[start:s.pos]
		if key == "" || !s.consume('=') {
			return fmt.Errorf("%w at column %d", errBadKey, start+1)
		}
		if _, dup := into[key]; dup {
			return fmt.Errorf("%w: %s", errDuplicateKey, key)
		}
		value, err := s.value()
		if err != nil {
			return fmt.Errorf("attribute %s: %w", key, err)
		}
		into[key] = value
	}
}

func (s *scanner) value() (string, error) {
	if s.peek() == '"' {
		quoted, err := strconv.QuotedPrefix(s.src[s.pos:])
		if err != nil {
			return "", err
		}
		s.pos += len(quoted)
		return strconv.Unquote(quoted)
	}
	start := s.pos
	for !s.eof() && isBareByte(s.peek()) {
		s.pos++
	}
	if s.pos == start {
		return "", errMissingValue
	}
	return s.src[start:s.pos], nil
}

// =============================================================================
// Decoding helpers
// =============================================================================

func splitClassifier(raw string) (classifier, label string, err error) {
	raw = trimRaw(raw)
	if strings.HasPrefix(raw, "<") {
		end := strings.IndexByte(raw, '>')
		if end < 0 {
			return "", "", fmt.Errorf("%w: missing '>'", errBadClassifier)
		}
		classifier = raw[1:end]
		if !validClassifier(classifier) {
			return "", "", fmt.Errorf("%w: %q", errBadClassifier, classifier)
		}
		raw = trimRaw(raw[end+1:])
	}
	return classifier, unescape(raw), nil
}

func ref(raw string) (string, error) {
	raw = trimRaw(raw)
	if strings.HasPrefix(raw, "<") {
		return "", errClassifierInRef
	}
	id := unescape(raw)
	if id == "" {
		return "", errEmptyRef
	}
	return id, nil
}

func parseRoute(v string) ([]Point, error) {
	fields := strings.Fields(v)
	route := make([]Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("point %q: want x,y", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, err)
		}
		route = append(route, Point{X: x, Y: y})
	}
	return route, nil
}

// trimRaw trims blanks from still-escaped text, keeping a trailing blank
// that belongs to a "\ " escape.
func trimRaw(raw string) string {
	raw = strings.TrimLeft(raw, blanks)
	end := len(raw)
	for end > 0 && strings.IndexByte(blanks, raw[end-1]) >= 0 {
		slashes := 0
		for i := end - 2; i >= 0 && raw[i] == '\\'; i-- {
			slashes++
		}
		if slashes%2 == 1 {
			break
		}
		end--
	}
	return raw[:end]
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case '\\', '[', ']', '{', '}', '<', ' ', '\t':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func validClassifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isKeyByte(s[i]) {
			return false
		}
	}
	return true
}

func isKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func isBareByte(c byte) bool {
	return c > ' ' && c < 0x7f && c != '"' && c != '{' && c != '}' && c != '='
}

// =============================================================================
// Encoding
// =============================================================================

func encodeNode(n Node) string {
	// The parser trims labels, so compare the ID against what will be read back.
	label := strings.Trim(n.Label, blanks)
	var b strings.Builder
	b.WriteByte('[')
	if n.Classifier != "" {
		b.WriteString("<" + n.Classifier + ">")
		if label != "" {
			b.WriteByte(' ')
		}
	}
	b.WriteString(escape(label, true))
	b.WriteByte(']')

	var attrs []string
	if n.ID != label {
		attrs = append(attrs, attr(attrID, n.ID))
	}
	for _, kv := range []struct {
		key string
		v   float64
	}{{attrX, n.X}, {attrY, n.Y}, {attrWidth, n.Width}, {attrHeight, n.Height}} {
		if kv.v != 0 {
			attrs = append(attrs, attr(kv.key, formatFloat(kv.v)))
		}
	}
	attrs = append(attrs, metaAttrs(n.Meta, attrID, attrX, attrY, attrWidth, attrHeight)...)
	writeAttrs(&b, attrs)
	return b.String()
}

func encodeEdge(e Edge) string {
	var b strings.Builder
	b.WriteString("[" + escape(e.Source, true) + "] -> [" + escape(e.Target, true) + "]")
	if label := strings.Trim(e.Label, blanks); label != "" {
		b.WriteString(" : " + escape(label, false))
	}

	var attrs []string
	if e.ID != DefaultEdgeID(e.Source, e.Target) {
		attrs = append(attrs, attr(attrID, e.ID))
	}
	if len(e.Route) > 0 {
		pts := make([]string, len(e.Route))
		for i, p := range e.Route {
			pts[i] = formatFloat(p.X) + "," + formatFloat(p.Y)
		}
		attrs = append(attrs, attr(attrRoute, strings.Join(pts, " ")))
	}
	attrs = append(attrs, metaAttrs(e.Meta, attrID, attrRoute)...)
	writeAttrs(&b, attrs)
	return b.String()
}

// metaAttrs renders Meta in key order. Keys that collide with reserved
// attributes or are not valid keys cannot be read back and are left out;
// [Data.AddNode] and [Data.AddEdge] refuse them up front.
func metaAttrs(meta map[string]string, reserved ...string) []string {
	var out []string
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		if slices.Contains(reserved, k) || !validClassifier(k) {
			continue
		}
		out = append(out, attr(k, meta[k]))
	}
	return out
}

func writeAttrs(b *strings.Builder, attrs []string) {
	if len(attrs) == 0 {
		return
	}
	b.WriteString(" {")
	b.WriteString(strings.Join(attrs, " "))
	b.WriteByte('}')
}

func attr(key, value string) string {
	return key + "=" + formatValue(value)
}

func formatValue(v string) string {
	if v == "" {
		return `""`
	}
	for i := 0; i < len(v); i++ {
		if !isBareByte(v[i]) {
			return strconv.Quote(v)
		}
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escape is the inverse of unescape. inBracket also protects a leading "<"
// and blanks at either end, which the parser would otherwise trim. The ":"
// is left alone since only brackets and braces delimit.
func escape(s string, inBracket bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '[', ']', '{', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '<':
			if inBracket && i == 0 {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		case ' ', '\t':
			if inBracket && (i == 0 || i == len(s)-1) {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
