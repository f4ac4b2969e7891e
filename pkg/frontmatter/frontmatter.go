// Package frontmatter reads and writes the YAML block at the top of a Forge
// document.
//
// A frontmatter block starts on the first line of the document with a line
// consisting of "---" and ends at the next "---" line:
//
//	---
//	name: Checkout
//	type: diagram
//	---
//	# Checkout
//
// The block is YAML and is handled with gopkg.in/yaml.v3. Everything after
// the closing delimiter is the body and is returned untouched.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

// Split separates content into its frontmatter block and body. The returned
// block includes both delimiter lines and the newline after the closing one,
// so block+body == content. ok is false when the document has no complete
// block; the whole content is then the body.
func Split(content string) (block, body string, ok bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || !isDelimiter(first) {
		return "", content, false
	}
	offset := len(first) + 1
	for rest != "" {
		line, next, more := strings.Cut(rest, "\n")
		end := offset + len(line)
		if more {
			end++
		}
		if isDelimiter(line) {
			return content[:end], content[end:], true
		}
		offset = end
		rest = next
	}
	return "", content, false
}

// Inner returns the YAML text between the delimiters of block. A string
// without delimiters is returned unchanged.
func Inner(block string) string {
	first, rest, found := strings.Cut(block, "\n")
	if !found || !isDelimiter(first) {
		return block
	}
	rest = strings.TrimRight(rest, "\r\n")
	if i := strings.LastIndex(rest, "\n"); i >= 0 && isDelimiter(rest[i+1:]) {
		return rest[:i+1]
	}
	if isDelimiter(rest) {
		return ""
	}
	return rest
}

// Decode unmarshals a frontmatter block (with or without delimiters) into v.
func Decode(block string, v any) error {
	if err := yaml.Unmarshal([]byte(Inner(block)), v); err != nil {
		return fmt.Errorf("decode frontmatter: %w", err)
	}
	return nil
}

// Render marshals v and wraps it in delimiters, ready to be placed at the top
// of a document.
func Render(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return Delimiter + "\n" + buf.String() + Delimiter + "\n", nil
}

// Read splits content and decodes its frontmatter into a generic map. A
// document without frontmatter yields an empty map.
func Read(content string) (map[string]any, string, error) {
	block, body, ok := Split(content)
	meta := map[string]any{}
	if !ok {
		return meta, body, nil
	}
	if err := Decode(block, &meta); err != nil {
		return nil, "", err
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, body, nil
}

// LineCount returns the number of lines taken by block.
func LineCount(block string) int {
	return strings.Count(block, "\n")
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}
