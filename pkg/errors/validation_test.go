package errors

import (
	"strings"
	"testing"
)

func TestValidateDocumentName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Checkout", false},
		{"with spaces", "Checkout Flow", false},
		{"unicode", "Zähler", false},
		{"punctuation", "Pay & Ship (v2)", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 201), true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"traversal", "..", true},
		{"newline", "foo\nbar", true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "ai/diagrams/checkout.diagram.md", false},
		{"file", "checkout.diagram.md", false},
		{"dots in name", "ai/specs/v1..2.spec.md", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "ai/../../etc/passwd", true},
		{"leading traversal", "../secret.md", true},
		{"backslash", "ai\\diagrams\\x.md", true},
		{"null byte", "ai/x\x00.md", true},
		{"too long", strings.Repeat("a/", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateClassifier(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"actor", false},
		{"external_system", false},
		{"my-shape2", false},

		{"two words", true},
		{"<actor>", true},
		{"ünï", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateClassifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClassifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
