package forge

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/forge/pkg/diagram"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/frontmatter"
)

func TestNewMeta(t *testing.T) {
	m, err := NewMeta(KindFeature, "  Guest Checkout ")
	if err != nil {
		t.Fatalf("NewMeta() error = %v", err)
	}
	if m.ID != "guest-checkout" || m.Name != "Guest Checkout" || m.Type != KindFeature {
		t.Errorf("NewMeta() = %+v", m)
	}

	s, err := NewMeta(KindSession, "Refactor payments")
	if err != nil {
		t.Fatalf("NewMeta(session) error = %v", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Errorf("session ID %q is not a UUID: %v", s.ID, err)
	}

	if _, err := NewMeta(KindActor, "a/b"); !errs.Is(err, errs.ErrCodeInvalidName) {
		t.Errorf("NewMeta(a/b) error = %v, want %s", err, errs.ErrCodeInvalidName)
	}
	if _, err := NewMeta("widget", "x"); !errs.Is(err, errs.ErrCodeInvalidKind) {
		t.Errorf("NewMeta(widget) error = %v, want %s", err, errs.ErrCodeInvalidKind)
	}
}

func TestTemplateDiagramIsEmptyGraph(t *testing.T) {
	m := Meta{ID: "checkout", Name: "Checkout"}
	got, err := Template(KindDiagram, m)
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}

	front, err := frontmatter.Render(Meta{ID: "checkout", Name: "Checkout", Type: KindDiagram})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := diagram.Serialize(diagram.Empty(), front); got != want {
		t.Errorf("Template() = %q, want %q", got, want)
	}

	d, diags := diagram.NewParser("", nil).ParseReport(got)
	if len(diags) != 0 || d.NodeCount() != 0 || d.EdgeCount() != 0 {
		t.Errorf("template parses to %+v with %v, want empty graph", d, diags)
	}
}

func TestTemplateCustomSerializer(t *testing.T) {
	tpl := &Templates{Diagram: diagram.NewSerializer("forge", diagram.Skeleton{Title: "Flow"})}
	got, err := tpl.Render(KindDiagram, Meta{ID: "x", Name: "X"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "# Flow\n\n```forge\n```\n") {
		t.Errorf("Render() = %q, want custom skeleton", got)
	}
}

func TestTemplateKinds(t *testing.T) {
	tests := []struct {
		kind     Kind
		sections []string
	}{
		{KindActor, []string{"## Goals", "## Responsibilities", "## Interactions"}},
		{KindFeature, []string{"## Actors", "## Scenarios", "## Acceptance Criteria"}},
		{KindSpec, []string{"## Overview", "## Requirements", "## Open Questions"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := Template(tt.kind, Meta{ID: "x", Name: "Shopper", Description: "Buys things."})
			if err != nil {
				t.Fatalf("Template() error = %v", err)
			}
			meta, body, err := frontmatter.Read(got)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if meta["type"] != string(tt.kind) || meta["name"] != "Shopper" || meta["id"] != "x" {
				t.Errorf("frontmatter = %v", meta)
			}
			if !strings.HasPrefix(body, "\n# Shopper\n\nBuys things.\n") {
				t.Errorf("body = %q", body)
			}
			for _, sec := range tt.sections {
				if !strings.Contains(body, sec+"\n") {
					t.Errorf("body missing %q:\n%s", sec, body)
				}
			}
		})
	}
}

func TestTemplateSession(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 15, 500, time.FixedZone("CET", 3600))
	tpl := &Templates{Now: func() time.Time { return start }}
	got, err := tpl.Render(KindSession, Meta{ID: "s1", Name: "Payments"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	s, err := ReadSession(got)
	if err != nil {
		t.Fatalf("ReadSession() error = %v", err)
	}
	if s.ID != "s1" || s.Status != StatusActive || s.Type != KindSession {
		t.Errorf("session = %+v", s)
	}
	if want := time.Date(2026, 3, 1, 8, 30, 15, 0, time.UTC); !s.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", s.StartTime, want)
	}
	if s.EndTime != nil || len(s.ChangedFiles) != 0 {
		t.Errorf("new session has end time or changes: %+v", s)
	}
}

func TestTemplateRejectsIncompleteMeta(t *testing.T) {
	if _, err := Template(KindActor, Meta{Name: "x"}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Template() error = %v, want %s", err, errs.ErrCodeInvalidInput)
	}
	if _, err := Template("widget", Meta{ID: "x", Name: "x"}); !errs.Is(err, errs.ErrCodeInvalidKind) {
		t.Errorf("Template() error = %v, want %s", err, errs.ErrCodeInvalidKind)
	}
}
