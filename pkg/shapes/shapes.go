// Package shapes is the catalogue of node classifiers a Forge diagram may
// use.
//
// The registry is a fixed table built at package initialization. It is only
// reachable through [Lookup], [MustLookup] and [All], so callers can never
// change it and lookups need no locking.
package shapes

import (
	"slices"
	"strings"
)

// Category groups shapes in palettes and listings.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryActor   Category = "actor"
	CategoryFeature Category = "feature"
	CategorySpec    Category = "spec"
)

// Default is the classifier used for nodes declared without one.
const Default = "box"

// Shape describes how a classifier is drawn.
type Shape struct {
	Classifier    string   `json:"classifier"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Width         float64  `json:"width"`
	Height        float64  `json:"height"`
	Color         string   `json:"color"`
	GraphvizShape string   `json:"graphviz_shape"`
}

var registry = build([]Shape{
	{Classifier: "box", Name: "Box", Category: CategoryGeneral, Width: 120, Height: 60, Color: "#ffffff", GraphvizShape: "box"},
	{Classifier: "group", Name: "Group", Category: CategoryGeneral, Width: 240, Height: 160, Color: "#f5f5f5", GraphvizShape: "folder"},
	{Classifier: "note", Name: "Note", Category: CategoryGeneral, Width: 140, Height: 80, Color: "#fff8c4", GraphvizShape: "note"},
	{Classifier: "external_system", Name: "External System", Category: CategoryGeneral, Width: 140, Height: 70, Color: "#e8e8e8", GraphvizShape: "box3d"},
	{Classifier: "database", Name: "Database", Category: CategoryGeneral, Width: 100, Height: 80, Color: "#dbe9f6", GraphvizShape: "cylinder"},
	{Classifier: "queue", Name: "Queue", Category: CategoryGeneral, Width: 140, Height: 50, Color: "#e6f2e6", GraphvizShape: "cds"},
	{Classifier: "actor", Name: "Actor", Category: CategoryActor, Width: 80, Height: 100, Color: "#fde2cf", GraphvizShape: "oval"},
	{Classifier: "system_actor", Name: "System Actor", Category: CategoryActor, Width: 100, Height: 100, Color: "#e5dcf5", GraphvizShape: "hexagon"},
	{Classifier: "feature", Name: "Feature", Category: CategoryFeature, Width: 160, Height: 70, Color: "#d4f0f0", GraphvizShape: "component"},
	{Classifier: "scenario", Name: "Scenario", Category: CategoryFeature, Width: 160, Height: 60, Color: "#eaf7f7", GraphvizShape: "parallelogram"},
	{Classifier: "spec", Name: "Spec", Category: CategorySpec, Width: 140, Height: 80, Color: "#f0e6d2", GraphvizShape: "tab"},
})

func build(list []Shape) map[string]Shape {
	m := make(map[string]Shape, len(list))
	for _, s := range list {
		if _, dup := m[s.Classifier]; dup {
			panic("shapes: duplicate classifier " + s.Classifier)
		}
		m[s.Classifier] = s
	}
	return m
}

// Lookup returns the shape for a classifier. Matching ignores case and an
// empty classifier selects [Default].
func Lookup(classifier string) (Shape, bool) {
	if classifier == "" {
		classifier = Default
	}
	s, ok := registry[strings.ToLower(classifier)]
	return s, ok
}

// MustLookup is like [Lookup] but falls back to the default box for unknown
// classifiers.
func MustLookup(classifier string) Shape {
	if s, ok := Lookup(classifier); ok {
		return s
	}
	return registry[Default]
}

// Known reports whether classifier names a registered shape.
func Known(classifier string) bool {
	_, ok := Lookup(classifier)
	return ok
}

// All returns every shape sorted by category and then classifier. The slice
// is a fresh copy.
func All() []Shape {
	out := make([]Shape, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Shape) int {
		if c := strings.Compare(string(a.Category), string(b.Category)); c != 0 {
			return c
		}
		return strings.Compare(a.Classifier, b.Classifier)
	})
	return out
}

// ByCategory returns the shapes of one category in classifier order.
func ByCategory(c Category) []Shape {
	var out []Shape
	for _, s := range All() {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}
