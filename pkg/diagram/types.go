package diagram

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Data.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Data.AddNode] when a node with the
	// same ID is already part of the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [Data.AddEdge] when an edge with the
	// same ID is already part of the graph.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSourceNode is returned when an edge's Source does not name a node.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned when an edge's Target does not name a node.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownNode is returned by [Data.RemoveNode] when no node has the given ID.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidClassifier is returned by [Data.AddNode] when the classifier
	// is not a bare word of letters, digits, '_' or '-'.
	ErrInvalidClassifier = errors.New("invalid classifier")

	// ErrInvalidMetaKey is returned when a Meta key is not a bare word or
	// collides with a reserved attribute.
	ErrInvalidMetaKey = errors.New("invalid meta key")
)

// Data is the editable graph held by the canvas between load and save.
// Every parse returns a fresh value; the zero value is an empty graph.
//
// Nodes and Edges keep document order, which keeps re-serialized output
// stable across round trips.
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a shape instance on the canvas.
type Node struct {
	ID         string            `json:"id"`
	Classifier string            `json:"classifier,omitempty"` // shape type, see pkg/shapes
	Label      string            `json:"label"`
	X          float64           `json:"x,omitempty"`
	Y          float64           `json:"y,omitempty"`
	Width      float64           `json:"width,omitempty"`
	Height     float64           `json:"height,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"` // attributes this package does not model
}

// Edge is a directed connector between two nodes.
type Edge struct {
	ID     string            `json:"id"`
	Source string            `json:"source"`
	Target string            `json:"target"`
	Label  string            `json:"label,omitempty"`
	Route  []Point           `json:"route,omitempty"` // waypoints between source and target
	Meta   map[string]string `json:"meta,omitempty"`
}

// Point is a routing waypoint in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultEdgeID is the ID an edge gets when the document does not name one.
func DefaultEdgeID(source, target string) string {
	return source + "->" + target
}

// Empty returns a graph with non-nil, empty node and edge slices so that it
// encodes as {"nodes":[],"edges":[]}.
func Empty() Data {
	return Data{Nodes: []Node{}, Edges: []Edge{}}
}

// NodeCount returns the number of nodes.
func (d Data) NodeCount() int { return len(d.Nodes) }

// EdgeCount returns the number of edges.
func (d Data) EdgeCount() int { return len(d.Edges) }

// Node returns the node with the given ID.
func (d Data) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given ID exists.
func (d Data) HasNode(id string) bool {
	_, ok := d.Node(id)
	return ok
}

// AddNode appends n. The node ID must be non-empty and unused, and the
// classifier and Meta keys must be expressible in directive syntax.
func (d *Data) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Classifier != "" && !validClassifier(n.Classifier) {
		return fmt.Errorf("%w: %q", ErrInvalidClassifier, n.Classifier)
	}
	if err := checkMeta(n.Meta, attrID, attrX, attrY, attrWidth, attrHeight); err != nil {
		return err
	}
	if d.HasNode(n.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	d.Nodes = append(d.Nodes, n)
	return nil
}

// AddEdge appends e. Both endpoints must exist. An empty ID is replaced with
// the first free ID derived from [DefaultEdgeID].
func (d *Data) AddEdge(e Edge) error {
	if !d.HasNode(e.Source) {
		return fmt.Errorf("%w: %s", ErrUnknownSourceNode, e.Source)
	}
	if !d.HasNode(e.Target) {
		return fmt.Errorf("%w: %s", ErrUnknownTargetNode, e.Target)
	}
	if err := checkMeta(e.Meta, attrID, attrRoute); err != nil {
		return err
	}
	used := make(map[string]bool, len(d.Edges))
	for _, x := range d.Edges {
		used[x.ID] = true
	}
	if e.ID == "" {
		e.ID = nextEdgeID(DefaultEdgeID(e.Source, e.Target), used)
	} else if used[e.ID] {
		return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
	}
	d.Edges = append(d.Edges, e)
	return nil
}

// RemoveNode deletes the node and every edge touching it.
func (d *Data) RemoveNode(id string) error {
	i := slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	d.Nodes = slices.Delete(d.Nodes, i, i+1)
	d.Edges = slices.DeleteFunc(d.Edges, func(e Edge) bool {
		return e.Source == id || e.Target == id
	})
	return nil
}

// Validate checks referential integrity: node IDs are non-empty and unique,
// edge IDs are unique, and every edge endpoint names a node. All violations
// are returned joined together.
func (d Data) Validate() error {
	var errs []error
	nodes := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, fmt.Errorf("node %d: %w", i, ErrInvalidNodeID))
		case nodes[n.ID]:
			errs = append(errs, fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID))
		}
		nodes[n.ID] = true
	}
	edges := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if edges[e.ID] {
			errs = append(errs, fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateEdgeID))
		}
		edges[e.ID] = true
		if !nodes[e.Source] {
			errs = append(errs, fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownSourceNode, e.Source))
		}
		if !nodes[e.Target] {
			errs = append(errs, fmt.Errorf("edge %s: %w: %s", e.ID, ErrUnknownTargetNode, e.Target))
		}
	}
	return errors.Join(errs...)
}

// Prune removes edges whose endpoints are missing and returns them.
func (d *Data) Prune() []Edge {
	var dropped []Edge
	kept := d.Edges[:0]
	for _, e := range d.Edges {
		if d.HasNode(e.Source) && d.HasNode(e.Target) {
			kept = append(kept, e)
			continue
		}
		dropped = append(dropped, e)
	}
	d.Edges = kept
	return dropped
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	out := Data{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		n.Meta = copyMeta(n.Meta)
		out.Nodes[i] = n
	}
	for i, e := range d.Edges {
		e.Meta = copyMeta(e.Meta)
		e.Route = slices.Clone(e.Route)
		out.Edges[i] = e
	}
	return out
}

func checkMeta(meta map[string]string, reserved ...string) error {
	for k := range meta {
		if !validClassifier(k) || slices.Contains(reserved, k) {
			return fmt.Errorf("%w: %q", ErrInvalidMetaKey, k)
		}
	}
	return nil
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// nextEdgeID returns base if unused, otherwise base#2, base#3, ...
func nextEdgeID(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	for i := 2; ; i++ {
		id := fmt.Sprintf("%s#%d", base, i)
		if !used[id] {
			return id
		}
	}
}
