// Copyright 2020 The nonstop Authors. All rights reserved.

package nonstop

import "strings"

const (
	defsTag  = "defs"
	groupTag = "g"
	stopTag  = "stop"
	idAttr   = "id"

	// DefaultLinkAttr is the attribute a gradient uses to borrow the stops
	// of another one.
	DefaultLinkAttr = "xlink:href"
)

func isGradient(n Node) bool {
	switch n.Tag() {
	case "linearGradient", "radialGradient":
		return true
	}
	return false
}

// parseURIRef returns the id named by a local reference such as "#grad1".
func parseURIRef(ref string) (id string) {
	return strings.TrimPrefix(ref, "#")
}

// index is a map that remembers the order keys were first added in.
type index[V any] struct {
	keys   []string
	values map[string]V
}

func (x *index[V]) get(key string) (V, bool) {
	v, ok := x.values[key]
	return v, ok
}

// set stores v under key. Replacing a value keeps the key's original position.
func (x *index[V]) set(key string, v V) {
	if x.values == nil {
		x.values = make(map[string]V)
	}
	if _, ok := x.values[key]; !ok {
		x.keys = append(x.keys, key)
	}
	x.values[key] = v
}

func (x *index[V]) Len() int { return len(x.keys) }

// IDs returns the keys in the order they were first seen.
func (x *index[V]) IDs() []string { return x.keys }

// StopsByID maps gradient ids to their stop nodes in document order.
type StopsByID struct {
	index[[]Node]
}

// Stops returns the stops collected for the gradient id.
func (s *StopsByID) Stops(id string) []Node {
	stops, _ := s.get(id)
	return stops
}

// ReferencesByID maps a gradient id to the nodes linking to it, in
// document order.
type ReferencesByID struct {
	index[[]Node]
}

func (r *ReferencesByID) add(id string, n Node) {
	refs, _ := r.get(id)
	r.set(id, append(refs, n))
}

// References returns the nodes linking to the gradient id.
func (r *ReferencesByID) References(id string) []Node {
	refs, _ := r.get(id)
	return refs
}

// extractStops records the stop children of gradient under its id. Gradients
// without stops are ignored.
func extractStops(gradient Node, pos int, stops *StopsByID) (id string, n int, err error) {
	var stopNodes []Node
	for _, c := range gradient.Children() {
		if c.Tag() == stopTag {
			stopNodes = append(stopNodes, c)
		}
	}
	if len(stopNodes) == 0 {
		return "", 0, nil
	}
	id, ok := gradient.Attr(idAttr)
	if !ok {
		return "", 0, &PreconditionError{Tag: gradient.Tag(), Index: pos, Err: ErrMissingID}
	}
	stops.set(id, stopNodes)
	return id, len(stopNodes), nil
}
