// Copyright 2020 The nonstop Authors. All rights reserved.
//
// Package nonstop repairs SVG files for converters that reject gradients
// whose color stops are only reachable through a link, such as the Android
// build tools turning SVG into vector drawables.
//
// A gradient like
//
//	<linearGradient id="b" xlink:href="#a"/>
//
// borrows the stops of gradient "a". Process copies those stops into every
// gradient linking to them, leaving the links in place:
//
//	<linearGradient id="b" xlink:href="#a"><stop .../><stop .../></linearGradient>
//
// Stops are looked up among the children of the document's first defs
// element and, when none are found there, anywhere below its first g element.
// Links are only looked up in defs. Chains of links are not followed.
//
// Running Process again over its own output appends the stops a second time,
// since the links that caused the first copy are still there.
package nonstop

import (
	"github.com/go-logr/logr"
)

// Options control how links are recognized.
type Options struct {
	// LinkAttr is the attribute holding the link, DefaultLinkAttr when empty.
	LinkAttr string
	// GradientLinksOnly makes only linearGradient and radialGradient
	// elements count as links. By default any element in defs carrying
	// LinkAttr does.
	GradientLinksOnly bool
}

// Processor resolves gradient stop links in a document tree.
// The zero value is ready to use and logs nothing.
type Processor struct {
	// Log receives progress at V(0) and per node diagnostics at V(1).
	Log logr.Logger
	Options
}

// NewProcessor returns a Processor logging to log.
func NewProcessor(log logr.Logger, opts Options) *Processor {
	return &Processor{Log: log, Options: opts}
}

// Process repairs the tree under rootNodes, the children of the document
// root, with a default Processor.
func Process(rootNodes []Node) (bool, error) {
	return (&Processor{Log: logr.Discard()}).Process(rootNodes)
}

// Process copies stops into the gradients linking to them and reports
// whether the document was changed. A document without defs, or without
// any gradient stops, is left alone and Process returns false with a nil
// error. The only error is a *PreconditionError.
//
// Stops found by the fallback search of the g element count as a change
// even when nothing links to them.
func (p *Processor) Process(rootNodes []Node) (bool, error) {
	log := p.logger()
	defsNode := findNode(rootNodes, defsTag)
	if defsNode == nil {
		log.Info(ErrNoDefs.Error())
		return false, nil
	}

	stops, refs, err := p.collectDefs(defsNode.Children())
	if err != nil {
		return false, err
	}

	if stops.Len() == 0 {
		log.Info("Gradient stops not found in defs, searching in g(roups)...")
		gNode := findNode(rootNodes, groupTag)
		if gNode == nil {
			log.Info(ErrNoGroup.Error())
			return false, nil
		}
		log.V(1).Info("Found 'g' node...")
		if err := p.searchGroups(gNode.Children(), stops); err != nil {
			return false, err
		}
	}

	if stops.Len() == 0 {
		log.Info(ErrNoStops.Error() + " in gs.")
		return false, nil
	}

	log.Info("Inserting stops into target gradients.")
	inserted := p.injectStops(stops, refs)
	log.V(1).Info("Inserted stops", "count", inserted)
	return true, nil
}

func (p *Processor) logger() logr.Logger {
	if p.Log.GetSink() == nil {
		return logr.Discard()
	}
	return p.Log
}

func (p *Processor) linkAttr() string {
	if p.LinkAttr == "" {
		return DefaultLinkAttr
	}
	return p.LinkAttr
}

// collectDefs makes one pass over the children of defs, sorting each
// element into a link to another gradient or a gradient with its own stops.
// A node carrying the link attribute is never searched for stops.
func (p *Processor) collectDefs(nodes []Node) (*StopsByID, *ReferencesByID, error) {
	log := p.logger().V(1)
	stops, refs := &StopsByID{}, &ReferencesByID{}
	for i, n := range nodes {
		if isText(n) {
			continue
		}
		log.Info("Processing gradient node", "tag", n.Tag())

		if href, ok := n.Attr(p.linkAttr()); ok && (!p.GradientLinksOnly || isGradient(n)) {
			id := parseURIRef(href)
			refs.add(id, n)
			log.Info("Found linked gradient", "id", id)
			continue
		}
		if isGradient(n) {
			if err := p.extractStops(n, i, stops); err != nil {
				return nil, nil, err
			}
		}
	}
	return stops, refs, nil
}

// searchGroups walks a group subtree depth first looking for gradients
// with stops. It does not look for links.
func (p *Processor) searchGroups(nodes []Node, stops *StopsByID) error {
	for i, n := range nodes {
		children := n.Children()
		switch {
		case isGradient(n):
			if err := p.extractStops(n, i, stops); err != nil {
				return err
			}
		case len(children) > 0:
			id, _ := n.Attr(idAttr)
			p.logger().V(1).Info("Node contains nested groups", "tag", n.Tag(), "id", id)
			if err := p.searchGroups(children, stops); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Processor) extractStops(gradient Node, pos int, stops *StopsByID) error {
	id, n, err := extractStops(gradient, pos, stops)
	if err != nil {
		return err
	}
	if n > 0 {
		p.logger().V(1).Info("Found gradient", "tag", gradient.Tag(), "id", id, "stops", n)
	}
	return nil
}

// injectStops appends a copy of every stop of a gradient to each node
// linking to it, keeping the stop order. Links to gradients without stops
// are skipped. It returns the number of stops inserted.
func (p *Processor) injectStops(stops *StopsByID, refs *ReferencesByID) int {
	log := p.logger().V(1)
	inserted := 0
	for _, id := range refs.IDs() {
		source := stops.Stops(id)
		if len(source) == 0 {
			continue
		}
		targets := refs.References(id)
		log.Info("Inserting stops", "id", id, "gradients", len(targets))
		for _, target := range targets {
			targetID, _ := target.Attr(idAttr)
			for stopNum, stop := range source {
				if log.Enabled() {
					log.Info("Inserting stop", "index", stopNum, "target", targetID, "stop", describeStop(stop))
				}
				target.AppendChild(stop.CloneShallow())
				inserted++
			}
		}
	}
	return inserted
}
