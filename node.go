package nonstop

import "strings"

// Node is the view of a document tree the gradient resolver works with.
// Any tree that can report tags and attributes, list and append children and
// produce attribute-only copies of its nodes can be repaired.
type Node interface {
	// Tag returns the qualified element name, e.g. "linearGradient".
	// Non-element nodes report a name starting with '#', e.g. "#text".
	Tag() string
	// Attr returns the value of the attribute with the given qualified name.
	Attr(name string) (string, bool)
	Children() []Node
	AppendChild(n Node)
	// CloneShallow copies the node and its attributes but none of its children.
	CloneShallow() Node
}

// Kind tells element nodes apart from the content kept between them.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

var kindNames = [...]string{
	TextNode:      "#text",
	CommentNode:   "#comment",
	ProcInstNode:  "#procinst",
	DirectiveNode: "#directive",
}

// Attr is an attribute with its qualified name as written in the source,
// so "xlink:href" stays "xlink:href".
type Attr struct {
	Name, Value string
}

// Element is the Node implementation produced by ReadDocument.
type Element struct {
	Kind     Kind
	Name     string // qualified element name, or the target of a processing instruction
	Attrs    []Attr
	Data     string // character data, comment text, instruction or directive body
	children []Node
}

// NewElement returns an element node with the given attributes.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Kind: ElementNode, Name: name, Attrs: attrs}
}

// NewText returns a character data node.
func NewText(data string) *Element {
	return &Element{Kind: TextNode, Data: data}
}

func (e *Element) Tag() string {
	if e.Kind != ElementNode {
		return kindNames[e.Kind]
	}
	return e.Name
}

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces the value of an existing attribute or adds a new one.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

func (e *Element) Children() []Node { return e.children }

func (e *Element) AppendChild(n Node) {
	e.children = append(e.children, n)
}

func (e *Element) CloneShallow() Node {
	c := &Element{Kind: e.Kind, Name: e.Name, Data: e.Data}
	if len(e.Attrs) > 0 {
		c.Attrs = make([]Attr, len(e.Attrs))
		copy(c.Attrs, e.Attrs)
	}
	return c
}

// isText reports whether n is content between elements rather than an element.
func isText(n Node) bool {
	return strings.HasPrefix(n.Tag(), "#")
}

// findNode returns the first element among nodes with the given tag.
func findNode(nodes []Node, tag string) Node {
	for _, n := range nodes {
		if n.Tag() == tag {
			return n
		}
	}
	return nil
}
