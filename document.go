// Copyright 2020 The nonstop Authors. All rights reserved.

package nonstop

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

// Document is a parsed SVG file: the root element plus whatever precedes
// and follows it (XML declaration, doctype, comments, whitespace).
type Document struct {
	Prolog []Node
	Root   *Element
	Epilog []Node
}

var (
	errNoRoot        = errors.New("document has no root element")
	errMultipleRoots = errors.New("document has more than one root element")
	errForeignNode   = errors.New("cannot serialize node")
)

var (
	encodingDecl = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)
	// internal entity in a doctype subset, e.g. <!ENTITY ns_svg "http://www.w3.org/2000/svg">
	entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"']+)\s+("[^"]*"|'[^']*')\s*>`)
)

// ReadFile reads the SVG document from the named file.
func ReadFile(svgFile string) (*Document, error) {
	fin, errf := os.Open(svgFile)
	if errf != nil {
		return nil, errf
	}
	defer fin.Close()
	return ReadDocument(fin)
}

// ReadDocument reads an SVG document from stream. Element and attribute
// prefixes are kept as written, so a document saved back differs from the
// source only by the changes made to the tree. Input in a non UTF-8 encoding
// is decoded, and its XML declaration rewritten to name UTF-8.
//
// Internal entities declared in the doctype, as Adobe Illustrator writes
// them for namespace URIs, are expanded where they are used; the doctype
// itself is kept.
func ReadDocument(stream io.Reader) (*Document, error) {
	doc := &Document{}
	var open []*Element
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	decoder.Entity = map[string]string{}
	for {
		t, err := decoder.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		var n *Element
		switch se := t.(type) {
		case xml.StartElement:
			n = NewElement(qualifiedName(se.Name))
			for _, attr := range se.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualifiedName(attr.Name), Value: attr.Value})
			}
		case xml.EndElement:
			name := qualifiedName(se.Name)
			if len(open) == 0 || open[len(open)-1].Name != name {
				line, _ := decoder.InputPos()
				return nil, fmt.Errorf("line %d: unexpected end element </%s>", line, name)
			}
			open = open[:len(open)-1]
			continue
		case xml.CharData:
			n = &Element{Kind: TextNode, Data: string(se)}
		case xml.Comment:
			n = &Element{Kind: CommentNode, Data: string(se)}
		case xml.ProcInst:
			inst := string(se.Inst)
			if se.Target == "xml" {
				inst = encodingDecl.ReplaceAllString(inst, `encoding="UTF-8"`)
			}
			n = &Element{Kind: ProcInstNode, Name: se.Target, Data: inst}
		case xml.Directive:
			for _, m := range entityDecl.FindAllStringSubmatch(string(se), -1) {
				decoder.Entity[m[1]] = m[2][1 : len(m[2])-1]
			}
			n = &Element{Kind: DirectiveNode, Data: string(se)}
		default:
			continue
		}
		switch {
		case len(open) > 0:
			open[len(open)-1].AppendChild(n)
		case n.Kind == ElementNode && doc.Root != nil:
			return nil, errMultipleRoots
		case n.Kind == ElementNode:
			doc.Root = n
		case doc.Root == nil:
			doc.Prolog = append(doc.Prolog, n)
		default:
			doc.Epilog = append(doc.Epilog, n)
		}
		if n.Kind == ElementNode {
			open = append(open, n)
		}
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("unexpected end of document, <%s> not closed: %w",
			open[len(open)-1].Name, io.ErrUnexpectedEOF)
	}
	if doc.Root == nil {
		return nil, errNoRoot
	}
	return doc, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// WriteFile saves the document to the named file, replacing any existing one.
func (d *Document) WriteFile(name string) error {
	fout, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err = d.WriteTo(fout); err != nil {
		fout.Close()
		return err
	}
	return fout.Close()
}

// WriteTo serializes the document as UTF-8 XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.Root == nil {
		return 0, errNoRoot
	}
	var buf bytes.Buffer
	for _, n := range d.Prolog {
		if err := writeNode(&buf, n); err != nil {
			return 0, err
		}
	}
	if err := writeNode(&buf, d.Root); err != nil {
		return 0, err
	}
	for _, n := range d.Epilog {
		if err := writeNode(&buf, n); err != nil {
			return 0, err
		}
	}
	return buf.WriteTo(w)
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;",
		`"`, "&quot;", "\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

func writeNode(buf *bytes.Buffer, n Node) error {
	e, ok := n.(*Element)
	if !ok {
		return fmt.Errorf("%w of type %T", errForeignNode, n)
	}
	switch e.Kind {
	case TextNode:
		textEscaper.WriteString(buf, e.Data)
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(e.Data)
		buf.WriteString("-->")
	case ProcInstNode:
		buf.WriteString("<?")
		buf.WriteString(e.Name)
		if e.Data != "" {
			buf.WriteByte(' ')
			buf.WriteString(e.Data)
		}
		buf.WriteString("?>")
	case DirectiveNode:
		buf.WriteString("<!")
		buf.WriteString(e.Data)
		buf.WriteByte('>')
	default:
		buf.WriteByte('<')
		buf.WriteString(e.Name)
		for _, a := range e.Attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name)
			buf.WriteString(`="`)
			attrEscaper.WriteString(buf, a.Value)
			buf.WriteByte('"')
		}
		if len(e.children) == 0 {
			buf.WriteString("/>")
			return nil
		}
		buf.WriteByte('>')
		for _, c := range e.children {
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteString("</")
		buf.WriteString(e.Name)
		buf.WriteByte('>')
	}
	return nil
}
