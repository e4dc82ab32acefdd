package loaders

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// XMLNode is the generic parsed form of an XML asset: an element with its
// attributes, text content, and child elements in document order.
type XMLNode struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*XMLNode
}

// Attr returns the named attribute.
func (n *XMLNode) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Child returns the first child element with the given name.
func (n *XMLNode) Child(name string) (*XMLNode, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ChildrenNamed returns every child element with the given name.
func (n *XMLNode) ChildrenNamed(name string) []*XMLNode {
	var out []*XMLNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// parseXML builds the node tree of the document's root element.
func parseXML(data []byte) (*XMLNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(dec, start)
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*XMLNode, error) {
	node := &XMLNode{
		Name:  start.Name.Local,
		Attrs: make(map[string]string, len(start.Attr)),
	}
	for _, a := range start.Attr {
		node.Attrs[a.Name.Local] = a.Value
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			node.Text = strings.TrimSpace(text.String())
			return node, nil
		}
	}
	node.Text = strings.TrimSpace(text.String())
	return node, nil
}
