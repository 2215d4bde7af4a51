package esocial

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed marks documents that fail well-formedness validation. Parsers
// surface it before attempting any field extraction.
var ErrMalformed = errors.New("xml inválido: erro de parsing")

// Node is a minimal DOM over an eSocial document. Tag names are stored with
// any namespace prefix stripped, because government schemas mix prefixed and
// unprefixed variants of the same elements.
type Node struct {
	name     string
	attrs    map[string]string
	children []*Node
	text     string
	parent   *Node
}

// Parse builds the document tree from raw XML text.
func Parse(content string) (*Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var root *Node
	var current *Node

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &Node{
				name:   localName(t.Name.Local),
				attrs:  make(map[string]string, len(t.Attr)),
				parent: current,
			}
			for _, attr := range t.Attr {
				node.attrs[localName(attr.Name.Local)] = attr.Value
			}
			if current == nil {
				if root != nil {
					return nil, fmt.Errorf("%w: múltiplos elementos raiz", ErrMalformed)
				}
				root = node
			} else {
				current.children = append(current.children, node)
			}
			current = node
		case xml.EndElement:
			if current == nil {
				return nil, fmt.Errorf("%w: elemento de fechamento inesperado", ErrMalformed)
			}
			current = current.parent
		case xml.CharData:
			if current != nil {
				current.text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: documento vazio", ErrMalformed)
	}
	if current != nil {
		return nil, fmt.Errorf("%w: elemento %s não fechado", ErrMalformed, current.name)
	}
	return root, nil
}

// localName strips an XML namespace prefix, matching how the original router
// compares tags: "ns}tag" and "ns:tag" both reduce to "tag".
func localName(tag string) string {
	if idx := strings.LastIndexAny(tag, "}:"); idx >= 0 {
		return tag[idx+1:]
	}
	return tag
}

// Name returns the element's namespace-free tag name.
func (n *Node) Name() string { return n.name }

// Children returns the immediate child elements in document order.
func (n *Node) Children() []*Node { return n.children }

// Attr returns the named attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.attrs[name]
}

// First returns the first descendant matching any of the candidate tag
// names. Candidates express schema-variant fallback chains: the first name is
// tried across the whole subtree before the next is considered. Nil receiver
// and no match both yield nil, so lookups chain without nil checks.
func (n *Node) First(names ...string) *Node {
	if n == nil {
		return nil
	}
	for _, name := range names {
		if found := n.find(name); found != nil {
			return found
		}
	}
	return nil
}

// All returns every descendant with the given tag name, in document order.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, child := range n.children {
		if child.name == name {
			out = append(out, child)
		}
		out = append(out, child.All(name)...)
	}
	return out
}

// Parent returns the enclosing element, or nil at the root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Text returns the trimmed text content of the first descendant matching the
// candidate names, or "" when absent. With no names it returns the node's own
// text.
func (n *Node) Text(names ...string) string {
	if n == nil {
		return ""
	}
	if len(names) == 0 {
		return strings.TrimSpace(n.text)
	}
	return n.First(names...).Text()
}

// Number parses the matched text as a float, yielding 0 on absence or
// malformed numbers. Monetary fields in the wild carry both "1234.56" and
// empty strings.
func (n *Node) Number(names ...string) float64 {
	value, err := strconv.ParseFloat(n.Text(names...), 64)
	if err != nil {
		return 0
	}
	return value
}

func (n *Node) find(name string) *Node {
	for _, child := range n.children {
		if child.name == name {
			return child
		}
		if found := child.find(name); found != nil {
			return found
		}
	}
	return nil
}
