package gumroad

import (
	"strings"

	"golang.org/x/net/html"
)

// Small traversal helpers over the x/net/html node tree. Selector engines
// are deliberately avoided; the handful of shapes this package reads are
// matched structurally.

// walkNodes visits n and all its descendants in document order until fn
// returns false.
func walkNodes(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkNodes(c, fn) {
			return false
		}
	}
	return true
}

// findNode returns the first node in document order satisfying pred
func findNode(n *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	walkNodes(n, func(node *html.Node) bool {
		if pred(node) {
			found = node
			return false
		}
		return true
	})
	return found
}

// attrVal returns the value of the named attribute, empty when absent
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the node's class attribute contains the class
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// isElement reports whether n is an element with the given tag name
func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// elementChildren returns the direct element children of n
func elementChildren(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

// nodeText returns the concatenated, trimmed text content of n
func nodeText(n *html.Node) string {
	var b strings.Builder
	walkNodes(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// firstByClass returns the first descendant carrying the CSS class
func firstByClass(n *html.Node, class string) *html.Node {
	return findNode(n, func(node *html.Node) bool {
		return node.Type == html.ElementNode && hasClass(node, class)
	})
}

// firstByTag returns the first descendant element with the tag name
func firstByTag(n *html.Node, tag string) *html.Node {
	return findNode(n, func(node *html.Node) bool {
		return isElement(node, tag)
	})
}

// firstByRole returns the first descendant with the given role attribute
func firstByRole(n *html.Node, role string) *html.Node {
	return findNode(n, func(node *html.Node) bool {
		return node.Type == html.ElementNode && attrVal(node, "role") == role
	})
}

// leadingText returns the first non-empty text node of the document,
// skipping descent into element bodies beyond the first text encountered.
func leadingText(n *html.Node) string {
	var text string
	walkNodes(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				text = t
				return false
			}
		}
		return true
	})
	return text
}
