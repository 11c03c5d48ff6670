// Package render projects dashboard state into a backend-neutral node tree
// and draws that tree as HTML or terminal text.
package render

// Kind identifies what a node displays.
type Kind string

const (
	KindPage    Kind = "page"
	KindHeader  Kind = "header"
	KindStatus  Kind = "status"
	KindLoading Kind = "loading"
	KindError   Kind = "error"
	KindHint    Kind = "hint"
	KindEmpty   Kind = "empty"
	KindStats   Kind = "stats"
	KindFeed    Kind = "feed"
	KindCard    Kind = "card"
	KindBadge   Kind = "badge"
	KindMeta    Kind = "meta"
	KindTitle   Kind = "title"
	KindPre     Kind = "pre"
	KindSection Kind = "section"
	KindItem    Kind = "item"
	KindField   Kind = "field"
	KindText    Kind = "text"
	KindList    Kind = "list"
	KindChip    Kind = "chip"
)

// Node is one element of a rendered dashboard. Label is an optional caption
// shown before Text.
type Node struct {
	Kind     Kind
	Key      string
	Label    string
	Text     string
	Tone     Tone
	Icon     string
	Children []*Node
}

func (n *Node) add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Find returns the first node of the given kind in depth-first order.
func (n *Node) Find(kind Kind) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(kind); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node of the given kind in depth-first order.
func (n *Node) FindAll(kind Kind) []*Node {
	var out []*Node
	n.Walk(func(c *Node) {
		if c.Kind == kind {
			out = append(out, c)
		}
	})
	return out
}

// FindKey returns the first node with the given key.
func (n *Node) FindKey(key string) *Node {
	var found *Node
	n.Walk(func(c *Node) {
		if found == nil && c.Key == key {
			found = c
		}
	})
	return found
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
