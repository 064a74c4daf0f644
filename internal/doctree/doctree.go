// Package doctree nests a flat outline into a heading hierarchy for
// table-of-contents navigation.
package doctree

import "github.com/dgallion1/pdfread/internal/docmodel"

// DocTree is the root of a document's heading hierarchy.
type DocTree struct {
	Title    string     `json:"title"`
	Children []*DocNode `json:"children"`
}

// DocNode is one heading and the headings nested below it.
type DocNode struct {
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Page     int        `json:"page"` // 1-based
	Children []*DocNode `json:"children"`
}

// Build nests entries by level. An entry becomes a child of the nearest
// preceding entry with a smaller level; level skips (1 then 3) nest
// directly.
func Build(title string, entries []docmodel.OutlineEntry) *DocTree {
	type stackEntry struct {
		node  *DocNode
		level int
	}
	root := &DocNode{Title: title, Children: []*DocNode{}}
	stack := []stackEntry{{node: root, level: 0}}

	for _, e := range entries {
		n := &DocNode{Title: e.Title, Level: e.Level, Page: e.Page, Children: []*DocNode{}}
		for len(stack) > 1 && stack[len(stack)-1].level >= e.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, n)
		stack = append(stack, stackEntry{node: n, level: e.Level})
	}

	return &DocTree{Title: title, Children: root.Children}
}

// Walk visits every node depth-first in document order.
func (t *DocTree) Walk(fn func(n *DocNode, depth int)) {
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(t.Children, 0)
}
