// Package output renders collected directory trees.
package output

import "github.com/temirov/dirtree/internal/types"

// Tree is an in-memory node hierarchy collected from a traversal. It implements
// types.TreeSink so the walker can populate it directly.
type Tree struct {
	Node     types.TreeNode
	Children []*Tree
}

// NewTree returns a tree rooted at root.
func NewTree(root types.TreeNode) *Tree {
	return &Tree{Node: root}
}

// AddNode appends node as the last child and returns the sink for its children.
// Only directories accept children; other kinds return nil.
func (tree *Tree) AddNode(node types.TreeNode) types.TreeSink {
	child := &Tree{Node: node}
	tree.Children = append(tree.Children, child)
	if !node.IsDirectory() {
		return nil
	}
	return child
}

// CountNodes returns the number of descendants below tree.
func (tree *Tree) CountNodes() int {
	total := 0
	for _, child := range tree.Children {
		total += 1 + child.CountNodes()
	}
	return total
}

var _ types.TreeSink = (*Tree)(nil)
