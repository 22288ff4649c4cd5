// Package types defines every cross‑package data structure used by the dirtree CLI.
package types

const (
	NodeKindDirectory = "directory"
	NodeKindFile      = "file"
	NodeKindError     = "error"

	StyleDefault = "default"
	StyleDim     = "dim"

	IconFolder = "folder"
	IconScript = "script"
	IconFile   = "file"
	IconError  = "error"

	FormatTree  = "tree"
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// TreeNode is a decorated filesystem entry handed to a TreeSink.
// It carries presentation hints but no presentation.
type TreeNode struct {
	Name      string
	Path      string
	Kind      string
	SizeBytes int64
	Size      string
	Style     string
	Icon      string
	Link      string
	Error     string
}

// IsDirectory reports whether the node represents a directory.
func (node TreeNode) IsDirectory() bool {
	return node.Kind == NodeKindDirectory
}

// TreeSink receives nodes in traversal order. AddNode returns the sink that
// receives the children of the added node; it is only consulted for directories
// and may be nil for other kinds.
type TreeSink interface {
	AddNode(node TreeNode) TreeSink
}

// TreeOutputNode represents a node of a directory tree in JSON output.
type TreeOutputNode struct {
	Path      string            `json:"path"`
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Size      string            `json:"size,omitempty"`
	SizeBytes int64             `json:"sizeBytes,omitempty"`
	Style     string            `json:"style,omitempty"`
	Icon      string            `json:"icon,omitempty"`
	Link      string            `json:"link,omitempty"`
	Error     string            `json:"error,omitempty"`
	Children  []*TreeOutputNode `json:"children,omitempty"`
}
