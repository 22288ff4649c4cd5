package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/muesli/termenv"

	"github.com/temirov/dirtree/internal/types"
)

const (
	folderIcon = "📂 "
	scriptIcon = "🐍 "
	fileIcon   = "📄 "
	errorIcon  = "⚠ "

	extensionMarker = "."
	sizeFormatOpen  = " ("
	sizeFormatClose = ")"
	errorSeparator  = ": "

	magentaColor    = lipgloss.Color("5")
	greenColor      = lipgloss.Color("2")
	redColor        = lipgloss.Color("1")
	blueColor       = lipgloss.Color("4")
	brightBlueColor = lipgloss.Color("12")
)

// RenderOptions selects how a tree is drawn.
type RenderOptions struct {
	// Writer is the destination used to detect terminal color support. Nil means no color.
	Writer io.Writer
	// Plain disables colors, text attributes and hyperlinks.
	Plain bool
	// ForceStyles emits ANSI colors even when Writer is not a terminal. Plain wins.
	ForceStyles bool
}

// palette holds the styles of one rendering pass.
type palette struct {
	guide     lipgloss.Style
	dimGuide  lipgloss.Style
	directory lipgloss.Style
	dim       lipgloss.Style
	fileName  lipgloss.Style
	extension lipgloss.Style
	size      lipgloss.Style
	failure   lipgloss.Style
	links     bool
}

func newPalette(options RenderOptions) palette {
	writer := options.Writer
	if writer == nil {
		writer = io.Discard
	}
	renderer := lipgloss.NewRenderer(writer)
	switch {
	case options.Plain:
		renderer.SetColorProfile(termenv.Ascii)
	case options.ForceStyles:
		renderer.SetColorProfile(termenv.ANSI)
	case options.Writer == nil:
		renderer.SetColorProfile(termenv.Ascii)
	}
	return palette{
		guide:     renderer.NewStyle().Bold(true).Foreground(brightBlueColor).PaddingRight(1),
		dimGuide:  renderer.NewStyle().Faint(true).PaddingRight(1),
		directory: renderer.NewStyle().Bold(true).Foreground(magentaColor),
		dim:       renderer.NewStyle().Faint(true),
		fileName:  renderer.NewStyle().Foreground(greenColor),
		extension: renderer.NewStyle().Bold(true).Foreground(redColor),
		size:      renderer.NewStyle().Foreground(blueColor),
		failure:   renderer.NewStyle().Foreground(redColor),
		links:     renderer.ColorProfile() != termenv.Ascii,
	}
}

// RenderTree draws the collected tree with tree-drawing guides. The root label
// shows the root node's name, which is expected to be the absolute path.
func RenderTree(collected *Tree, options RenderOptions) string {
	styles := newPalette(options)
	root := tree.Root(styles.label(collected.Node, false)).
		Enumerator(tree.DefaultEnumerator).
		EnumeratorStyle(styles.guide)
	styles.appendChildren(root, collected.Children, false)
	return root.String()
}

// appendChildren adds children to branch. A dim directory fades its whole
// branch: labels, guides and every descendant.
func (styles palette) appendChildren(branch *tree.Tree, children []*Tree, dimmed bool) {
	for _, child := range children {
		childDimmed := dimmed || child.Node.Style == types.StyleDim
		if !child.Node.IsDirectory() {
			branch.Child(styles.label(child.Node, childDimmed))
			continue
		}
		subtree := tree.Root(styles.label(child.Node, childDimmed))
		if childDimmed {
			subtree.EnumeratorStyle(styles.dimGuide)
		}
		styles.appendChildren(subtree, child.Children, childDimmed)
		branch.Child(subtree)
	}
}

func (styles palette) label(node types.TreeNode, dimmed bool) string {
	if dimmed {
		return styles.dim.Render(styles.unstyledLabel(node))
	}
	switch node.Kind {
	case types.NodeKindDirectory:
		return folderIcon + styles.directory.Render(styles.hyperlink(node.Link, node.Name))
	case types.NodeKindError:
		return styles.failure.Render(errorIcon + node.Name + errorSeparator + node.Error)
	default:
		return iconFor(node.Icon) + styles.hyperlink(node.Link, styles.fileNameText(node.Name)) +
			styles.size.Render(sizeFormatOpen+node.Size+sizeFormatClose)
	}
}

// unstyledLabel is the label text without colors; hyperlinks are kept.
func (styles palette) unstyledLabel(node types.TreeNode) string {
	switch node.Kind {
	case types.NodeKindDirectory:
		return folderIcon + styles.hyperlink(node.Link, node.Name)
	case types.NodeKindError:
		return errorIcon + node.Name + errorSeparator + node.Error
	default:
		return iconFor(node.Icon) + styles.hyperlink(node.Link, node.Name) + sizeFormatOpen + node.Size + sizeFormatClose
	}
}

// fileNameText colors the name, highlighting everything from the first dot.
func (styles palette) fileNameText(name string) string {
	markerIndex := strings.Index(name, extensionMarker)
	if markerIndex < 0 {
		return styles.fileName.Render(name)
	}
	stem := ""
	if markerIndex > 0 {
		stem = styles.fileName.Render(name[:markerIndex])
	}
	return stem + styles.extension.Render(name[markerIndex:])
}

func (styles palette) hyperlink(link string, text string) string {
	if !styles.links || link == "" {
		return text
	}
	return termenv.Hyperlink(link, text)
}

func iconFor(icon string) string {
	switch icon {
	case types.IconScript:
		return scriptIcon
	case types.IconError:
		return errorIcon
	default:
		return fileIcon
	}
}
