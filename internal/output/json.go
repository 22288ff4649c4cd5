package output

import (
	"encoding/json"
	"fmt"

	"github.com/temirov/dirtree/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	errorMarshalTreeFormat = "failed to marshal tree to JSON: %w"
)

// RenderJSON returns the tree as indented JSON.
func RenderJSON(tree *Tree) (string, error) {
	jsonData, marshalError := json.MarshalIndent(toOutputNode(tree), indentPrefix, indentSpacer)
	if marshalError != nil {
		return "", fmt.Errorf(errorMarshalTreeFormat, marshalError)
	}
	return string(jsonData), nil
}

func toOutputNode(tree *Tree) *types.TreeOutputNode {
	outputNode := &types.TreeOutputNode{
		Path:      tree.Node.Path,
		Name:      tree.Node.Name,
		Type:      tree.Node.Kind,
		Size:      tree.Node.Size,
		SizeBytes: tree.Node.SizeBytes,
		Icon:      tree.Node.Icon,
		Link:      tree.Node.Link,
		Error:     tree.Node.Error,
	}
	if tree.Node.Style != types.StyleDefault {
		outputNode.Style = tree.Node.Style
	}
	for _, child := range tree.Children {
		outputNode.Children = append(outputNode.Children, toOutputNode(child))
	}
	return outputNode
}
