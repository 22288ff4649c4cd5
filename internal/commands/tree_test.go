package commands_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dirtree/internal/commands"
	"github.com/temirov/dirtree/internal/config"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

type recordedNode struct {
	node     types.TreeNode
	depth    int
	children []*recordedNode
}

type recordingSink struct {
	parent *recordedNode
}

func (sink *recordingSink) AddNode(node types.TreeNode) types.TreeSink {
	child := &recordedNode{node: node, depth: sink.parent.depth + 1}
	sink.parent.children = append(sink.parent.children, child)
	return &recordingSink{parent: child}
}

// flatten returns every recorded node in emission order.
func (node *recordedNode) flatten() []*recordedNode {
	var result []*recordedNode
	for _, child := range node.children {
		result = append(result, child)
		result = append(result, child.flatten()...)
	}
	return result
}

func (node *recordedNode) names() []string {
	var names []string
	for _, descendant := range node.flatten() {
		names = append(names, descendant.node.Name)
	}
	return names
}

func (node *recordedNode) childNames() []string {
	var names []string
	for _, child := range node.children {
		names = append(names, child.node.Name)
	}
	return names
}

func (node *recordedNode) find(name string) *recordedNode {
	for _, descendant := range node.flatten() {
		if descendant.node.Name == name {
			return descendant
		}
	}
	return nil
}

func walkTree(t *testing.T, root string, options commands.FilterOptions) *recordedNode {
	t.Helper()
	walker, walkerError := commands.NewWalker(options, nil)
	require.NoError(t, walkerError)
	rootNode := &recordedNode{}
	require.NoError(t, walker.Walk(root, 0, &recordingSink{parent: rootNode}))
	return rootNode
}

func unbounded() commands.FilterOptions {
	return commands.FilterOptions{MaxDepth: commands.UnlimitedDepth}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkExcludesMatchingNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "0123456789")
	writeFile(t, filepath.Join(root, "b.txt"), "hello")
	writeFile(t, filepath.Join(root, "sub", "c.json"), "{}")

	options := unbounded()
	options.ExcludePatterns = []string{"*.txt"}
	tree := walkTree(t, root, options)

	require.Equal(t, []string{"sub", "c.json", "a.py"}, tree.names())
	scriptNode := tree.find("a.py")
	require.Equal(t, types.NodeKindFile, scriptNode.node.Kind)
	require.Equal(t, types.IconScript, scriptNode.node.Icon)
	require.Equal(t, int64(10), scriptNode.node.SizeBytes)
	require.Equal(t, "10 bytes", scriptNode.node.Size)
	require.Equal(t, types.IconFile, tree.find("c.json").node.Icon)
}

func TestWalkExclusionPatternsCombineAsUnion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "test.py"), "python file")
	writeFile(t, filepath.Join(root, "test.txt"), "text file")
	writeFile(t, filepath.Join(root, "data.json"), "{}")

	options := unbounded()
	options.ExcludePatterns = []string{"*.txt", "*.json"}
	tree := walkTree(t, root, options)

	require.Equal(t, []string{"test.py"}, tree.names())
}

func TestWalkExclusionIsCaseSensitiveOnBareNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.TXT"), "upper")
	writeFile(t, filepath.Join(root, "notes.txt"), "lower")
	writeFile(t, filepath.Join(root, "docs", "guide.txt"), "nested")

	options := unbounded()
	options.ExcludePatterns = []string{"*.txt"}
	tree := walkTree(t, root, options)

	require.Equal(t, []string{"docs", "README.TXT"}, tree.names())
}

func TestWalkHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible.txt"), "visible")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".config", "settings.json"), "{}")
	writeFile(t, filepath.Join(root, "src", ".env"), "KEY=value")

	hiddenTree := walkTree(t, root, unbounded())
	for _, name := range hiddenTree.names() {
		require.False(t, strings.HasPrefix(name, "."), "unexpected hidden entry %s", name)
	}
	require.Equal(t, []string{"src", "visible.txt"}, hiddenTree.names())

	options := unbounded()
	options.ShowHidden = true
	shownTree := walkTree(t, root, options)
	require.Equal(t, []string{".config", "settings.json", "src", ".env", ".hidden.txt", "visible.txt"}, shownTree.names())
}

func TestWalkOrdersDirectoriesFirstThenCaseInsensitiveNames(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.txt", "A.txt", "c.txt"} {
		writeFile(t, filepath.Join(root, name), name)
	}
	for _, name := range []string{"Zed", "alpha", "beta"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}

	tree := walkTree(t, root, unbounded())

	require.Equal(t, []string{"alpha", "beta", "Zed", "A.txt", "b.txt", "c.txt"}, tree.childNames())
}

// buildNestedTree creates level1/level2/level3 with one file per level and a root file.
func buildNestedTree(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "root_file.txt"), "root level")
	writeFile(t, filepath.Join(root, "level1", "file1.txt"), "level 1")
	writeFile(t, filepath.Join(root, "level1", "level2", "file2.txt"), "level 2")
	writeFile(t, filepath.Join(root, "level1", "level2", "level3", "file3.txt"), "level 3")
	return root
}

func TestWalkDepthLimitTwo(t *testing.T) {
	root := buildNestedTree(t)

	options := unbounded()
	options.MaxDepth = 2
	tree := walkTree(t, root, options)

	names := tree.names()
	require.Contains(t, names, "root_file.txt")
	require.Contains(t, names, "level1")
	require.Contains(t, names, "file1.txt")
	require.Contains(t, names, "level2")
	require.NotContains(t, names, "file2.txt")
	require.NotContains(t, names, "level3")
	require.NotContains(t, names, "file3.txt")
	require.Empty(t, tree.find("level2").children)
}

func TestWalkDepthLimitOneShowsDirectChildrenOnly(t *testing.T) {
	root := buildNestedTree(t)

	options := unbounded()
	options.MaxDepth = 1
	tree := walkTree(t, root, options)

	require.Equal(t, []string{"level1", "root_file.txt"}, tree.names())
	require.Empty(t, tree.find("level1").children)
}

func TestWalkDepthLimitBoundsEveryLevel(t *testing.T) {
	root := buildNestedTree(t)
	full := walkTree(t, root, unbounded())

	for limit := 0; limit <= 4; limit++ {
		options := unbounded()
		options.MaxDepth = limit
		limited := walkTree(t, root, options)

		expectedCount := 0
		for _, node := range full.flatten() {
			if node.depth <= limit {
				expectedCount++
			}
		}
		require.Len(t, limited.flatten(), expectedCount, "limit %d", limit)
		for _, node := range limited.flatten() {
			require.LessOrEqual(t, node.depth, limit)
			if node.depth == limit {
				require.Empty(t, node.children, "limit %d node %s", limit, node.node.Name)
			}
		}
	}
}

func TestWalkAppliesIgnoreRules(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, utils.GitDirectoryName), 0o755))
	writeFile(t, filepath.Join(root, utils.GitIgnoreFileName), "*.log\nbuild/\n!keep.log\n")
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "app.log"), "log")
	writeFile(t, filepath.Join(root, "keep.log"), "kept")
	writeFile(t, filepath.Join(root, "build", "out.o"), "binary")
	writeFile(t, filepath.Join(root, "src", "debug.log"), "log")
	writeFile(t, filepath.Join(root, "src", "lib.go"), "package src")

	rules, resolveError := config.ResolveIgnoreRules(filepath.Join(root, "src"), nil)
	require.NoError(t, resolveError)
	require.NotNil(t, rules)

	options := unbounded()
	options.IgnoreRules = rules
	tree := walkTree(t, root, options)

	require.Equal(t, []string{"src", "lib.go", "keep.log", "main.go"}, tree.names())
}

func TestWalkWithoutIgnoreFilesMatchesPlainWalk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, utils.GitDirectoryName), 0o755))
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "pkg", "lib.go"), "package pkg")

	rules, resolveError := config.ResolveIgnoreRules(root, nil)
	require.NoError(t, resolveError)

	plain := walkTree(t, root, unbounded())
	options := unbounded()
	options.IgnoreRules = rules
	withIgnore := walkTree(t, root, options)

	require.Equal(t, plain.names(), withIgnore.names())
}

func TestWalkSkipsIgnoreCheckOutsideIgnoreRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")

	options := unbounded()
	options.IgnoreRules = config.NewIgnoreRules(t.TempDir(), []string{"*"})
	tree := walkTree(t, root, options)

	require.Equal(t, []string{"main.go"}, tree.names())
}

func TestWalkDecoratesDirectoriesAndLinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "__pycache__"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "pkg"), 0o755))
	writeFile(t, filepath.Join(root, "setup.py"), "")

	options := unbounded()
	options.ShowLinks = true
	tree := walkTree(t, root, options)

	cacheNode := tree.find("__pycache__").node
	require.Equal(t, types.NodeKindDirectory, cacheNode.Kind)
	require.Equal(t, types.StyleDim, cacheNode.Style)
	require.Equal(t, types.IconFolder, cacheNode.Icon)
	require.Equal(t, types.StyleDefault, tree.find("pkg").node.Style)

	scriptNode := tree.find("setup.py").node
	require.Equal(t, "file://"+filepath.ToSlash(filepath.Join(root, "setup.py")), scriptNode.Link)
	require.Equal(t, "0 bytes", scriptNode.Size)

	withoutLinks := walkTree(t, root, unbounded())
	require.Empty(t, withoutLinks.find("setup.py").node.Link)
}

func TestWalkReportsBrokenSymlinkAsErrorNode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))
	writeFile(t, filepath.Join(root, "ok.txt"), "ok")

	tree := walkTree(t, root, unbounded())

	require.Equal(t, []string{"dangling", "ok.txt"}, tree.names())
	danglingNode := tree.find("dangling").node
	require.Equal(t, types.NodeKindError, danglingNode.Kind)
	require.NotEmpty(t, danglingNode.Error)
}

func TestWalkFollowsSymlinkedDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	root := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "inside.txt"), "inside")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "linked")))

	tree := walkTree(t, root, unbounded())

	linkedNode := tree.find("linked")
	require.Equal(t, types.NodeKindDirectory, linkedNode.node.Kind)
	require.Equal(t, []string{"inside.txt"}, linkedNode.childNames())
}

func TestWalkIsolatesUnreadableSubdirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	lockedDirectory := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(lockedDirectory, "secret.txt"), "secret")
	writeFile(t, filepath.Join(root, "zz.txt"), "sibling")
	require.NoError(t, os.Chmod(lockedDirectory, 0o000))
	t.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	tree := walkTree(t, root, unbounded())

	lockedNode := tree.find("locked")
	require.Len(t, lockedNode.children, 1)
	require.Equal(t, types.NodeKindError, lockedNode.children[0].node.Kind)
	require.NotNil(t, tree.find("zz.txt"))
}

func TestWalkReturnsErrorForUnreadableRoot(t *testing.T) {
	walker, walkerError := commands.NewWalker(unbounded(), nil)
	require.NoError(t, walkerError)

	walkError := walker.Walk(filepath.Join(t.TempDir(), "missing"), 0, &recordingSink{parent: &recordedNode{}})
	require.Error(t, walkError)
}

func TestWalkMatchesMalformedPatternsLiterally(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"[", "a[b.txt", "{draft", "keep.txt", "b.txt"} {
		writeFile(t, filepath.Join(root, name), name)
	}

	testCases := []struct {
		name     string
		pattern  string
		expected []string
	}{
		{name: "lone bracket", pattern: "[", expected: []string{"{draft", "a[b.txt", "b.txt", "keep.txt"}},
		{name: "unclosed bracket keeps wildcard", pattern: "a[b*", expected: []string{"[", "{draft", "b.txt", "keep.txt"}},
		{name: "unclosed brace", pattern: "{draft", expected: []string{"[", "a[b.txt", "b.txt", "keep.txt"}},
		{name: "valid class still a class", pattern: "[ab].txt", expected: []string{"[", "{draft", "a[b.txt", "keep.txt"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			options := unbounded()
			options.ExcludePatterns = []string{testCase.pattern}
			walker, walkerError := commands.NewWalker(options, nil)
			require.NoError(t, walkerError)

			rootNode := &recordedNode{}
			require.NoError(t, walker.Walk(root, 0, &recordingSink{parent: rootNode}))
			require.ElementsMatch(t, testCase.expected, rootNode.names())
		})
	}
}
