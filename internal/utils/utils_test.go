package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/dirtree/internal/utils"
)

// TestDeduplicatePatterns verifies that DeduplicatePatterns removes duplicate and blank patterns.
func TestDeduplicatePatterns(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "removes duplicates",
			patterns: []string{"a", "b", "a"},
			expected: []string{"a", "b"},
		},
		{
			testName: "drops blanks",
			patterns: []string{"", "a", "  "},
			expected: []string{"a"},
		},
	}
	for index, testCase := range testCases {
		actual := utils.DeduplicatePatterns(testCase.patterns)
		if len(actual) != len(testCase.expected) {
			testingInstance.Errorf("case %d (%s): expected length %d, got %d", index, testCase.testName, len(testCase.expected), len(actual))
			continue
		}
		for position, value := range actual {
			if value != testCase.expected[position] {
				testingInstance.Errorf("case %d (%s): expected %s at position %d, got %s", index, testCase.testName, testCase.expected[position], position, value)
			}
		}
	}
}

// TestRelativePathWithin verifies relative path calculations and the outside-root signal.
func TestRelativePathWithin(testingInstance *testing.T) {
	temporaryRoot := testingInstance.TempDir()
	testCases := []struct {
		testName       string
		fullPath       string
		root           string
		expectedPath   string
		expectedWithin bool
	}{
		{
			testName:       "root path returns dot",
			fullPath:       temporaryRoot,
			root:           temporaryRoot,
			expectedPath:   ".",
			expectedWithin: true,
		},
		{
			testName:       "nested path uses forward slashes",
			fullPath:       filepath.Join(temporaryRoot, "a", "b.txt"),
			root:           temporaryRoot,
			expectedPath:   "a/b.txt",
			expectedWithin: true,
		},
		{
			testName:       "sibling is outside",
			fullPath:       filepath.Join(filepath.Dir(temporaryRoot), "elsewhere"),
			root:           temporaryRoot,
			expectedPath:   "",
			expectedWithin: false,
		},
	}
	for index, testCase := range testCases {
		actualPath, actualWithin := utils.RelativePathWithin(testCase.fullPath, testCase.root)
		if actualPath != testCase.expectedPath || actualWithin != testCase.expectedWithin {
			testingInstance.Errorf("case %d (%s): expected (%s, %t), got (%s, %t)", index, testCase.testName, testCase.expectedPath, testCase.expectedWithin, actualPath, actualWithin)
		}
	}
}

// TestFindRepositoryRoot verifies the upward search for the repository marker.
func TestFindRepositoryRoot(testingInstance *testing.T) {
	repositoryRoot := testingInstance.TempDir()
	if makeDirError := os.Mkdir(filepath.Join(repositoryRoot, utils.GitDirectoryName), 0o755); makeDirError != nil {
		testingInstance.Fatalf("mkdir .git: %v", makeDirError)
	}
	nestedDirectory := filepath.Join(repositoryRoot, "a", "b")
	if makeDirError := os.MkdirAll(nestedDirectory, 0o755); makeDirError != nil {
		testingInstance.Fatalf("mkdir nested: %v", makeDirError)
	}

	foundRoot, found := utils.FindRepositoryRoot(nestedDirectory)
	if !found {
		testingInstance.Fatalf("expected repository root to be found")
	}
	if foundRoot != repositoryRoot {
		testingInstance.Fatalf("expected %s, got %s", repositoryRoot, foundRoot)
	}
}
