// Package utils contains general helper functions used across the dirtree tool.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	pathSegmentSeparator = "/"
	parentDirectoryName  = ".."
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept and blank patterns are dropped.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathWithin returns fullPath relative to root in forward-slash form.
// The boolean is false when fullPath does not lie under root.
func RelativePathWithin(fullPath, root string) (string, bool) {
	relativePath, relErr := filepath.Rel(filepath.Clean(root), filepath.Clean(fullPath))
	if relErr != nil {
		return "", false
	}
	slashed := filepath.ToSlash(relativePath)
	if slashed == parentDirectoryName || strings.HasPrefix(slashed, parentDirectoryName+pathSegmentSeparator) {
		return "", false
	}
	return slashed, true
}

// HasRepositoryMarker reports whether directory contains a .git entry.
// Both directories and worktree files count.
func HasRepositoryMarker(directory string) bool {
	_, statError := os.Stat(filepath.Join(directory, GitDirectoryName))
	return statError == nil
}

// FindRepositoryRoot searches upward from startDirectory for the closest
// directory holding a repository marker.
func FindRepositoryRoot(startDirectory string) (string, bool) {
	absoluteStartDirectory, errorAbsolute := filepath.Abs(startDirectory)
	if errorAbsolute != nil {
		return "", false
	}
	currentDirectory := absoluteStartDirectory
	for {
		if HasRepositoryMarker(currentDirectory) {
			return currentDirectory, true
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", false
		}
		currentDirectory = parentDirectory
	}
}
