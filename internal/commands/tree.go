// Package commands contains the traversal engine behind the tree command.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	// errorReadDirectoryFormat is used when a directory cannot be read.
	errorReadDirectoryFormat = "reading directory %s: %w"
	// errorNilSinkMessage is returned when Walk is called without a sink.
	errorNilSinkMessage = "tree sink is nil"

	// warningSkipSubdirMessage is logged when a subdirectory cannot be enumerated.
	warningSkipSubdirMessage = "Warning: skipping unreadable directory"
	// warningStatPathMessage is logged when entry information cannot be retrieved.
	warningStatPathMessage = "Warning: unable to stat entry"
	// debugOutsideIgnoreRootMessage is logged when an entry is not under the ignore root.
	debugOutsideIgnoreRootMessage = "entry outside ignore root, skipping ignore check"
)

// directoryEntry is a filesystem entry observed during a single traversal step.
type directoryEntry struct {
	name        string
	displayName string
	sortKey     string
	path        string
	isDirectory bool
	info        fs.FileInfo
	statError   error
}

// Walk emits a decorated node into sink for every visible child of directory and
// recurses depth-first into subdirectories. currentDepth is 0 for the children of
// the traversal root. Once a bounded walk reaches MaxDepth it returns without
// enumerating, so directories at the limit are shown but stay childless.
//
// A directory that cannot be enumerated below the traversal root is reported as
// an error node and its siblings continue; at the root the error is returned.
func (walker *Walker) Walk(directory string, currentDepth int, sink types.TreeSink) error {
	if sink == nil {
		return errors.New(errorNilSinkMessage)
	}
	if walker.options.HasDepthLimit() && currentDepth >= walker.options.MaxDepth {
		return nil
	}

	entries, readError := walker.readEntries(directory)
	if readError != nil {
		if currentDepth == 0 {
			return fmt.Errorf(errorReadDirectoryFormat, directory, readError)
		}
		walker.logger.Warn(warningSkipSubdirMessage, zap.String("path", directory), zap.Error(readError))
		sink.AddNode(errorNode(filepath.Base(directory), directory, readError))
		return nil
	}

	for _, entry := range entries {
		if !walker.options.ShowHidden && strings.HasPrefix(entry.name, utils.HiddenNamePrefix) {
			continue
		}
		if walker.isIgnored(entry.path, entry.isDirectory) {
			continue
		}
		if walker.isExcluded(entry.displayName) {
			continue
		}

		if entry.statError != nil {
			walker.logger.Warn(warningStatPathMessage, zap.String("path", entry.path), zap.Error(entry.statError))
			sink.AddNode(errorNode(entry.displayName, entry.path, entry.statError))
			continue
		}

		if entry.isDirectory {
			childSink := sink.AddNode(walker.directoryNode(entry))
			if childSink == nil {
				continue
			}
			if walkError := walker.Walk(entry.path, currentDepth+1, childSink); walkError != nil {
				return walkError
			}
			continue
		}

		sink.AddNode(walker.fileNode(entry))
	}
	return nil
}

// readEntries lists directory in traversal order: directories first, then by
// case-folded name, ties broken by the raw name.
func (walker *Walker) readEntries(directory string) ([]directoryEntry, error) {
	rawEntries, readError := os.ReadDir(directory)
	if readError != nil {
		return nil, readError
	}

	caser := cases.Fold()
	entries := make([]directoryEntry, 0, len(rawEntries))
	for _, rawEntry := range rawEntries {
		entry := directoryEntry{
			name:        rawEntry.Name(),
			displayName: norm.NFC.String(rawEntry.Name()),
			path:        filepath.Join(directory, rawEntry.Name()),
		}
		entry.sortKey = caser.String(entry.displayName)
		entry.isDirectory, entry.info, entry.statError = resolveEntry(entry.path, rawEntry)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(left, right int) bool {
		if entries[left].isDirectory != entries[right].isDirectory {
			return entries[left].isDirectory
		}
		if entries[left].sortKey != entries[right].sortKey {
			return entries[left].sortKey < entries[right].sortKey
		}
		return entries[left].name < entries[right].name
	})
	return entries, nil
}

// resolveEntry reports whether the entry is a directory, following symbolic links,
// together with the information used for file sizes.
func resolveEntry(path string, rawEntry fs.DirEntry) (bool, fs.FileInfo, error) {
	if rawEntry.Type()&fs.ModeSymlink != 0 {
		targetInfo, statError := os.Stat(path)
		if statError != nil {
			return false, nil, statError
		}
		return targetInfo.IsDir(), targetInfo, nil
	}
	if rawEntry.IsDir() {
		return true, nil, nil
	}
	info, infoError := rawEntry.Info()
	if infoError != nil {
		return false, nil, infoError
	}
	return false, info, nil
}

func (walker *Walker) directoryNode(entry directoryEntry) types.TreeNode {
	style := types.StyleDefault
	if strings.HasPrefix(entry.name, utils.DimNamePrefix) {
		style = types.StyleDim
	}
	return types.TreeNode{
		Name:  entry.displayName,
		Path:  entry.path,
		Kind:  types.NodeKindDirectory,
		Style: style,
		Icon:  types.IconFolder,
		Link:  walker.linkFor(entry.path),
	}
}

func (walker *Walker) fileNode(entry directoryEntry) types.TreeNode {
	icon := types.IconFile
	if filepath.Ext(entry.name) == utils.ScriptExtension {
		icon = types.IconScript
	}
	sizeBytes := entry.info.Size()
	return types.TreeNode{
		Name:      entry.displayName,
		Path:      entry.path,
		Kind:      types.NodeKindFile,
		SizeBytes: sizeBytes,
		Size:      utils.FormatFileSize(sizeBytes),
		Style:     types.StyleDefault,
		Icon:      icon,
		Link:      walker.linkFor(entry.path),
	}
}

func (walker *Walker) linkFor(path string) string {
	if !walker.options.ShowLinks {
		return ""
	}
	return FileURI(path)
}

// FileURI returns the file:// URI for an absolute path.
func FileURI(path string) string {
	return utils.FileURIScheme + filepath.ToSlash(path)
}

func errorNode(name string, path string, cause error) types.TreeNode {
	return types.TreeNode{
		Name:  name,
		Path:  path,
		Kind:  types.NodeKindError,
		Style: types.StyleDefault,
		Icon:  types.IconError,
		Error: cause.Error(),
	}
}
