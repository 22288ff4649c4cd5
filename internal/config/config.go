// Package config loads .gitignore rules and application configuration.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/temirov/dirtree/internal/utils"
)

const (
	directoryPatternSuffix = "/"
	// singleCharacterClass stands in for an unescaped "?"; the slash is written as an
	// escape because the compiler treats a literal "/" as a path separator.
	singleCharacterClass = `[^\x2f]`

	// errorAbsoluteStartFormat is used when the start directory cannot be made absolute.
	errorAbsoluteStartFormat = "resolving ignore rules for %s: %w"
	// warningSkipIgnoreFileMessage is logged when a .gitignore file cannot be read.
	warningSkipIgnoreFileMessage = "Warning: skipping unreadable ignore file"
	// debugIgnoreFileMessage is logged for every .gitignore file merged into the rules.
	debugIgnoreFileMessage = "loaded ignore file"
	// debugIgnoreRootMessage is logged once the ignore root is known.
	debugIgnoreRootMessage = "resolved ignore root"
)

// IgnoreRules is the compiled form of the merged .gitignore lines discovered
// between a start directory and its repository root. A nil *IgnoreRules matches nothing.
type IgnoreRules struct {
	// Root is the directory all matched paths are expressed relative to.
	Root string
	// Patterns holds every line in discovery order, nearest directory first.
	Patterns []string
	// Sources lists the .gitignore files that contributed patterns.
	Sources []string

	matcher *ignore.GitIgnore
}

// NewIgnoreRules compiles lines into rules rooted at root.
func NewIgnoreRules(root string, lines []string) *IgnoreRules {
	return &IgnoreRules{
		Root:     filepath.Clean(root),
		Patterns: append([]string(nil), lines...),
		matcher:  ignore.CompileIgnoreLines(translateWildcards(lines)...),
	}
}

// translateWildcards rewrites every unescaped "?" outside a bracket expression into
// a class matching one character other than "/". An escaped "\?" becomes a bare "?",
// which the compiler matches literally.
func translateWildcards(lines []string) []string {
	translated := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.Contains(line, "?") {
			translated = append(translated, line)
			continue
		}
		var builder strings.Builder
		insideBracket := false
		for index := 0; index < len(line); index++ {
			character := line[index]
			switch {
			case character == '\\' && index+1 < len(line) && line[index+1] == '?':
				builder.WriteByte('?')
				index++
			case character == '\\' && index+1 < len(line):
				builder.WriteByte(character)
				builder.WriteByte(line[index+1])
				index++
			case character == '[':
				insideBracket = true
				builder.WriteByte(character)
			case character == ']':
				insideBracket = false
				builder.WriteByte(character)
			case character == '?' && !insideBracket:
				builder.WriteString(singleCharacterClass)
			default:
				builder.WriteByte(character)
			}
		}
		translated = append(translated, builder.String())
	}
	return translated
}

// Matches reports whether relativePath, expressed relative to Root, is ignored.
// Directories are also tested with a trailing slash so directory-only patterns
// hide the directory itself.
func (rules *IgnoreRules) Matches(relativePath string, isDirectory bool) bool {
	if rules == nil || rules.matcher == nil {
		return false
	}
	normalizedPath := filepath.ToSlash(relativePath)
	if rules.matcher.MatchesPath(normalizedPath) {
		return true
	}
	if isDirectory && !strings.HasSuffix(normalizedPath, directoryPatternSuffix) {
		return rules.matcher.MatchesPath(normalizedPath + directoryPatternSuffix)
	}
	return false
}

// ResolveIgnoreRules walks upward from startDirectory collecting .gitignore lines.
// The walk stops at the first directory holding a repository marker, which becomes
// the ignore root, or at the filesystem root, in which case startDirectory is the
// ignore root. Lines are appended leaf to root. When no patterns are found the
// result is nil. Unreadable .gitignore files are logged and skipped.
func ResolveIgnoreRules(startDirectory string, logger *zap.Logger) (*IgnoreRules, error) {
	logger = utils.LoggerOrNop(logger)
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorAbsoluteStartFormat, startDirectory, absoluteError)
	}

	var collectedPatterns []string
	var sources []string
	ignoreRoot := ""
	currentDirectory := absoluteStartDirectory
	for {
		ignoreFilePath := filepath.Join(currentDirectory, utils.GitIgnoreFileName)
		filePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
		if loadError != nil {
			logger.Warn(warningSkipIgnoreFileMessage, zap.String("path", ignoreFilePath), zap.Error(loadError))
		} else if filePatterns != nil {
			logger.Debug(debugIgnoreFileMessage, zap.String("path", ignoreFilePath), zap.Int("lines", len(filePatterns)))
			collectedPatterns = append(collectedPatterns, filePatterns...)
			sources = append(sources, ignoreFilePath)
		}

		if utils.HasRepositoryMarker(currentDirectory) {
			ignoreRoot = currentDirectory
			break
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			if len(collectedPatterns) > 0 {
				ignoreRoot = absoluteStartDirectory
			}
			break
		}
		currentDirectory = parentDirectory
	}

	if len(collectedPatterns) == 0 {
		return nil, nil
	}
	logger.Debug(debugIgnoreRootMessage, zap.String("root", ignoreRoot), zap.Strings("sources", sources))
	rules := NewIgnoreRules(ignoreRoot, collectedPatterns)
	rules.Sources = sources
	return rules, nil
}

// LoadIgnoreFilePatterns reads every line of an ignore file, comments and blanks
// included, decoding UTF-8 or BOM-marked UTF-16 content. A missing file yields
// nil patterns and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer fileHandle.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(fileHandle, decoder))
	patterns := []string{}
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patterns, nil
}
