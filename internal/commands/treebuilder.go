package commands

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/config"
	"github.com/temirov/dirtree/internal/utils"
)

// UnlimitedDepth disables the depth limit.
const UnlimitedDepth = -1

const (
	// errorInvalidExcludeFormat reports a pattern that stays malformed after escaping.
	errorInvalidExcludeFormat = "invalid exclude pattern %q: %w"
	// debugLiteralPatternMessage is logged when part of a pattern is matched literally.
	debugLiteralPatternMessage = "exclude pattern is not a valid glob, matching it literally"

	globEscape         = `\`
	globMetaCharacters = `\*?[]{}`
)

// FilterOptions configures a single traversal. It is built once per invocation
// and never mutated afterwards.
type FilterOptions struct {
	ExcludePatterns []string
	IgnoreRules     *config.IgnoreRules
	ShowHidden      bool
	ShowLinks       bool
	MaxDepth        int
}

// HasDepthLimit reports whether MaxDepth bounds the traversal.
func (options FilterOptions) HasDepthLimit() bool {
	return options.MaxDepth >= 0
}

// Walker builds decorated tree nodes using configured options.
type Walker struct {
	options FilterOptions
	logger  *zap.Logger
}

// NewWalker returns a walker for options. Malformed exclusion globs, such as an
// unclosed "[", are not errors: the offending characters match themselves.
func NewWalker(options FilterOptions, logger *zap.Logger) (*Walker, error) {
	logger = utils.LoggerOrNop(logger)
	patterns := make([]string, 0, len(options.ExcludePatterns))
	for _, pattern := range options.ExcludePatterns {
		usable, err := usableExcludePattern(pattern)
		if err != nil {
			return nil, err
		}
		if usable != pattern {
			logger.Debug(debugLiteralPatternMessage, zap.String("pattern", pattern), zap.String("glob", usable))
		}
		patterns = append(patterns, usable)
	}
	options.ExcludePatterns = patterns
	return &Walker{options: options, logger: logger}, nil
}

// Options returns the walker's filter options.
func (walker *Walker) Options() FilterOptions {
	return walker.options
}

// usableExcludePattern returns pattern when it is a valid glob. Otherwise unclosed
// brackets are escaped, then braces, and as a last resort every glob character.
func usableExcludePattern(pattern string) (string, error) {
	if doublestar.ValidatePattern(pattern) {
		return pattern, nil
	}
	candidate := escapeUnclosedBrackets(pattern)
	if doublestar.ValidatePattern(candidate) {
		return candidate, nil
	}
	candidate = escapeCharacters(candidate, "{}")
	if doublestar.ValidatePattern(candidate) {
		return candidate, nil
	}
	candidate = escapeCharacters(pattern, globMetaCharacters)
	if !doublestar.ValidatePattern(candidate) {
		return "", fmt.Errorf(errorInvalidExcludeFormat, pattern, doublestar.ErrBadPattern)
	}
	return candidate, nil
}

// escapeUnclosedBrackets escapes every "[" that has no closing "]" after it.
func escapeUnclosedBrackets(pattern string) string {
	var builder strings.Builder
	for index := 0; index < len(pattern); index++ {
		character := pattern[index]
		if character == '\\' && index+1 < len(pattern) {
			builder.WriteByte(character)
			builder.WriteByte(pattern[index+1])
			index++
			continue
		}
		if character == '[' && !hasClosingBracket(pattern[index+1:]) {
			builder.WriteString(globEscape)
		}
		builder.WriteByte(character)
	}
	return builder.String()
}

// hasClosingBracket reports whether a bracket expression starting right before
// rest is closed. A leading negation and a leading "]" belong to the class.
func hasClosingBracket(rest string) bool {
	start := 0
	if start < len(rest) && (rest[start] == '!' || rest[start] == '^') {
		start++
	}
	if start < len(rest) && rest[start] == ']' {
		start++
	}
	return strings.Contains(rest[start:], "]")
}

// escapeCharacters prefixes every character of pattern found in characters with
// a backslash. Existing escapes are kept as they are.
func escapeCharacters(pattern string, characters string) string {
	var builder strings.Builder
	for index := 0; index < len(pattern); index++ {
		character := pattern[index]
		if character == '\\' && index+1 < len(pattern) && !strings.ContainsRune(characters, '\\') {
			builder.WriteByte(character)
			builder.WriteByte(pattern[index+1])
			index++
			continue
		}
		if strings.IndexByte(characters, character) >= 0 {
			builder.WriteString(globEscape)
		}
		builder.WriteByte(character)
	}
	return builder.String()
}

// isExcluded reports whether the bare entry name matches any exclusion pattern.
func (walker *Walker) isExcluded(name string) bool {
	for _, pattern := range walker.options.ExcludePatterns {
		if matched, matchErr := doublestar.Match(pattern, name); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// isIgnored reports whether the entry at path is suppressed by the ignore rules.
// Entries outside the ignore root skip the check.
func (walker *Walker) isIgnored(path string, isDirectory bool) bool {
	rules := walker.options.IgnoreRules
	if rules == nil {
		return false
	}
	relativePath, within := utils.RelativePathWithin(path, rules.Root)
	if !within {
		walker.logger.Debug(debugOutsideIgnoreRootMessage, zap.String("path", path), zap.String("root", rules.Root))
		return false
	}
	return rules.Matches(relativePath, isDirectory)
}
