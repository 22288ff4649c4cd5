// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/commands"
	"github.com/temirov/dirtree/internal/config"
	"github.com/temirov/dirtree/internal/output"
	"github.com/temirov/dirtree/internal/services/clipboard"
	"github.com/temirov/dirtree/internal/types"
	"github.com/temirov/dirtree/internal/utils"
)

const (
	excludeFlagName    = "exclude"
	excludeShorthand   = "e"
	depthFlagName      = "depth"
	depthShorthand     = "d"
	showHiddenFlagName = "show-hidden"
	showHiddenShort    = "a"
	linksFlagName      = "links"
	linksShorthand     = "l"
	gitignoreFlagName  = "gitignore"
	gitignoreShorthand = "g"
	formatFlagName     = "format"
	copyFlagName       = "copy"
	copyShorthand      = "c"
	configFlagName     = "config"
	verboseFlagName    = "verbose"

	excludeFlagDescription    = "exclude entries whose name matches the glob pattern (repeatable)"
	depthFlagDescription      = "maximum depth to display (unlimited when omitted)"
	showHiddenFlagDescription = "show entries whose name starts with a dot"
	linksFlagDescription      = "render names as file:// hyperlinks"
	gitignoreFlagDescription  = "apply .gitignore rules found in the directory and its ancestors"
	formatFlagDescription     = "output format: tree, plain or json"
	copyFlagDescription       = "copy the rendered output to the clipboard"
	configFlagDescription     = "path to a configuration file"
	verboseFlagDescription    = "enable debug logging"

	defaultPath          = "."
	rootUse              = "dirtree [directory]"
	rootShortDescription = "display a directory tree"
	rootLongDescription  = `dirtree renders the contents of a directory as a tree.
Directories are listed before files and names are ordered case-insensitively.
Files show a human-readable size; hidden entries are skipped unless --show-hidden is set.
Long boolean flags accept a value ("--links no"); shorthands never do, so "-a on" renders ./on.
Defaults can be stored in ~/.dirtree/config.yaml or ./.dirtree.yaml (see "dirtree init").`
	rootUsageExample = `  # Render the current directory
  dirtree

  # Two levels deep, skipping text files and honoring .gitignore
  dirtree ./src -d 2 -e "*.txt" -g

  # Emit JSON and copy it to the clipboard
  dirtree --format json --copy`
	versionTemplate = "dirtree version: {{.Version}}\n"

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a default configuration file into the working directory,
or into ~/.dirtree when --global is set. Existing files are kept unless --force is set.`
	globalFlagName           = "global"
	globalFlagDescription    = "write the global configuration file"
	forceFlagName            = "force"
	forceFlagDescription     = "overwrite an existing configuration file"
	configurationWrittenText = "Configuration written to %s\n"

	// errorDirectoryMissingFormat reports a target that does not exist.
	errorDirectoryMissingFormat = "Directory '%s' does not exist."
	// errorNotDirectoryFormat reports a target that is not a directory.
	errorNotDirectoryFormat = "'%s' is not a directory."
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat   = "abs failed for '%s': %w"
	errorNegativeDepthFormat  = "depth must be zero or greater, got %d"
	invalidFormatMessage      = "invalid format value '%s'"
	clipboardCopyErrorFormat  = "copy output to clipboard: %w"
	clipboardServiceMissing   = "clipboard service is not configured"
	debugTraversalStarting    = "rendering directory tree"
	debugTraversalFinished    = "directory tree collected"
	debugIgnoreRulesResolved  = "ignore rules resolved"
	debugIgnoreRulesNotFound  = "no ignore rules found"
)

// Dependencies carries the collaborators of the command tree. Empty directories
// fall back to the process working directory and the user's home directory.
type Dependencies struct {
	Logger           *zap.Logger
	LogLevel         *zap.AtomicLevel
	Clipboard        clipboard.Copier
	WorkingDirectory string
	HomeDirectory    string
}

// Execute runs the dirtree application with the process arguments.
func Execute(logger *zap.Logger, level zap.AtomicLevel) error {
	rootCommand := NewRootCommand(Dependencies{
		Logger:    logger,
		LogLevel:  &level,
		Clipboard: clipboard.NewService(),
	})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// treeOptions stores the values of the root command's flags.
type treeOptions struct {
	excludePatterns []string
	depth           int
	depthExplicit   bool
	showHidden      bool
	links           bool
	gitignore       bool
	format          string
	copyOutput      bool
	configPath      string
	verbose         bool
}

// NewRootCommand builds the root Cobra command.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	dependencies.Logger = utils.LoggerOrNop(dependencies.Logger)
	options := treeOptions{depth: commands.UnlimitedDepth, format: types.FormatTree}

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Version:       utils.GetApplicationVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if options.verbose && dependencies.LogLevel != nil {
				dependencies.LogLevel.SetLevel(zap.DebugLevel)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			target := defaultPath
			if len(arguments) > 0 {
				target = arguments[0]
			}
			configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
				WorkingDirectory: dependencies.WorkingDirectory,
				ExplicitFilePath: options.configPath,
				HomeDirectory:    dependencies.HomeDirectory,
			})
			if loadError != nil {
				return loadError
			}
			applyConfiguration(command, &options, configuration)
			return runTree(command.OutOrStdout(), dependencies, target, options)
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)

	flagSet := rootCommand.Flags()
	flagSet.StringArrayVarP(&options.excludePatterns, excludeFlagName, excludeShorthand, nil, excludeFlagDescription)
	flagSet.IntVarP(&options.depth, depthFlagName, depthShorthand, commands.UnlimitedDepth, depthFlagDescription)
	registerBooleanFlag(flagSet, &options.showHidden, showHiddenFlagName, showHiddenShort, false, showHiddenFlagDescription)
	registerBooleanFlag(flagSet, &options.links, linksFlagName, linksShorthand, false, linksFlagDescription)
	registerBooleanFlag(flagSet, &options.gitignore, gitignoreFlagName, gitignoreShorthand, false, gitignoreFlagDescription)
	flagSet.StringVar(&options.format, formatFlagName, types.FormatTree, formatFlagDescription)
	registerBooleanFlag(flagSet, &options.copyOutput, copyFlagName, copyShorthand, false, copyFlagDescription)
	rootCommand.PersistentFlags().StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &options.verbose, verboseFlagName, "", false, verboseFlagDescription)

	rootCommand.AddCommand(createInitCommand(dependencies))
	return rootCommand
}

// applyConfiguration fills every option whose flag was not set on the command line
// from the loaded configuration.
func applyConfiguration(command *cobra.Command, options *treeOptions, configuration config.ApplicationConfiguration) {
	flagSet := command.Flags()
	if !flagSet.Changed(excludeFlagName) && len(configuration.Exclude) > 0 {
		options.excludePatterns = append([]string(nil), configuration.Exclude...)
	}
	options.depthExplicit = flagSet.Changed(depthFlagName)
	if !options.depthExplicit && configuration.Depth != nil {
		options.depth = *configuration.Depth
		options.depthExplicit = true
	}
	if !flagSet.Changed(showHiddenFlagName) && configuration.ShowHidden != nil {
		options.showHidden = *configuration.ShowHidden
	}
	if !flagSet.Changed(linksFlagName) && configuration.Links != nil {
		options.links = *configuration.Links
	}
	if !flagSet.Changed(gitignoreFlagName) && configuration.Gitignore != nil {
		options.gitignore = *configuration.Gitignore
	}
	if !flagSet.Changed(formatFlagName) && configuration.Format != "" {
		options.format = configuration.Format
	}
	if !flagSet.Changed(copyFlagName) && configuration.Copy != nil {
		options.copyOutput = *configuration.Copy
	}
}

func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatTree, types.FormatPlain, types.FormatJSON:
		return true
	default:
		return false
	}
}

// runTree validates the target, walks it and writes the rendering to writer.
func runTree(writer io.Writer, dependencies Dependencies, target string, options treeOptions) error {
	logger := dependencies.Logger
	format := strings.ToLower(strings.TrimSpace(options.format))
	if !isSupportedFormat(format) {
		return fmt.Errorf(invalidFormatMessage, options.format)
	}
	if options.depthExplicit && options.depth < 0 {
		return fmt.Errorf(errorNegativeDepthFormat, options.depth)
	}
	if options.copyOutput && dependencies.Clipboard == nil {
		return errors.New(clipboardServiceMissing)
	}

	absolutePath, pathError := resolveTargetDirectory(target, dependencies.WorkingDirectory)
	if pathError != nil {
		return pathError
	}

	filterOptions := commands.FilterOptions{
		ExcludePatterns: utils.DeduplicatePatterns(options.excludePatterns),
		ShowHidden:      options.showHidden,
		ShowLinks:       options.links,
		MaxDepth:        options.depth,
	}
	if options.gitignore {
		rules, resolveError := config.ResolveIgnoreRules(absolutePath, logger)
		if resolveError != nil {
			return resolveError
		}
		if rules != nil {
			logger.Debug(debugIgnoreRulesResolved, zap.String("root", rules.Root), zap.Strings("sources", rules.Sources))
		} else {
			logger.Debug(debugIgnoreRulesNotFound, zap.String("path", absolutePath))
		}
		filterOptions.IgnoreRules = rules
	}

	walker, walkerError := commands.NewWalker(filterOptions, logger)
	if walkerError != nil {
		return walkerError
	}

	logger.Debug(debugTraversalStarting, zap.String("path", absolutePath), zap.Int("depth", options.depth), zap.String("format", format))
	collected := output.NewTree(rootNode(absolutePath, options.links))
	if walkError := walker.Walk(absolutePath, 0, collected); walkError != nil {
		return walkError
	}
	logger.Debug(debugTraversalFinished, zap.Int("nodes", collected.CountNodes()))

	rendered, copyText, renderError := renderCollected(collected, format, writer)
	if renderError != nil {
		return renderError
	}
	if _, writeError := fmt.Fprintln(writer, rendered); writeError != nil {
		return writeError
	}
	if options.copyOutput {
		if copyError := dependencies.Clipboard.Copy(copyText); copyError != nil {
			return fmt.Errorf(clipboardCopyErrorFormat, copyError)
		}
	}
	return nil
}

// renderCollected returns the text for writer together with the clipboard text,
// which never carries terminal escape sequences.
func renderCollected(collected *output.Tree, format string, writer io.Writer) (string, string, error) {
	switch format {
	case types.FormatJSON:
		rendered, renderError := output.RenderJSON(collected)
		return rendered, rendered, renderError
	case types.FormatPlain:
		rendered := output.RenderTree(collected, output.RenderOptions{Plain: true})
		return rendered, rendered, nil
	default:
		rendered := output.RenderTree(collected, output.RenderOptions{Writer: writer})
		return rendered, output.RenderTree(collected, output.RenderOptions{Plain: true}), nil
	}
}

func rootNode(absolutePath string, withLink bool) types.TreeNode {
	node := types.TreeNode{
		Name:  absolutePath,
		Path:  absolutePath,
		Kind:  types.NodeKindDirectory,
		Style: types.StyleDefault,
		Icon:  types.IconFolder,
	}
	if withLink {
		node.Link = commands.FileURI(absolutePath)
	}
	return node
}

// resolveTargetDirectory returns the absolute path of target, which must be an
// existing directory. Relative targets are resolved against workingDirectory when set.
func resolveTargetDirectory(target string, workingDirectory string) (string, error) {
	candidate := target
	if workingDirectory != "" && !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workingDirectory, candidate)
	}
	absolutePath, absError := filepath.Abs(candidate)
	if absError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, target, absError)
	}
	info, statError := os.Stat(absolutePath)
	if statError != nil {
		if os.IsNotExist(statError) {
			return "", fmt.Errorf(errorDirectoryMissingFormat, target)
		}
		return "", fmt.Errorf(errorStatFormat, target, statError)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(errorNotDirectoryFormat, target)
	}
	return absolutePath, nil
}

// createInitCommand returns the init subcommand.
func createInitCommand(dependencies Dependencies) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: dependencies.WorkingDirectory,
				HomeDirectory:    dependencies.HomeDirectory,
			})
			if initError != nil {
				return initError
			}
			_, writeError := fmt.Fprintf(command.OutOrStdout(), configurationWrittenText, writtenPath)
			return writeError
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, "", false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, "", false, forceFlagDescription)
	return initCommand
}
