package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

// ErrorLogFormat defines the formatting string for error log messages.
const ErrorLogFormat = "Error: %v"

// Names shared by the ignore resolver, the configuration loader and version lookup.
const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the repository marker.
	GitDirectoryName = ".git"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".dirtree"
	// GlobalConfigFileName is the configuration file name inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// LocalConfigFileName is the configuration file name looked up in the working directory.
	LocalConfigFileName = ".dirtree.yaml"
	// HiddenNamePrefix marks dotfiles and dotdirs.
	HiddenNamePrefix = "."
	// DimNamePrefix marks directories rendered with the dim style.
	DimNamePrefix = "__"
	// ScriptExtension selects the script icon.
	ScriptExtension = ".py"
	// FileURIScheme prefixes hyperlink targets.
	FileURIScheme = "file://"
)
