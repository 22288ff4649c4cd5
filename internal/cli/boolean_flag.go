package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName               = "bool"
	booleanFlagTrueLiteral            = "true"
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
	longFlagPrefix                    = "--"
	flagValueSeparator                = "="
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// booleanFlagValue accepts the common spellings of true and false, so that
// "--gitignore no" works the same as "--gitignore=false".
type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", booleanFlagInvalidValueErrorLabel, input)
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, value.flagKey, booleanFlagAcceptedValuesListing)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag defines a boolean flag with an optional one-letter shorthand.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.VarP(&booleanFlagValue{target: target, flagKey: name}, name, shorthand, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeBooleanFlagArguments joins a long boolean flag with a following literal
// ("--links yes" becomes "--links=yes"). Shorthands and any other following
// argument are left alone so they still reach cobra as the positional directory.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]string{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		currentArgument := arguments[index]
		if currentArgument == longFlagPrefix {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if flagName, isBoolean := booleanFlagFor(currentArgument, booleanFlags); isBoolean && index+1 < len(arguments) {
			nextArgument := arguments[index+1]
			literal := strings.ToLower(strings.TrimSpace(nextArgument))
			if _, valid := booleanFlagLiterals[literal]; valid {
				normalized = append(normalized, longFlagPrefix+flagName+flagValueSeparator+nextArgument)
				index += 2
				continue
			}
		}
		normalized = append(normalized, currentArgument)
		index++
	}
	return normalized
}

// booleanFlagFor resolves "--name" to the long name of a boolean flag. Shorthands
// never take a separate value, so "-a on" keeps "on" as the directory argument.
func booleanFlagFor(argument string, booleanFlags map[string]string) (string, bool) {
	if strings.Contains(argument, flagValueSeparator) || !strings.HasPrefix(argument, longFlagPrefix) {
		return "", false
	}
	flagName, exists := booleanFlags[strings.TrimPrefix(argument, longFlagPrefix)]
	return flagName, exists
}

// collectBooleanFlagNames maps every boolean flag name of command and its
// subcommands to itself.
func collectBooleanFlagNames(command *cobra.Command, target map[string]string) {
	if command == nil || target == nil {
		return
	}
	visit := func(flagSet *pflag.FlagSet) {
		if flagSet == nil {
			return
		}
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag == nil || flag.Value == nil || flag.Value.Type() != booleanFlagTypeName {
				return
			}
			target[flag.Name] = flag.Name
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
