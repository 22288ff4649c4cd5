package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/dirtree/internal/cli"
	"github.com/temirov/dirtree/internal/utils"
)

// main is the entry point for the dirtree command.
func main() {
	logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(logLevel)
	if loggerInitializationError != nil {
		fmt.Fprintf(os.Stderr, utils.ErrorLogFormat+"\n", loggerInitializationError)
		os.Exit(1)
	}
	defer func() { _ = loggerInstance.Sync() }()
	if applicationExecutionError := cli.Execute(loggerInstance, logLevel); applicationExecutionError != nil {
		loggerInstance.Fatal(fmt.Sprintf(utils.ErrorLogFormat, applicationExecutionError))
	}
}
