package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory holding the import history
	DataDir string `help:"Path to data directory" default:"./data" env:"BANK_IMPORTER_DATA_DIR"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error" env:"BANK_IMPORTER_LOG_LEVEL"`
	// Config is the optional accounts file
	Config string `help:"Path to accounts file (YAML)" type:"path" env:"BANK_IMPORTER_CONFIG"`
}

// SetupLogger returns a stderr logger at the configured level
func (c CommonConfig) SetupLogger() (*log.Logger, error) {
	logger := log.New(os.Stderr)
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	logger.SetLevel(level)
	return logger, nil
}
