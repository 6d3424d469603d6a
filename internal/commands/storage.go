package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/bank-statement-importer/internal/db"
)

// SetupDatabase opens the import history in the data directory
func SetupDatabase(dataDir string, logger *log.Logger) (*db.DB, error) {
	database, err := db.New(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open import history: %w", err)
	}
	logger.Debug("Opened import history", "data_dir", dataDir)
	return database, nil
}
