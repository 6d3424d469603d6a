package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/bank-statement-importer/internal/commands"
	"github.com/lox/bank-statement-importer/internal/extractor"
	"github.com/lox/bank-statement-importer/internal/mcp"
)

type CLI struct {
	commands.CommonConfig
}

func (c *CLI) Run() error {
	logger, err := c.SetupLogger()
	if err != nil {
		return err
	}

	registry, autoPoster, err := c.LoadImporters()
	if err != nil {
		return err
	}

	database, err := commands.SetupDatabase(c.DataDir, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	s := mcp.New(database, extractor.New(registry, database, logger).WithAutoPoster(autoPoster), logger)
	return s.Run()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bank-mcp-server"),
		kong.Description("MCP server exposing the bank statement importers"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
