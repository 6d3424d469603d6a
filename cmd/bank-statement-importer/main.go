package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/lox/bank-statement-importer/internal/commands"
	"github.com/lox/bank-statement-importer/internal/db"
	"github.com/lox/bank-statement-importer/internal/extractor"
	"github.com/lox/bank-statement-importer/internal/output"
)

type CLI struct {
	commands.CommonConfig

	Identify IdentifyCmd `cmd:"" help:"Show which importer handles each statement file."`
	Extract  ExtractCmd  `cmd:"" help:"Extract transactions from statement files."`
	Archive  ArchiveCmd  `cmd:"" help:"Move statement files into the archive, one directory per account."`
	History  HistoryCmd  `cmd:"" help:"List previously imported statement files."`
}

type IdentifyCmd struct {
	Paths []string `arg:"" help:"Statement files" type:"existingfile"`
}

type ExtractCmd struct {
	Paths        []string `arg:"" help:"Statement files" type:"existingfile"`
	Format       string   `help:"Output format" default:"beancount" enum:"beancount,json"`
	Output       string   `help:"Write output to this file instead of stdout" short:"o" type:"path"`
	Concurrency  int      `help:"Number of files to process concurrently" default:"4"`
	NoProgress   bool     `help:"Disable progress bar" default:"false"`
	DryRun       bool     `help:"Do not record the import in the history" default:"false"`
	SkipExisting bool     `help:"Leave out transactions that were imported before" default:"false"`
}

type ArchiveCmd struct {
	Paths       []string `arg:"" help:"Statement files" type:"existingfile"`
	Destination string   `help:"Archive root directory" required:"" short:"d" type:"path"`
	DryRun      bool     `help:"Print where files would go without moving them" default:"false"`
}

type HistoryCmd struct {
	Limit int `help:"Maximum number of imports to show (0 = all)" default:"20"`
}

func (c *IdentifyCmd) Run(cli *CLI) error {
	logger, err := cli.SetupLogger()
	if err != nil {
		return err
	}

	registry, err := cli.LoadRegistry()
	if err != nil {
		return err
	}

	for _, path := range c.Paths {
		b, err := registry.Identify(path)
		if err != nil {
			return err
		}
		if b == nil {
			logger.Warn("No importer identified file", "path", path)
			fmt.Printf("%s\t-\n", path)
			continue
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", path, b.Name(), b.Account(), b.Filename(path))
	}
	return nil
}

func (c *ExtractCmd) Run(cli *CLI) error {
	logger, err := cli.SetupLogger()
	if err != nil {
		return err
	}

	registry, autoPoster, err := cli.LoadImporters()
	if err != nil {
		return err
	}

	database, err := commands.SetupDatabase(cli.DataDir, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	results, err := extractor.New(registry, database, logger).WithAutoPoster(autoPoster).Extract(ctx, c.Paths, extractor.Config{
		Concurrency:  c.Concurrency,
		Progress:     !c.NoProgress,
		DryRun:       c.DryRun,
		SkipExisting: c.SkipExisting,
	})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch c.Format {
	case "json":
		err = output.WriteJSON(w, results)
	default:
		err = output.WriteBeancount(w, results)
	}
	if err != nil {
		return err
	}

	var total int
	for _, r := range results {
		total += len(r.Transactions)
	}
	logger.Info("Extracted transactions", "files", len(results), "transactions", total)
	return nil
}

func (c *ArchiveCmd) Run(cli *CLI) error {
	logger, err := cli.SetupLogger()
	if err != nil {
		return err
	}

	registry, err := cli.LoadRegistry()
	if err != nil {
		return err
	}

	// archiving never touches the import history
	results, err := extractor.New(registry, nil, logger).Extract(context.Background(), c.Paths, extractor.Config{
		Concurrency: 1,
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		if c.DryRun {
			target, err := extractor.ArchivePath(r, c.Destination)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", r.Path, target)
			continue
		}
		target, err := extractor.Archive(r, c.Destination)
		if err != nil {
			return err
		}
		logger.Info("Archived statement", "from", r.Path, "to", target)
	}
	return nil
}

func (c *HistoryCmd) Run(cli *CLI) error {
	logger, err := cli.SetupLogger()
	if err != nil {
		return err
	}

	database, err := commands.SetupDatabase(cli.DataDir, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	imports, err := database.ListImports(ctx, c.Limit)
	if err != nil {
		return err
	}
	printImports(os.Stdout, imports)

	count, err := database.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal recorded transactions: %d\n", count)
	return nil
}

func printImports(w io.Writer, imports []db.Import) {
	for _, imp := range imports {
		fmt.Fprintf(w, "%s  %-20s %-28s %4d  %s\n",
			imp.ImportedAt.Local().Format("2006-01-02 15:04"),
			imp.Bank, imp.Account, imp.Transactions, imp.Filename)
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bank-statement-importer"),
		kong.Description("Import bank statement exports into a plain-text ledger"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(&cli); err != nil {
		log.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
