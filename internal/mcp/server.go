package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/bank-statement-importer/internal/db"
	"github.com/lox/bank-statement-importer/internal/extractor"
	"github.com/lox/bank-statement-importer/internal/output"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	db        *db.DB
	extractor *extractor.Extractor
	logger    *log.Logger
}

func New(db *db.DB, extractor *extractor.Extractor, logger *log.Logger) *Server {
	return &Server{
		db:        db,
		extractor: extractor,
		logger:    logger,
	}
}

// NewMCPServer registers the statement tools on a new MCP server
func (s *Server) NewMCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"Bank Statement Importer",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("identify_file",
		mcp.WithDescription("Identify which importer handles a bank statement file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the statement file"),
		),
	), s.identifyFileHandler)

	mcpServer.AddTool(mcp.NewTool("extract_file",
		mcp.WithDescription("Extract transactions from a bank statement file"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the statement file"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: beancount (default) or json"),
		),
		mcp.WithBoolean("record",
			mcp.Description("Record the import in the history (default: false)"),
		),
	), s.extractFileHandler)

	mcpServer.AddTool(mcp.NewTool("list_imports",
		mcp.WithDescription("List recently imported statement files"),
		mcp.WithString("limit",
			mcp.Description("Maximum number of imports to return (default: 20)"),
		),
	), s.listImportsHandler)

	return mcpServer
}

// Run serves the tools over stdio
func (s *Server) Run() error {
	return server.ServeStdio(s.NewMCPServer())
}

func (s *Server) identifyFileHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := request.Params.Arguments["path"].(string)
	if !ok || path == "" {
		return nil, errors.New("path must be a string")
	}

	b, err := s.extractor.Identify(path)
	if err != nil {
		return nil, fmt.Errorf("failed to identify file: %w", err)
	}
	if b == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No importer recognizes %s\n", path)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Importer: %s\nAccount: %s\nArchive name: %s\n",
		b.Name(), b.Account(), b.Filename(path))), nil
}

func (s *Server) extractFileHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := request.Params.Arguments["path"].(string)
	if !ok || path == "" {
		return nil, errors.New("path must be a string")
	}

	format := "beancount"
	if v, ok := request.Params.Arguments["format"].(string); ok && v != "" {
		format = strings.ToLower(v)
	}
	if format != "beancount" && format != "json" {
		return nil, fmt.Errorf("unknown format %q", format)
	}

	record, _ := request.Params.Arguments["record"].(bool)

	results, err := s.extractor.Extract(ctx, []string{path}, extractor.Config{
		Concurrency: 1,
		DryRun:      !record,
	})
	if err != nil {
		// parse failures are reported to the caller rather than failing the protocol
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No importer recognizes %s\n", path)), nil
	}

	var buf bytes.Buffer
	if format == "json" {
		err = output.WriteJSON(&buf, results)
	} else {
		err = output.WriteBeancount(&buf, results)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render transactions: %w", err)
	}

	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) listImportsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 20 // default limit
	if limitVal, ok := request.Params.Arguments["limit"]; ok {
		switch v := limitVal.(type) {
		case int:
			limit = v
		case float64:
			limit = int(v)
		case string:
			var err error
			limit, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("limit must be a valid integer: %w", err)
			}
		default:
			return nil, errors.New("limit must be a number or string")
		}
	}

	imports, err := s.db.ListImports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}

	var result string
	for _, imp := range imports {
		result += fmt.Sprintf("%s: %s (%s)\n", imp.ImportedAt.Format("2006-01-02 15:04"), imp.Filename, imp.Bank)
		result += fmt.Sprintf("  Account: %s\n", imp.Account)
		result += fmt.Sprintf("  New transactions: %d\n", imp.Transactions)
		result += fmt.Sprintf("  Source: %s\n", imp.Path)
		result += "\n"
	}

	total, err := s.db.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	result += fmt.Sprintf("Total recorded transactions: %d\n", total)

	return mcp.NewToolResultText(result), nil
}
