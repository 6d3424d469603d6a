package mcp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/bank-statement-importer/internal/bank"
	"github.com/lox/bank-statement-importer/internal/bank/amex"
	"github.com/lox/bank-statement-importer/internal/db"
	"github.com/lox/bank-statement-importer/internal/extractor"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const amexExport = amex.Header + "\r\n" +
	`01/28/2024,"ALBERT HEIJN","12,50","","","","","","",""` + "\r\n"

func setupServer(t *testing.T) (*Server, string) {
	t.Helper()
	logger := log.New(io.Discard)

	database, err := db.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	registry := bank.NewRegistry()
	registry.Register(amex.New("Liabilities:NL:AMEX", "EUR"))

	path := filepath.Join(t.TempDir(), "activity.csv")
	require.NoError(t, os.WriteFile(path, []byte(amexExport), 0o644))

	return New(database, extractor.New(registry, database, logger), logger), path
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestIdentifyFile(t *testing.T) {
	s, path := setupServer(t)

	res, err := s.identifyFileHandler(context.Background(), callTool(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "Importer: amex")
	assert.Contains(t, text, "Archive name: amex.activity.csv")

	res, err = s.identifyFileHandler(context.Background(), callTool(map[string]interface{}{"path": "/nowhere/notes.txt"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "No importer recognizes")

	_, err = s.identifyFileHandler(context.Background(), callTool(map[string]interface{}{}))
	require.Error(t, err)
}

func TestExtractFile(t *testing.T) {
	s, path := setupServer(t)
	ctx := context.Background()

	res, err := s.extractFileHandler(ctx, callTool(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `2024-01-28 * "ALBERT HEIJN"`)
	assert.Contains(t, resultText(t, res), "Liabilities:NL:AMEX  -12.50 EUR")

	count, err := s.db.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing recorded without record=true")

	res, err = s.extractFileHandler(ctx, callTool(map[string]interface{}{"path": path, "format": "json", "record": true}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"amount": "-12.5"`)

	res, err = s.listImportsHandler(ctx, callTool(map[string]interface{}{"limit": float64(5)}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "amex.activity.csv (amex)")
	assert.Contains(t, text, "Total recorded transactions: 1")

	_, err = s.extractFileHandler(ctx, callTool(map[string]interface{}{"path": path, "format": "csv"}))
	require.Error(t, err)
}

func TestExtractFile_ParseError(t *testing.T) {
	s, _ := setupServer(t)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte(amex.Header+"\r\n"+`2024-01-28,"X","1,00","","","","","","",""`+"\r\n"), 0o644))

	res, err := s.extractFileHandler(context.Background(), callTool(map[string]interface{}{"path": bad}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid date")
}

func TestListImports_InvalidLimit(t *testing.T) {
	s, _ := setupServer(t)
	_, err := s.listImportsHandler(context.Background(), callTool(map[string]interface{}{"limit": "many"}))
	require.Error(t, err)
}
