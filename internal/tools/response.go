package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TextResult creates a single text item result
func TextResult(format string, args ...any) *mcp.CallToolResult {
	message := fmt.Sprintf(format, args...)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}

// JSONResult renders v as two-space indented JSON under a title line.
func JSONResult(title string, v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", title, err)
	}
	return TextResult("%s:\n%s", title, body), nil
}

// UnknownToolResult is returned for a name that is not in the handler table
func UnknownToolResult(name string) *mcp.CallToolResult {
	return TextResult("Unknown tool: %s", name)
}

// ErrorResult wraps a failed call in the standard error envelope
func ErrorResult(err error) *mcp.CallToolResult {
	return TextResult("Error: %s", err.Error())
}

// ResultText joins the text items of a result. Non-text items are skipped.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
