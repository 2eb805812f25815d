package tools

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestUnknownToolResultWireShape(t *testing.T) {
	data, err := json.Marshal(UnknownToolResult("not_a_tool"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	content, ok := got["content"].([]any)
	if !ok || len(content) != 1 {
		t.Fatalf("Expected one content item, got %v", got["content"])
	}
	item := content[0].(map[string]any)
	if item["type"] != "text" {
		t.Errorf("Expected type text, got %v", item["type"])
	}
	if item["text"] != "Unknown tool: not_a_tool" {
		t.Errorf("Expected 'Unknown tool: not_a_tool', got %v", item["text"])
	}
	if _, has := got["isError"]; has {
		t.Errorf("Expected no isError flag, got %v", got["isError"])
	}
}

func TestErrorResult(t *testing.T) {
	result := ErrorResult(errors.New("disk on fire"))
	if text := ResultText(result); text != "Error: disk on fire" {
		t.Errorf("Expected 'Error: disk on fire', got %q", text)
	}
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult("Cost Anomaly Detection", map[string]any{
		"anomalies": []string{"a"},
	})
	if err != nil {
		t.Fatalf("JSONResult failed: %v", err)
	}

	want := "Cost Anomaly Detection:\n{\n  \"anomalies\": [\n    \"a\"\n  ]\n}"
	if text := ResultText(result); text != want {
		t.Errorf("Expected %q, got %q", want, text)
	}
}

func TestJSONResultEncodeError(t *testing.T) {
	if _, err := JSONResult("Broken", map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("Expected encode error for a channel value")
	}
}

func TestResultText(t *testing.T) {
	if ResultText(nil) != "" {
		t.Error("Expected empty text for nil result")
	}

	result := &mcp.CallToolResult{Content: []mcp.Content{
		&mcp.TextContent{Text: "a"},
		&mcp.ImageContent{MIMEType: "image/png"},
		&mcp.TextContent{Text: "b"},
	}}
	if text := ResultText(result); text != "ab" {
		t.Errorf("Expected 'ab', got %q", text)
	}
}
