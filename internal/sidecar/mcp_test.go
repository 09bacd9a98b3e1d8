package sidecar

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	treeship "github.com/treeship/treeship-go"
)

func mcpCall(t *testing.T, url string, req rpcRequest) rpcResponse {
	t.Helper()
	resp, body := postJSON(t, url+"/mcp", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var out rpcResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestMCP_Initialize(t *testing.T) {
	srv := testServer(t, &fakeAttester{res: &treeship.AttestResult{}}, nil)
	out := mcpCall(t, srv.URL, rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage("1"),
		Method:  "initialize",
	})
	if out.Error != nil {
		t.Fatalf("error = %+v", out.Error)
	}
	result := out.Result.(map[string]any)
	if result["protocolVersion"] != mcpProtocolVersion {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
}

func TestMCP_ToolsList(t *testing.T) {
	srv := testServer(t, &fakeAttester{res: &treeship.AttestResult{}}, nil)
	out := mcpCall(t, srv.URL, rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage("2"),
		Method:  "tools/list",
	})
	tools := out.Result.(map[string]any)["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools = %v", tools)
	}
	if name := tools[0].(map[string]any)["name"]; name != "treeship_attest" {
		t.Errorf("tool name = %v", name)
	}
}

func TestMCP_ToolCall(t *testing.T) {
	fake := &fakeAttester{res: &treeship.AttestResult{
		Attested:  true,
		ID:        "ts_mcp1",
		URL:       "https://treeship.dev/verify/ts_mcp1",
		Timestamp: time.Now().UTC(),
	}}
	srv := testServer(t, fake, nil)

	params, _ := json.Marshal(map[string]any{
		"name": "treeship_attest",
		"arguments": map[string]any{
			"action": "Tool decision",
			"inputs": map[string]any{"k": "v"},
		},
	})
	out := mcpCall(t, srv.URL, rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage("3"),
		Method:  "tools/call",
		Params:  params,
	})
	if out.Error != nil {
		t.Fatalf("error = %+v", out.Error)
	}
	content := out.Result.(map[string]any)["content"].([]any)
	text := content[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "https://treeship.dev/verify/ts_mcp1") {
		t.Errorf("text = %q", text)
	}
	if fake.got.Action != "Tool decision" {
		t.Errorf("forwarded action = %q", fake.got.Action)
	}
}

func TestMCP_ToolCall_FailureStaysCalm(t *testing.T) {
	srv := testServer(t, &fakeAttester{res: &treeship.AttestResult{Error: "timeout"}}, nil)
	params, _ := json.Marshal(map[string]any{
		"name":      "treeship_attest",
		"arguments": map[string]any{"action": "x"},
	})
	out := mcpCall(t, srv.URL, rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage("4"),
		Method:  "tools/call",
		Params:  params,
	})
	if out.Error != nil {
		t.Fatalf("tool failure surfaced as RPC error: %+v", out.Error)
	}
	content := out.Result.(map[string]any)["content"].([]any)
	text := content[0].(map[string]any)["text"].(string)
	if !strings.Contains(text, "continuing") {
		t.Errorf("text = %q", text)
	}
}

func TestMCP_UnknownTool(t *testing.T) {
	srv := testServer(t, &fakeAttester{res: &treeship.AttestResult{}}, nil)
	params, _ := json.Marshal(map[string]any{"name": "other_tool"})
	out := mcpCall(t, srv.URL, rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage("5"),
		Method:  "tools/call",
		Params:  params,
	})
	if out.Error == nil || out.Error.Code != -32602 {
		t.Errorf("error = %+v", out.Error)
	}
}

func TestMCP_UnknownMethod(t *testing.T) {
	srv := testServer(t, &fakeAttester{res: &treeship.AttestResult{}}, nil)
	out := mcpCall(t, srv.URL, rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage("6"),
		Method:  "resources/list",
	})
	if out.Error == nil || out.Error.Code != -32601 {
		t.Errorf("error = %+v", out.Error)
	}
}

func TestMCP_NotificationAccepted(t *testing.T) {
	srv := testServer(t, &fakeAttester{res: &treeship.AttestResult{}}, nil)
	resp, _ := postJSON(t, srv.URL+"/mcp", rpcRequest{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
}
