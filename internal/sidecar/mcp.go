package sidecar

import (
	"encoding/json"
	"net/http"

	treeship "github.com/treeship/treeship-go"
)

// MCP support: a minimal JSON-RPC 2.0 endpoint exposing one tool,
// treeship_attest, so MCP-speaking agents can attest without an HTTP
// client of their own. Only the handshake and tool methods an MCP host
// sends are implemented.

const mcpProtocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolCallParams struct {
	Name      string `json:"name"`
	Arguments struct {
		Action string         `json:"action"`
		Inputs map[string]any `json:"inputs,omitempty"`
	} `json:"arguments"`
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}

	// Notifications carry no id and expect no response body.
	if req.ID == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": mcpProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo": map[string]any{
				"name":    "treeship",
				"version": treeship.Version,
			},
		}
	case "tools/list":
		resp.Result = map[string]any{"tools": []any{attestToolSchema()}}
	case "tools/call":
		var params toolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name != "treeship_attest" {
			resp.Error = &rpcError{Code: -32602, Message: "unknown tool"}
			break
		}
		result := s.attest(r.Context(), params.Arguments.Action, params.Arguments.Inputs)
		text := "Verification unavailable - continuing."
		if result.Attested {
			text = "Verified. Audit trail: " + result.URL
		}
		resp.Result = map[string]any{
			"content": []any{map[string]any{"type": "text", "text": text}},
		}
	default:
		resp.Error = &rpcError{Code: -32601, Message: "method not found"}
	}
	writeJSON(w, http.StatusOK, resp)
}

func attestToolSchema() map[string]any {
	return map[string]any{
		"name":        "treeship_attest",
		"description": "Create a tamper-proof, independently verifiable record of this agent decision. Call at data reads, consequential decisions, external tool calls, and final outputs. Never blocks on failure.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{
					"type":        "string",
					"description": "Human-readable description of what happened",
				},
				"inputs": map[string]any{
					"type":        "object",
					"description": "Optional inputs; hashed locally, content never sent",
				},
			},
			"required": []any{"action"},
		},
	}
}
