package sidecar

// AttestRequest is sent to POST /attest.
type AttestRequest struct {
	Action string         `json:"action"`
	Inputs map[string]any `json:"inputs,omitempty"`
}

// AttestResponse is returned from POST /attest. Attested is false on
// any failure; the sidecar never surfaces an attestation fault as an
// HTTP error, because agent work must not be blocked by verification
// infrastructure.
type AttestResponse struct {
	Attested  bool   `json:"attested"`
	URL       string `json:"url,omitempty"`
	ID        string `json:"id,omitempty"`
	Agent     string `json:"agent"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Agent    string `json:"agent"`
	APIURL   string `json:"api_url"`
	HashOnly bool   `json:"hash_only"`
	Version  string `json:"version"`
}

// RootResponse is returned from GET /.
type RootResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
