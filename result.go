package treeship

import (
	"encoding/json"
	"time"
)

// AttestResult is the outcome of an attestation request. Exactly one
// branch is populated: on success Attested is true and the identity
// fields are set; on failure Attested is false and Error holds a short
// diagnostic.
type AttestResult struct {
	Attested bool `json:"attested"`

	ID            string    `json:"id,omitempty"`
	URL           string    `json:"url,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitzero"`
	Signature     string    `json:"signature,omitempty"`
	PayloadHash   string    `json:"payload_hash,omitempty"`
	KeyID         string    `json:"key_id,omitempty"`
	VerifyCommand string    `json:"verify_command,omitempty"`
	AgentSlug     string    `json:"agent_slug,omitempty"`
	Action        string    `json:"action,omitempty"`
	InputsHash    string    `json:"inputs_hash,omitempty"`

	Error string `json:"error,omitempty"`
}

// VerifyResult is the outcome of a verification request.
// Invariant: Valid == SignatureValid && KeyMatches.
type VerifyResult struct {
	Valid          bool         `json:"valid"`
	SignatureValid bool         `json:"signature_valid"`
	KeyMatches     bool         `json:"key_matches"`
	Attestation    *Attestation `json:"attestation,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// Attestation is the server-issued signed record. The verifier treats
// it as untrusted input: every statement it makes is checked against
// the embedded signature, never taken on faith.
type Attestation struct {
	ID         string `json:"id"`
	AgentSlug  string `json:"agent_slug"`
	Agent      string `json:"agent,omitempty"`
	Action     string `json:"action"`
	InputsHash string `json:"inputs_hash"`
	Timestamp  string `json:"timestamp"`
	Signature  string `json:"signature"`
	PublicKey  string `json:"public_key"`
	KeyID      string `json:"key_id,omitempty"`
}

// agentSlug returns the signing agent identity; older records carry it
// under "agent" instead of "agent_slug".
func (a *Attestation) agentSlug() string {
	if a.AgentSlug != "" {
		return a.AgentSlug
	}
	return a.Agent
}

// PublicKeyAnnouncement is the currently published signing key, fetched
// fresh at verification time. It is never cached across verifications so
// that key rotation is observed immediately.
type PublicKeyAnnouncement struct {
	KeyID     string `json:"key_id"`
	Algorithm string `json:"algorithm"`
	PublicKey string `json:"public_key"`
}

// attestAPIResponse is the POST /v1/attest 201 body.
type attestAPIResponse struct {
	AttestationID string `json:"attestation_id"`
	PublicURL     string `json:"public_url"`
	Timestamp     string `json:"timestamp"`
	Signature     string `json:"signature"`
	PayloadHash   string `json:"payload_hash"`
	KeyID         string `json:"key_id"`
	VerifyCommand string `json:"verify_command"`
	AgentSlug     string `json:"agent_slug"`
	Action        string `json:"action"`
	InputsHash    string `json:"inputs_hash"`
}

// verifyAPIResponse is the GET /v1/verify/{id} 200 body. Some servers
// wrap the record, some return it bare; both are accepted.
type verifyAPIResponse struct {
	Attestation *Attestation `json:"attestation"`
}

func decodeAttestationBody(body []byte) (*Attestation, error) {
	var wrapped verifyAPIResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Attestation != nil {
		return wrapped.Attestation, nil
	}
	var bare Attestation
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, err
	}
	return &bare, nil
}
