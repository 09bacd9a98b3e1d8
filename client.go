package treeship

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/treeship/treeship-go/internal/keyring"
)

const (
	// Version is the SDK version reported in the User-Agent header.
	Version = "1.0.0"

	// DefaultAPIURL is the production Treeship API endpoint.
	DefaultAPIURL = "https://api.treeship.dev"

	// DefaultTimeout bounds every network call. A timeout is a normal,
	// expected outcome and maps to a failure result, not an error.
	DefaultTimeout = 10 * time.Second

	// maxActionLen is the action length limit; longer actions are
	// truncated before transmission.
	maxActionLen = 500

	userAgent = "treeship-go/" + Version
)

// Options configures a Client. Every field falls back to the
// environment, so the zero value is a working configuration on a
// machine with TREESHIP_* variables set.
type Options struct {
	// APIKey authenticates requests. Fallback: TREESHIP_API_KEY, then
	// the key stored by `treeship login`.
	APIKey string
	// Agent is the default agent slug. Fallback: TREESHIP_AGENT.
	Agent string
	// APIURL is the API base URL. Fallback: TREESHIP_API_URL, then
	// DefaultAPIURL.
	APIURL string
	// Timeout bounds each request. Fallback: TREESHIP_TIMEOUT
	// (seconds), then DefaultTimeout.
	Timeout time.Duration
	// HashOnly is reserved; it is accepted for configuration
	// compatibility but changes no code path.
	HashOnly bool

	// HTTPClient overrides the pooled transport (used in tests).
	HTTPClient *http.Client
}

// Client talks to the Treeship API. Configuration is resolved once in
// New and immutable for the client's lifetime. The pooled HTTP
// connection is created lazily on first use and released by Close; it
// is safe for concurrent use.
type Client struct {
	apiKey   string
	agent    string
	apiURL   string
	timeout  time.Duration
	hashOnly bool

	mu         sync.Mutex
	httpClient *http.Client
}

// New creates a client, resolving configuration from opts, the
// environment, and the credential store, in that order.
func New(opts Options) *Client {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("TREESHIP_API_KEY")
	}
	if apiKey == "" {
		apiKey, _ = keyring.Get()
	}

	agent := opts.Agent
	if agent == "" {
		agent = os.Getenv("TREESHIP_AGENT")
	}

	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = os.Getenv("TREESHIP_API_URL")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		if secs, err := strconv.ParseFloat(os.Getenv("TREESHIP_TIMEOUT"), 64); err == nil && secs > 0 {
			timeout = time.Duration(secs * float64(time.Second))
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		apiKey:   apiKey,
		agent:    agent,
		apiURL:   strings.TrimRight(apiURL, "/"),
		timeout:  timeout,
		hashOnly: opts.HashOnly,
	}
	if opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	}
	return c
}

// Agent returns the client's default agent slug.
func (c *Client) Agent() string { return c.agent }

// APIURL returns the resolved API base URL.
func (c *Client) APIURL() string { return c.apiURL }

// Validate reports whether the client has the configuration Attest
// requires. It performs no I/O.
func (c *Client) Validate() error {
	if c.agent == "" {
		return ErrMissingAgent
	}
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// pool returns the shared HTTP client, creating it on first use.
func (c *Client) pool() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return c.httpClient
}

// Close releases the pooled connection. The client remains usable; a
// subsequent call re-establishes the pool.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

// AttestRequest describes one attestation to create.
type AttestRequest struct {
	// Action is a human-readable description of what happened,
	// truncated to 500 characters before transmission.
	Action string
	// Inputs is hashed locally with Hash and replaced by its digest;
	// the raw value never appears in the outgoing payload.
	Inputs any
	// Agent overrides the client's default agent slug.
	Agent string
	// Metadata is transmitted as-is. Callers are responsible for not
	// putting sensitive data here.
	Metadata map[string]any
}

// attestPayload is the POST /v1/attest wire body.
type attestPayload struct {
	AgentSlug  string         `json:"agent_slug"`
	Action     string         `json:"action"`
	InputsHash string         `json:"inputs_hash"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Attest creates an attestation. It blocks for at most the configured
// timeout and never returns an error for remote-side failures; check
// AttestResult.Attested. The only possible errors are ErrMissingAgent
// and ErrMissingAPIKey, reported before any network call.
func (c *Client) Attest(req AttestRequest) (*AttestResult, error) {
	return c.AttestContext(context.Background(), req)
}

// AttestContext is the context-aware form of Attest. Both share one
// implementation, so identical inputs and server responses produce
// identical results on either path.
func (c *Client) AttestContext(ctx context.Context, req AttestRequest) (*AttestResult, error) {
	agent := req.Agent
	if agent == "" {
		agent = c.agent
	}
	if agent == "" {
		return nil, ErrMissingAgent
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload := attestPayload{
		AgentSlug:  agent,
		Action:     truncate(req.Action, maxActionLen),
		InputsHash: Hash(req.Inputs),
		Metadata:   req.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &AttestResult{Error: shortError(err)}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/attest", bytes.NewReader(body))
	if err != nil {
		return &AttestResult{Error: shortError(err)}, nil
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.pool().Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return &AttestResult{Error: "timeout"}, nil
		}
		return &AttestResult{Error: shortError(err)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return &AttestResult{Error: fmt.Sprintf("api error: %d", resp.StatusCode)}, nil
	}

	var data attestAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return &AttestResult{Error: shortError(err)}, nil
	}

	res := &AttestResult{
		Attested:      true,
		ID:            data.AttestationID,
		URL:           data.PublicURL,
		Signature:     data.Signature,
		PayloadHash:   data.PayloadHash,
		KeyID:         data.KeyID,
		VerifyCommand: data.VerifyCommand,
		AgentSlug:     data.AgentSlug,
		Action:        data.Action,
		InputsHash:    data.InputsHash,
	}
	if ts, err := time.Parse(time.RFC3339, data.Timestamp); err == nil {
		res.Timestamp = ts
	}
	return res, nil
}

// Verify checks an attestation by ID. It never returns an error: every
// failure mode, including transport faults, is folded into the result
// with Valid=false (fail closed).
func (c *Client) Verify(attestationID string) *VerifyResult {
	return c.VerifyContext(context.Background(), attestationID)
}

// VerifyContext is the context-aware form of Verify. The verification
// algorithm lives in verify.go; this method performs the two network
// fetches (record, then announced key) that feed it.
func (c *Client) VerifyContext(ctx context.Context, attestationID string) *VerifyResult {
	body, status, err := c.get(ctx, "/v1/verify/"+url.PathEscape(attestationID))
	if err != nil {
		return &VerifyResult{Error: shortError(err)}
	}
	if status != http.StatusOK {
		return &VerifyResult{Error: "not found: " + attestationID}
	}
	att, err := decodeAttestationBody(body)
	if err != nil {
		return &VerifyResult{Error: shortError(err)}
	}

	announced, err := c.announcedKey(ctx)
	if err != nil {
		// Fail closed: an unreachable key endpoint must not make a
		// record look valid.
		return &VerifyResult{Attestation: att, Error: shortError(err)}
	}

	sigValid, keyMatches, err := verifySignature(att, announced)
	if err != nil {
		return &VerifyResult{Attestation: att, Error: shortError(err)}
	}
	return &VerifyResult{
		Valid:          sigValid && keyMatches,
		SignatureValid: sigValid,
		KeyMatches:     keyMatches,
		Attestation:    att,
	}
}

// PublicKey fetches the currently announced signing key.
func (c *Client) PublicKey() (*PublicKeyAnnouncement, error) {
	return c.PublicKeyContext(context.Background())
}

// PublicKeyContext is the context-aware form of PublicKey.
func (c *Client) PublicKeyContext(ctx context.Context) (*PublicKeyAnnouncement, error) {
	body, status, err := c.get(ctx, "/v1/pubkey")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("treeship: pubkey endpoint returned %d", status)
	}
	var key PublicKeyAnnouncement
	if err := json.Unmarshal(body, &key); err != nil {
		return nil, fmt.Errorf("treeship: decoding pubkey: %w", err)
	}
	return &key, nil
}

// announcedKey returns the published key string, or "" when the
// endpoint answers but announces nothing.
func (c *Client) announcedKey(ctx context.Context) (string, error) {
	key, err := c.PublicKeyContext(ctx)
	if err != nil {
		return "", err
	}
	return key.PublicKey, nil
}

// AgentFeed fetches an agent's recent attestations.
func (c *Client) AgentFeed(slug string) (map[string]any, error) {
	return c.AgentFeedContext(context.Background(), slug)
}

// AgentFeedContext is the context-aware form of AgentFeed.
func (c *Client) AgentFeedContext(ctx context.Context, slug string) (map[string]any, error) {
	if slug == "" {
		slug = c.agent
	}
	if slug == "" {
		return nil, ErrMissingAgent
	}
	body, status, err := c.get(ctx, "/v1/agent/"+url.PathEscape(slug))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("treeship: agent feed returned %d", status)
	}
	var feed map[string]any
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("treeship: decoding agent feed: %w", err)
	}
	return feed, nil
}

// get performs an authenticated GET and returns the body and status.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.pool().Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, 0, fmt.Errorf("timeout")
		}
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// truncate limits s to n characters, not bytes, so multi-byte text is
// never cut mid-rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// shortError renders err as a bounded diagnostic string for results,
// truncating on a rune boundary.
func shortError(err error) string {
	return truncate(err.Error(), 100)
}

// isTimeout reports whether err is a deadline-style failure.
func isTimeout(err error) bool {
	return os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)
}
