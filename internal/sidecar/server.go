// Package sidecar implements the verification bridge for agent
// frameworks that cannot link the SDK directly. It exposes the
// attestation operation over REST and MCP on a local port and swallows
// every remote failure, returning {"attested": false} instead.
package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	treeship "github.com/treeship/treeship-go"
	"github.com/treeship/treeship-go/internal/journal"
	"github.com/treeship/treeship-go/internal/log"
)

// Attester is the slice of the SDK client the sidecar needs.
type Attester interface {
	AttestContext(ctx context.Context, req treeship.AttestRequest) (*treeship.AttestResult, error)
	Agent() string
	APIURL() string
}

// Options configures a sidecar server.
type Options struct {
	// Addr is the listen address, e.g. ":2019".
	Addr string
	// Client performs the attestations. Required.
	Client Attester
	// Journal, when set, records every successful attestation locally.
	Journal *journal.Journal
	// HashOnly is reserved; it is reported by /health and otherwise
	// unobserved.
	HashOnly bool
}

// Server is the sidecar HTTP server.
type Server struct {
	addr     string
	client   Attester
	journal  *journal.Journal
	hashOnly bool

	server   *http.Server
	listener net.Listener
}

// NewServer creates a sidecar server. It returns an error when no
// client is supplied: a sidecar without a configured client would
// silently no-op every attestation, which is exactly the failure mode
// an explicit construction-time check exists to prevent.
func NewServer(opts Options) (*Server, error) {
	if opts.Client == nil {
		return nil, errors.New("sidecar: client is required")
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":2019"
	}
	s := &Server{
		addr:     addr,
		client:   opts.Client,
		journal:  opts.Journal,
		hashOnly: opts.HashOnly,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /attest", s.handleAttest)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /mcp", s.handleMCP)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr returns the bound listen address, useful when the configured
// port was 0.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start begins listening and serving in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	go func() { _ = s.server.Serve(listener) }()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	log.Info("sidecar listening", "addr", s.Addr(), "agent", s.client.Agent(), "api_url", s.client.APIURL())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// attest runs one attestation and folds every failure, including
// configuration errors, into the response body.
func (s *Server) attest(ctx context.Context, action string, inputs map[string]any) AttestResponse {
	requestID := uuid.NewString()
	logger := log.With("request_id", requestID)

	res, err := s.client.AttestContext(ctx, treeship.AttestRequest{
		Action: action,
		Inputs: inputs,
	})
	if err != nil {
		logger.Warn("attestation misconfigured", "error", err)
		return AttestResponse{Agent: s.client.Agent(), Error: err.Error()}
	}
	if !res.Attested {
		logger.Debug("attestation failed", "error", res.Error)
		return AttestResponse{Agent: s.client.Agent(), Error: res.Error}
	}

	logger.Debug("attestation created", "id", res.ID)
	if s.journal != nil {
		// The journal stores the server-echoed inputs_hash so it can
		// never disagree with the wire record.
		inputsHash := res.InputsHash
		if inputsHash == "" {
			inputsHash = treeship.Hash(inputs)
		}
		if err := s.journal.Record(journal.Entry{
			ID:         res.ID,
			AgentSlug:  s.client.Agent(),
			Action:     action,
			InputsHash: inputsHash,
			URL:        res.URL,
			Timestamp:  res.Timestamp.UTC().Format(time.RFC3339),
		}); err != nil {
			logger.Warn("journal write failed", "error", err)
		}
	}

	resp := AttestResponse{
		Attested: true,
		URL:      res.URL,
		ID:       res.ID,
		Agent:    s.client.Agent(),
	}
	if !res.Timestamp.IsZero() {
		resp.Timestamp = res.Timestamp.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) handleAttest(w http.ResponseWriter, r *http.Request) {
	var req AttestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.attest(r.Context(), req.Action, req.Inputs))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Agent:    s.client.Agent(),
		APIURL:   s.client.APIURL(),
		HashOnly: s.hashOnly,
		Version:  treeship.Version,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "Treeship Sidecar",
		Version: treeship.Version,
		Endpoints: map[string]string{
			"POST /attest": "Create attestation",
			"POST /mcp":    "MCP tool endpoint",
			"GET /health":  "Health check",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
