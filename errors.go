package treeship

import "errors"

// Configuration errors are the only errors Attest returns. They signal
// caller misuse, not an operational condition, and are reported before
// any network call is attempted.
var (
	// ErrMissingAPIKey is returned when no API key is resolvable from
	// Options.APIKey, TREESHIP_API_KEY, or the credential store.
	ErrMissingAPIKey = errors.New("treeship: api key required: set Options.APIKey, TREESHIP_API_KEY, or run `treeship login`")

	// ErrMissingAgent is returned when no agent slug is resolvable from
	// the request, Options.Agent, or TREESHIP_AGENT.
	ErrMissingAgent = errors.New("treeship: agent slug required: set AttestRequest.Agent, Options.Agent, or TREESHIP_AGENT")
)
