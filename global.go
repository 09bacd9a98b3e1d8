package treeship

import "sync"

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, constructing it from the
// environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(Options{})
	}
	return defaultClient
}

// SetDefault replaces the process-wide client. Tests use this to inject
// a client pointed at a fake server.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = c
}

// ResetDefault closes and discards the process-wide client; the next
// Default call rebuilds it from the environment.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		defaultClient.Close()
		defaultClient = nil
	}
}
