// Package treeship creates and verifies cryptographic attestations of
// AI agent actions.
//
// Privacy contract: inputs are hashed locally with SHA-256 and only the
// action text plus the hash are sent to the Treeship API. Raw content
// never leaves the process.
//
// Reliability contract: Attest and Verify never fail for remote-side
// reasons. Timeouts, transport faults, bad status codes, and invalid
// signatures are all reported inside the returned result. The only
// errors these methods return are configuration errors (missing API key
// or agent slug) detected before any network I/O.
//
//	client := treeship.New(treeship.Options{})
//	res, err := client.Attest(treeship.AttestRequest{
//		Action: "Loan approved",
//		Inputs: map[string]any{"amount": 50000},
//	})
//	if err != nil {
//		// misconfiguration, fix the environment
//	}
//	if res.Attested {
//		fmt.Println(res.URL)
//	}
package treeship

import "context"

// Attest creates an attestation using the process-wide default client.
func Attest(req AttestRequest) (*AttestResult, error) {
	return Default().Attest(req)
}

// AttestContext is the context-aware form of Attest.
func AttestContext(ctx context.Context, req AttestRequest) (*AttestResult, error) {
	return Default().AttestContext(ctx, req)
}

// Verify checks an attestation by ID using the process-wide default client.
func Verify(attestationID string) *VerifyResult {
	return Default().Verify(attestationID)
}

// VerifyContext is the context-aware form of Verify.
func VerifyContext(ctx context.Context, attestationID string) *VerifyResult {
	return Default().VerifyContext(ctx, attestationID)
}
