package treeship

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/treeship/treeship-go/internal/canon"
)

// signingVersion is the version field baked into every signed payload.
const signingVersion = "1.0"

// signingPayload reconstructs the exact canonical bytes the server
// signed. The statement being verified is about the returned record,
// never about caller-side state, so every field comes from att.
func signingPayload(att *Attestation) []byte {
	return canon.Marshal(map[string]any{
		"action":      att.Action,
		"agent":       att.agentSlug(),
		"id":          att.ID,
		"inputs_hash": att.InputsHash,
		"timestamp":   att.Timestamp,
		"version":     signingVersion,
	})
}

// verifySignature checks att against its embedded key and against the
// announced key. It returns (signatureValid, keyMatches).
//
// The two results are deliberately separate: a record signed under a
// since-rotated key is cryptographically authentic (signatureValid)
// but no longer attributable to the currently trusted key (keyMatches).
// An empty announced key leaves keyMatches vacuously true.
//
// Any malformed field fails closed: both results false plus an error.
// A well-formed record with a wrong signature also reports both false,
// since an unauthenticated record proves nothing about its key.
func verifySignature(att *Attestation, announcedKey string) (bool, bool, error) {
	switch {
	case att.ID == "":
		return false, false, errors.New("record missing id")
	case att.InputsHash == "":
		return false, false, errors.New("record missing inputs_hash")
	case att.Timestamp == "":
		return false, false, errors.New("record missing timestamp")
	case att.Signature == "":
		return false, false, errors.New("record missing signature")
	case att.PublicKey == "":
		return false, false, errors.New("record missing public_key")
	}

	sig, err := decodeBase64URL(att.Signature)
	if err != nil {
		return false, false, errors.New("malformed signature encoding")
	}
	key, err := decodeBase64URL(att.PublicKey)
	if err != nil {
		return false, false, errors.New("malformed public key encoding")
	}
	if len(key) != ed25519.PublicKeySize {
		return false, false, errors.New("public key is not an Ed25519 key")
	}

	if !ed25519.Verify(ed25519.PublicKey(key), signingPayload(att), sig) {
		return false, false, nil
	}

	keyMatches := announcedKey == "" ||
		strings.TrimRight(att.PublicKey, "=") == strings.TrimRight(announcedKey, "=")
	return true, keyMatches, nil
}

// decodeBase64URL decodes base64url input that may or may not carry
// padding.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
