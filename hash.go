package treeship

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/treeship/treeship-go/internal/canon"
)

// Hash computes the lowercase hex SHA-256 digest used as inputs_hash.
//
// Hashing rules:
//   - string: the raw UTF-8 bytes are hashed directly, with no wrapping
//     serialization.
//   - []byte: hashed directly.
//   - nil: hashed as the canonical form of an empty object, the
//     convention for "no inputs".
//   - anything else: canonicalized to compact JSON with sorted keys
//     first, so structurally equal values hash identically regardless
//     of key insertion order.
//
// The digest is the only representation of the input that ever leaves
// the local process.
func Hash(v any) string {
	var data []byte
	switch x := v.(type) {
	case nil:
		data = canon.Marshal(map[string]any{})
	case string:
		data = []byte(x)
	case []byte:
		data = x
	default:
		data = canon.Marshal(v)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
