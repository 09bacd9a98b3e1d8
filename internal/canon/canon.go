// Package canon produces byte-stable JSON for hashing and signature
// payloads. Map keys are sorted ascending, output is compact (no
// extraneous whitespace) and pure ASCII: every rune above 0x7F is
// written as a \uXXXX escape, with surrogate pairs for runes outside
// the BMP. HTML characters are not escaped.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf16"
	"unicode/utf8"
)

// Marshal serializes v to canonical JSON. Two structurally equal values
// always produce identical bytes regardless of map insertion order.
// Leaf values that JSON cannot represent (functions, channels, complex
// numbers) are replaced by their string representation. This is lossy:
// such values only need a stable fingerprint, not a round trip.
func Marshal(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(v)); err != nil {
		// normalize guarantees an encodable tree; this is unreachable
		// short of a runtime bug, but fail deterministically anyway.
		return escapeNonASCII([]byte(fmt.Sprintf("%q", fmt.Sprint(v))))
	}
	return escapeNonASCII(bytes.TrimRight(buf.Bytes(), "\n"))
}

// escapeNonASCII rewrites every rune above 0x7F as a lowercase \uXXXX
// escape, splitting runes beyond the BMP into UTF-16 surrogate pairs.
// JSON structure is ASCII, so only string contents are affected, and
// ASCII-only input passes through untouched.
func escapeNonASCII(in []byte) []byte {
	i := 0
	for i < len(in) && in[i] < utf8.RuneSelf {
		i++
	}
	if i == len(in) {
		return in
	}

	var out bytes.Buffer
	out.Grow(len(in) + 16)
	out.Write(in[:i])
	for i < len(in) {
		b := in[i]
		if b < utf8.RuneSelf {
			out.WriteByte(b)
			i++
			continue
		}
		r, size := utf8.DecodeRune(in[i:])
		i += size
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, hi, lo)
		} else {
			fmt.Fprintf(&out, `\u%04x`, r)
		}
	}
	return out.Bytes()
}

// normalize converts v into a tree of map[string]any, []any and scalars.
// encoding/json sorts map[string]any keys, so the encoded form of the
// normalized tree is canonical by construction.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case json.Number, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x
	case []byte:
		return string(x)
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = normalize(val)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = normalize(val)
		}
		return s
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value().Interface())
		}
		return m
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		s := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s[i] = normalize(rv.Index(i).Interface())
		}
		return s
	case reflect.Struct:
		return normalizeStruct(v)
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// normalizeStruct round-trips a struct through encoding/json so that
// struct tags and Marshaler implementations are honored, then sorts the
// resulting tree. Unmarshalable structs degrade to their string form.
func normalizeStruct(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return fmt.Sprint(v)
	}
	return normalize(tree)
}
