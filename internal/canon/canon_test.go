package canon

import (
	"bytes"
	"testing"
)

func TestMarshal_SortsKeys(t *testing.T) {
	got := Marshal(map[string]any{"b": 1, "a": []any{1, 2, "x"}, "c": map[string]any{"z": true, "y": nil}})
	want := `{"a":[1,2,"x"],"b":1,"c":{"y":null,"z":true}}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshal_Compact(t *testing.T) {
	got := Marshal(map[string]any{"amount": 50000})
	if string(got) != `{"amount":50000}` {
		t.Errorf("Marshal = %s, want {\"amount\":50000}", got)
	}
}

func TestMarshal_InsertionOrderInvariant(t *testing.T) {
	a := map[string]any{}
	for _, k := range []string{"zebra", "apple", "mango", "kiwi"} {
		a[k] = len(k)
	}
	b := map[string]any{}
	for _, k := range []string{"kiwi", "mango", "apple", "zebra"} {
		b[k] = len(k)
	}
	if !bytes.Equal(Marshal(a), Marshal(b)) {
		t.Errorf("insertion order changed canonical bytes: %s vs %s", Marshal(a), Marshal(b))
	}
}

func TestMarshal_Scalars(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{true, "true"},
		{42, "42"},
		{"hi", `"hi"`},
		{1.5, "1.5"},
		{[]any{}, "[]"},
		{map[string]any{}, "{}"},
	}
	for _, tc := range cases {
		if got := Marshal(tc.in); string(got) != tc.want {
			t.Errorf("Marshal(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got := Marshal(map[string]any{"q": "a<b>&c"})
	if string(got) != `{"q":"a<b>&c"}` {
		t.Errorf("Marshal = %s", got)
	}
}

func TestMarshal_StructTags(t *testing.T) {
	type doc struct {
		Name   string `json:"name"`
		Amount int    `json:"amount"`
		Skip   string `json:"-"`
	}
	got := Marshal(doc{Name: "x", Amount: 3, Skip: "hidden"})
	if string(got) != `{"amount":3,"name":"x"}` {
		t.Errorf("Marshal = %s", got)
	}
}

func TestMarshal_TypedMapsAndSlices(t *testing.T) {
	got := Marshal(map[string]int{"b": 2, "a": 1})
	if string(got) != `{"a":1,"b":2}` {
		t.Errorf("typed map: %s", got)
	}
	got = Marshal([]string{"x", "y"})
	if string(got) != `["x","y"]` {
		t.Errorf("typed slice: %s", got)
	}
}

func TestMarshal_LossyLeaves(t *testing.T) {
	// Functions are not JSON-serializable; they must degrade to a string
	// rather than fail the whole serialization.
	got := Marshal(map[string]any{"f": func() {}, "ok": 1})
	if !bytes.Contains(got, []byte(`"ok":1`)) {
		t.Errorf("serializable siblings lost: %s", got)
	}
	if bytes.Contains(got, []byte("null")) {
		t.Errorf("lossy leaf collapsed to null: %s", got)
	}
}

func TestMarshal_NestedStructRoundTripStable(t *testing.T) {
	type inner struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	// Struct field order must not leak into canonical bytes.
	got := Marshal(map[string]any{"v": inner{B: 2, A: 1}})
	if string(got) != `{"v":{"a":1,"b":2}}` {
		t.Errorf("Marshal = %s", got)
	}
}

func TestMarshal_EscapesNonASCII(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{map[string]any{"action": "Café approved"}, `{"action":"Café approved"}`},
		{"José", `"José"`},
		{map[string]any{"grüße": true, "note": "rocket 🚀"}, `{"grüße":true,"note":"rocket 🚀"}`},
	}
	for _, tc := range cases {
		if got := Marshal(tc.in); string(got) != tc.want {
			t.Errorf("Marshal(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMarshal_ASCIIOnly(t *testing.T) {
	got := Marshal(map[string]any{"mixed": "ascii and 日本語 and 🎉", "n": 1})
	for _, b := range got {
		if b > 0x7f {
			t.Fatalf("non-ASCII byte %#x in canonical output %s", b, got)
		}
	}
}
