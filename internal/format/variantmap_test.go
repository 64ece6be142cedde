package format

import (
	"bytes"
	"testing"
)

func TestVariantMapRoundTrip(t *testing.T) {
	m := NewVariantMap()
	m.SetUint32("R", 100000)
	m.SetBytes("S", []byte{1, 2, 3, 4})
	m.SetString("name", "argon2id")
	m.SetBool("flag", true)
	m.SetInt64("neg", -7)

	enc := EncodeVariantMap(m)
	dec, err := DecodeVariantMap(enc)
	if err != nil {
		t.Fatalf("DecodeVariantMap: %v", err)
	}

	if v, ok := dec.GetUint32("R"); !ok || v != 100000 {
		t.Fatalf("R mismatch: got %d ok=%v", v, ok)
	}
	if v, ok := dec.GetBytes("S"); !ok || !bytes.Equal(v, []byte{1, 2, 3, 4}) {
		t.Fatalf("S mismatch: got %v ok=%v", v, ok)
	}
	if v, ok := dec.GetString("name"); !ok || v != "argon2id" {
		t.Fatalf("name mismatch: got %q ok=%v", v, ok)
	}
	if v, ok := dec.GetBool("flag"); !ok || v != true {
		t.Fatalf("flag mismatch: got %v ok=%v", v, ok)
	}
	if v, ok := dec.GetInt64("neg"); !ok || v != -7 {
		t.Fatalf("neg mismatch: got %d ok=%v", v, ok)
	}
	if got := dec.Keys(); len(got) != 5 {
		t.Fatalf("expected 5 keys in order, got %v", got)
	}
}

func TestVariantMapPreservesUnknownType(t *testing.T) {
	m := NewVariantMap()
	m.SetString("known", "x")
	enc := EncodeVariantMap(m)

	// Splice in a record with an unrecognized type tag (0x99) before the
	// terminator byte.
	term := enc[len(enc)-1]
	body := enc[:len(enc)-1]
	extra := []byte{0x99, 3, 0, 0, 0, 'f', 'o', 'o', 1, 0, 0, 0, 'z'}
	patched := append(append(append([]byte{}, body...), extra...), term)

	dec, err := DecodeVariantMap(patched)
	if err != nil {
		t.Fatalf("DecodeVariantMap: %v", err)
	}
	found := false
	for _, e := range dec.Entries() {
		if e.Key == "foo" {
			found = true
			if !e.Unknown {
				t.Fatalf("expected foo to be marked Unknown")
			}
			if !bytes.Equal(e.Raw, []byte{'z'}) {
				t.Fatalf("unexpected raw value: %v", e.Raw)
			}
		}
	}
	if !found {
		t.Fatalf("expected unknown entry 'foo' to survive decode")
	}
}

func TestVariantMapRejectsTruncated(t *testing.T) {
	if _, err := DecodeVariantMap([]byte{0x00}); err == nil {
		t.Fatalf("expected error on truncated version field")
	}
	hdr := make([]byte, 2)
	PutU16(hdr, 0, VariantMapVersion)
	if _, err := DecodeVariantMap(hdr); err == nil {
		t.Fatalf("expected error on missing terminator")
	}
}
