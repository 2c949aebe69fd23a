//go:build fuzz
// +build fuzz

package entities

import (
	"bytes"
	"testing"
)

// FuzzUnmarshal_RoundTrip checks that anything that decodes re-encodes to a
// message that decodes to an equal value of the announced size.
func FuzzUnmarshal_RoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x0a, 0x03, 0x01, 0x02, 0x03})
	f.Add([]byte{0x08, 0x01, 0x08, 0x02})
	f.Add([]byte{0x10, 0x07, 0x13, 0x08, 0x01, 0x14, 0x0d, 1, 0, 0, 0})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<16 {
			t.Skip("Input too large for fuzz test")
		}

		v, err := Unmarshal(data)
		if err != nil {
			return
		}

		encoded, err := MarshalOptions{}.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal failed for decoded %v: %v", v, err)
		}
		if len(encoded) != v.SerializedSize() {
			t.Fatalf("SerializedSize %d, encoded %d bytes", v.SerializedSize(), len(encoded))
		}

		again, err := Unmarshal(encoded)
		if err != nil {
			t.Fatalf("Unmarshal of re-encoded message failed: %v", err)
		}
		if !v.Equal(again) || v.Hash() != again.Hash() {
			t.Errorf("Round trip mismatch: got %v, want %v", again, v)
		}

		reencoded, err := MarshalOptions{}.Marshal(again)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(encoded, reencoded) {
			t.Errorf("Encoding is not stable: %x then %x", encoded, reencoded)
		}
	})
}
