package compression

import (
	"bytes"
	"testing"
)

func TestZstd_RoundTrip(t *testing.T) {
	z, err := NewZstd()
	if err != nil {
		t.Fatalf("NewZstd failed: %v", err)
	}

	t.Run("Document payload", func(t *testing.T) {
		in := []byte(`{"id":1,"username":"alice","profile":{"codename":"nightowl"}}`)

		compressed, err := z.Compress(in)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}
		out, err := z.Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}
		if !bytes.Equal(in, out) {
			t.Errorf("Round trip mismatch: %q != %q", in, out)
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		compressed, err := z.Compress(nil)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}
		out, err := z.Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}
		if len(out) != 0 {
			t.Errorf("Expected empty output, got %d bytes", len(out))
		}
	})

	t.Run("Repetitive input shrinks", func(t *testing.T) {
		in := bytes.Repeat([]byte(`{"status":"draft"}`), 500)
		compressed, err := z.Compress(in)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}
		if len(compressed) >= len(in) {
			t.Errorf("Expected compression, got %d -> %d bytes", len(in), len(compressed))
		}
	})
}
