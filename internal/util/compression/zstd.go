// Package compression wraps the zstd codec used for stored document
// payloads.
package compression

import "github.com/klauspost/compress/zstd"

// Codec compresses and decompresses byte payloads.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Zstd is a Codec backed by shared zstd encoder/decoder instances. EncodeAll
// and DecodeAll are safe for concurrent use, so one Zstd can serve all
// writers.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (z *Zstd) Compress(data []byte) ([]byte, error) {
	return z.enc.EncodeAll(data, nil), nil
}

func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	return z.dec.DecodeAll(data, nil)
}
