package rsprod

import (
	"io"
	"strings"

	"github.com/qri-io/dataset/compression"
)

// Codec names the stream compression applied to stored products. The zero
// Codec stores bytes as they are.
type Codec struct {
	ID string `json:"id" toml:"id"`
}

var (
	// NoCompression stores bytes as they are
	NoCompression = Codec{}
	// Gzip compresses with gzip
	Gzip = Codec{ID: "gzip"}
	// Zstd compresses with zstandard
	Zstd = Codec{ID: "zst"}
)

// CodecForKey picks a codec from a key's extension: ".gz" and ".zst"
func CodecForKey(key string) Codec {
	switch {
	case strings.HasSuffix(key, ".gz"):
		return Gzip
	case strings.HasSuffix(key, ".zst"):
		return Zstd
	}
	return NoCompression
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Compressor wraps w so that writes are compressed. Closing the returned
// writer flushes it but leaves w open.
func (c Codec) Compressor(w io.Writer) (io.WriteCloser, error) {
	if c.ID == "" {
		return nopWriteCloser{w}, nil
	}
	return compression.Compressor(c.ID, w)
}

// Decompressor wraps r so that reads are decompressed
func (c Codec) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if c.ID == "" {
		return r, nil
	}
	return compression.Decompressor(c.ID, r)
}
