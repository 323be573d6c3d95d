package rsprod

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecForKey(t *testing.T) {
	assert.Equal(t, Gzip, CodecForKey("granule.nc.gz"))
	assert.Equal(t, Zstd, CodecForKey("granule.nc.zst"))
	assert.Equal(t, NoCompression, CodecForKey("granule.nc"))
}

func TestCodecRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("brightness temperature "), 64)
	for _, c := range []Codec{NoCompression, Gzip, Zstd} {
		t.Run(c.ID, func(t *testing.T) {
			buf := &bytes.Buffer{}
			w, err := c.Compressor(buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			if c != NoCompression {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := c.Decompressor(io.NopCloser(buf))
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, got)
		})
	}
}
