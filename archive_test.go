package rsprod

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	for _, codec := range []Codec{NoCompression, Gzip, Zstd} {
		t.Run(codec.ID, func(t *testing.T) {
			s := NewMemoryStore()
			p := testProduct(t)
			require.NoError(t, WriteArchive(s, "granules/a", p, codec, ModeWrite))

			keys, err := s.Keys()
			require.NoError(t, err)
			assert.Equal(t, []string{
				"granules/a/.rsproduct",
				"granules/a/label/0",
				"granules/a/reflectance/0",
				"granules/a/temp/0",
			}, keys)

			got, err := ReadArchive(s, "/granules/a/")
			require.NoError(t, err)
			assert.Equal(t, p.Name, got.Name)
			require.Equal(t, p.Len(), got.Len())
			for i, want := range p.Fields() {
				f := got.Fields()[i]
				assert.Equal(t, want.Name(), f.Name())
				assert.Equal(t, want.Attrs(), f.Attrs(), want.Name())
				if !want.HasData() {
					assert.False(t, f.HasData())
					continue
				}
				assert.True(t, want.Dims().Equal(f.Dims()), want.Name())
				assert.True(t, want.Data().Equal(f.Data()), want.Name())
			}
		})
	}
}

func TestArchiveMeta(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, WriteArchive(s, "a", testProduct(t), Zstd, ModeWrite))

	r, err := s.Get("a/.rsproduct")
	require.NoError(t, err)
	defer r.Close()
	m := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(r).Decode(&m))
	assert.Equal(t, float64(ArchiveFormat), m["rsprod_format"])
	assert.Equal(t, map[string]interface{}{"id": "zst"}, m["compressor"])
}

func TestArchiveModes(t *testing.T) {
	s := NewMemoryStore()
	p := testProduct(t)
	require.NoError(t, WriteArchive(s, "a", p, NoCompression, ModeWriteFail))

	err := WriteArchive(s, "a", p, NoCompression, ModeWriteFail)
	assert.True(t, errors.Is(err, ErrExists), err)
	require.NoError(t, WriteArchive(s, "a", p, NoCompression, ModeWrite))

	err = WriteArchive(s, "b", p, NoCompression, PersistenceMode("r"))
	assert.Error(t, err)
	assert.Error(t, WriteArchive(s, "", p, NoCompression, ModeWrite))
}

func TestReadArchiveErrors(t *testing.T) {
	s := NewMemoryStore()
	_, err := ReadArchive(s, "missing")
	assert.True(t, errors.Is(err, ErrNotfound), err)

	require.NoError(t, WriteArchive(s, "a", testProduct(t), NoCompression, ModeWrite))
	require.NoError(t, s.Put("a/temp/0", bytes.NewReader([]byte{1, 0, 2})))
	_, err = ReadArchive(s, "a")
	assert.True(t, errors.Is(err, ErrOutOfRange), err)

	require.NoError(t, s.Put("a/temp/0", bytes.NewReader(make([]byte, 14))))
	_, err = ReadArchive(s, "a")
	assert.True(t, errors.Is(err, ErrOutOfRange), "trailing bytes: %v", err)

	require.NoError(t, s.Put("a/.rsproduct", bytes.NewReader([]byte(`{"rsprod_format": 99}`))))
	_, err = ReadArchive(s, "a")
	assert.Error(t, err)
}

func TestArchiveLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, WriteArchive(s, "a", testProduct(t), Gzip, ModeWrite))

	r, err := s.Get("a/temp/0")
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2], "chunks are gzipped")

	got, err := ReadArchive(s, "a")
	require.NoError(t, err)
	temp, ok := got.Field("temp")
	require.True(t, ok)
	s0, err := temp.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 6.0, s0.Float64())
}
