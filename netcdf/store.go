package netcdf

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qri-io/rsprod-go"
)

// Save encodes p and puts it in store under key, compressed with codec
func Save(store rsprod.Store, key string, p *rsprod.Product, codec rsprod.Codec, opts ...Option) error {
	buf := NewBuffer(nil)
	if err := Encode(buf, p, opts...); err != nil {
		return err
	}

	out := &bytes.Buffer{}
	w, err := codec.Compressor(out)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return store.Put(key, out)
}

// Load decodes the product stored under key, decompressing with codec. The
// product is named after key unless WithName says otherwise.
func Load(store rsprod.Store, key string, codec rsprod.Codec, opts ...Option) (*rsprod.Product, error) {
	f, err := store.Get(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := codec.Decompressor(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(NewBuffer(d), append([]Option{WithName(key)}, opts...)...)
}

// ReadFile decodes the file at path. Paths ending in ".gz" or ".zst" are
// decompressed first.
func ReadFile(path string, opts ...Option) (*rsprod.Product, error) {
	dir, base := filepath.Split(path)
	store, err := rsprod.NewLocalStore(dir)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), ".zst")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return Load(store, base, rsprod.CodecForKey(base), append([]Option{WithName(name)}, opts...)...)
}

// WriteFile encodes p into the file at path, compressing it for paths ending
// in ".gz" or ".zst"
func WriteFile(path string, p *rsprod.Product, opts ...Option) error {
	if codec := rsprod.CodecForKey(path); codec != rsprod.NoCompression {
		dir, base := filepath.Split(path)
		store, err := rsprod.NewLocalStore(dir)
		if err != nil {
			return err
		}
		return Save(store, base, p, codec, opts...)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, p, opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
