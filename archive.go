package rsprod

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// ArchiveFormat is the version of the archive layout
	ArchiveFormat = 1
	// MetaKey names the product description stored at the root of an archive
	MetaKey = ".rsproduct"
)

// PersistenceMode controls how WriteArchive treats an existing archive
type PersistenceMode string

const (
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists).
	ModeWriteFail PersistenceMode = "w-"
)

// ErrExists is returned when writing over an archive in ModeWriteFail
var ErrExists = errors.New("archive exists")

// archiveMeta is the JSON document stored under <path>/.rsproduct
type archiveMeta struct {
	Format     int   `json:"rsprod_format"`
	Compressor Codec `json:"compressor"`
	ProductMeta
}

// An archive stores a product under a logical path in a Store: the product
// description as JSON under "<path>/.rsproduct" and each data field's
// elements, little-endian and compressed with the archive codec, under
// "<path>/<field>/0".

// WriteArchive stores p under path
func WriteArchive(store Store, path string, p *Product, codec Codec, mode PersistenceMode) error {
	root, err := NewPath(path)
	if err != nil {
		return err
	}
	mp := root.Join(MetaKey).String()
	switch mode {
	case ModeWrite:
	case ModeWriteFail:
		if f, err := store.Get(mp); err == nil {
			f.Close()
			return fmt.Errorf("%w: %s", ErrExists, root)
		} else if !errors.Is(err, ErrNotfound) {
			return err
		}
	default:
		return fmt.Errorf("unsupported persistence mode %q", mode)
	}

	pm, err := p.Meta()
	if err != nil {
		return err
	}
	for _, f := range p.fields {
		if f.data == nil {
			continue
		}
		if err := writeChunk(store, chunkPath(root, f.name), f.data, codec); err != nil {
			return fmt.Errorf("field %q: %w", f.name, err)
		}
	}

	d, err := json.Marshal(archiveMeta{Format: ArchiveFormat, Compressor: codec, ProductMeta: pm})
	if err != nil {
		return err
	}
	return store.Put(mp, bytes.NewReader(d))
}

// ReadArchive loads the product stored under path
func ReadArchive(store Store, path string) (*Product, error) {
	root, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	f, err := store.Get(root.Join(MetaKey).String())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &archiveMeta{}
	if err := json.NewDecoder(f).Decode(m); err != nil {
		return nil, err
	}
	if m.Format != ArchiveFormat {
		return nil, fmt.Errorf("unsupported archive format %d", m.Format)
	}

	p := NewProduct(m.Name)
	if p.attrs, err = attributesFromMeta(m.Attributes); err != nil {
		return nil, err
	}
	for _, fm := range m.Fields {
		var data *Value
		if fm.Shape != nil {
			dims, err := fm.Dims()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", fm.Name, err)
			}
			if data, err = readChunk(store, chunkPath(root, fm.Name), fm.Kind, dims.Total(), m.Compressor); err != nil {
				return nil, fmt.Errorf("field %q: %w", fm.Name, err)
			}
		}
		field, err := fm.Field(data)
		if err != nil {
			return nil, err
		}
		if err := p.Add(field); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func chunkPath(root Path, field string) Path {
	return root.Join(field, "0")
}

func writeChunk(store Store, p Path, v *Value, codec Codec) error {
	buf := &bytes.Buffer{}
	w, err := codec.Compressor(buf)
	if err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, v.data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return store.Put(p.String(), buf)
}

func readChunk(store Store, p Path, k Kind, n int, codec Codec) (*Value, error) {
	f, err := store.Get(p.String())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := codec.Decompressor(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	v, err := NewValue(k, n)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, v.data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: chunk %s is short", ErrOutOfRange, p)
		}
		return nil, err
	}
	var extra [1]byte
	if _, err := io.ReadFull(r, extra[:]); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: chunk %s is longer than %d elements", ErrOutOfRange, p, n)
		}
		return nil, err
	}
	return v, nil
}
