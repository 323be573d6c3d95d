// Package netcdf reads and writes products as NetCDF classic files.
//
// Variables map to fields and NetCDF types map to kinds as follows:
//
//	BYTE   -> rsprod.Byte
//	CHAR   -> rsprod.Char
//	SHORT  -> rsprod.Int16
//	INT    -> rsprod.Int32
//	FLOAT  -> rsprod.Float32
//	DOUBLE -> rsprod.Float64
//
// The record dimension becomes the unlimited dimension, sized by the current
// record count. Scalar variables and record variables without records carry
// no data and decode as attribute-only fields; attribute-only fields encode as
// scalar INT variables.
package netcdf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/qri-io/rsprod-go"
	"github.com/sirupsen/logrus"
)

// ErrInvalidFile is returned for storage that doesn't hold a readable
// NetCDF classic file
var ErrInvalidFile = errors.New("invalid netcdf file")

// Option configures Decode, Encode and the helpers built on them
type Option func(*options)

type options struct {
	log           logrus.FieldLogger
	unpack        rsprod.Kind
	doUnpack      bool
	nulTerminated bool
	name          string
}

func defaultOptions() *options {
	return &options{log: logrus.StandardLogger()}
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger Decode and Encode report progress to
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithUnpack makes Decode unpack every field. Fields without calibration
// attributes are cast to target, or left alone for rsprod.KindNone.
func WithUnpack(target rsprod.Kind) Option {
	return func(o *options) {
		o.unpack, o.doUnpack = target, true
	}
}

// WriteNullTerminator makes Encode append a NUL byte to text attributes
func WriteNullTerminator(on bool) Option {
	return func(o *options) {
		o.nulTerminated = on
	}
}

// WithName sets the name of decoded products
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithConfig applies the unpack and null terminator settings of c
func WithConfig(c *rsprod.Config) Option {
	return func(o *options) {
		o.unpack, o.doUnpack = c.UnpackTarget, true
		o.nulTerminated = c.WriteNullTerminator
	}
}

// Buffer is an in-memory cdf.ReaderWriterAt that grows to fit writes past
// its end
type Buffer struct {
	lk sync.Mutex
	b  []byte
}

var _ cdf.ReaderWriterAt = (*Buffer)(nil)

// NewBuffer wraps b, which the buffer owns from here on
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	b.lk.Lock()
	defer b.lk.Unlock()
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(b.b)) {
		return 0, io.EOF
	}
	n := copy(p, b.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	b.lk.Lock()
	defer b.lk.Unlock()
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if end := off + int64(len(p)); end > int64(len(b.b)) {
		b.b = append(b.b, make([]byte, end-int64(len(b.b)))...)
	}
	return copy(b.b[off:], p), nil
}

// Size is the length of the buffer contents
func (b *Buffer) Size() int64 {
	b.lk.Lock()
	defer b.lk.Unlock()
	return int64(len(b.b))
}

// Bytes returns the buffer contents. The slice is shared with b.
func (b *Buffer) Bytes() []byte {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.b
}

// versionOffset is the position of the format version byte after "CDF"
const versionOffset = 3

// numRecsOffset is the position of the big-endian record count in the header
const numRecsOffset = 4

// streaming is the record count of files whose writer left it open
const streaming = -1

func readNumRecs(r io.ReaderAt) (int, error) {
	var buf [4]byte
	if _, err := r.ReadAt(buf[:], numRecsOffset); err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(buf[:]))), nil
}

func writeNumRecs(w io.WriterAt, n int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(int32(n)))
	_, err := w.WriteAt(buf[:], numRecsOffset)
	return err
}

// storageSize finds the byte length of rw, when it exposes one
func storageSize(rw cdf.ReaderWriterAt) (int64, bool) {
	switch s := rw.(type) {
	case interface{ Size() int64 }:
		return s.Size(), true
	case interface{ Stat() (os.FileInfo, error) }:
		fi, err := s.Stat()
		if err != nil {
			return 0, false
		}
		return fi.Size(), true
	}
	return 0, false
}

// kindOf maps the zero value cdf hands out for a NetCDF type to its kind
func kindOf(zero interface{}) (rsprod.Kind, error) {
	if _, ok := zero.(string); ok {
		return rsprod.Char, nil
	}
	if k := rsprod.KindOf(zero); k.Valid() {
		return k, nil
	}
	return rsprod.KindNone, fmt.Errorf("%w: unsupported variable type %T", ErrInvalidFile, zero)
}
