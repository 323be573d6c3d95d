package netcdf

import (
	"fmt"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/qri-io/rsprod-go"
	"github.com/sirupsen/logrus"
)

// Decode reads the NetCDF classic file held by rw into a product. rw must
// report its size, through a Size() or Stat() method, when the header leaves
// the record count open.
func Decode(rw cdf.ReaderWriterAt, opts ...Option) (*rsprod.Product, error) {
	o := newOptions(opts)
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, err)
	}
	if errs := f.Header.Check(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, errs[0])
	}

	nrec, err := numRecs(rw, f.Header)
	if err != nil {
		return nil, err
	}

	p := rsprod.NewProduct(o.name)
	for _, a := range f.Header.Attributes("") {
		attr, err := decodeAttribute(a, f.Header.GetAttribute("", a))
		if err != nil {
			return nil, fmt.Errorf("global attribute %q: %w", a, err)
		}
		if err := p.Attrs().Insert(attr); err != nil {
			return nil, err
		}
	}

	for _, v := range f.Header.Variables() {
		field, err := decodeVariable(f, v, nrec)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v, err)
		}
		o.log.WithFields(logrus.Fields{
			"variable": v,
			"kind":     field.Kind(),
			"dims":     field.Dims(),
		}).Debug("decoded variable")
		if err := p.Add(field); err != nil {
			return nil, err
		}
	}

	if o.doUnpack {
		if err := p.Unpack(o.unpack); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// numRecs is the record count from the header, or computed from the storage
// size for streaming files
func numRecs(rw cdf.ReaderWriterAt, h *cdf.Header) (int, error) {
	n, err := readNumRecs(rw)
	if err != nil {
		return 0, fmt.Errorf("%w: reading record count: %s", ErrInvalidFile, err)
	}
	if n != streaming {
		return n, nil
	}
	size, ok := storageSize(rw)
	if !ok {
		return 0, fmt.Errorf("%w: streaming file of unknown size", ErrInvalidFile)
	}
	return int(h.NumRecs(size)), nil
}

func decodeVariable(f *cdf.File, v string, nrec int) (*rsprod.Field, error) {
	attrs := &rsprod.Attributes{}
	for _, a := range f.Header.Attributes(v) {
		attr, err := decodeAttribute(a, f.Header.GetAttribute(v, a))
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a, err)
		}
		if err := attrs.Insert(attr); err != nil {
			return nil, err
		}
	}

	names := f.Header.Dimensions(v)
	lengths := append([]int(nil), f.Header.Lengths(v)...)
	record := f.Header.IsRecordVariable(v)
	if record {
		lengths[0] = nrec
	}
	if len(names) == 0 || (record && nrec == 0) {
		return rsprod.NewField(v, nil, attrs, nil)
	}

	k, err := kindOf(f.Header.ZeroValue(v, 0))
	if err != nil {
		return nil, err
	}
	unlimited := make([]bool, len(names))
	unlimited[0] = record
	dims, err := rsprod.NewDims(names, lengths, unlimited)
	if err != nil {
		return nil, err
	}

	begin, end := make([]int, len(lengths)), make([]int, len(lengths))
	for i, l := range lengths {
		end[i] = l - 1
	}
	r := f.Reader(v, begin, end)
	buf := r.Zero(dims.Total())
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	data, err := rsprod.AdoptValue(k, buf)
	if err != nil {
		return nil, err
	}
	return rsprod.NewField(v, dims, attrs, data)
}

func decodeAttribute(name string, val interface{}) (*rsprod.Attribute, error) {
	if s, ok := val.(string); ok {
		return rsprod.TextAttribute(name, strings.TrimRight(s, "\x00")), nil
	}
	k := rsprod.KindOf(val)
	if !k.Valid() {
		return nil, fmt.Errorf("%w: unsupported attribute type %T", ErrInvalidFile, val)
	}
	// cdf shares attribute values between callers
	v, err := rsprod.CopyValue(k, lenOf(val), val)
	if err != nil {
		return nil, err
	}
	return rsprod.NewAttribute(name, v)
}

func lenOf(val interface{}) int {
	switch s := val.(type) {
	case []uint8:
		return len(s)
	case []int16:
		return len(s)
	case []int32:
		return len(s)
	case []float32:
		return len(s)
	case []float64:
		return len(s)
	}
	return 0
}
