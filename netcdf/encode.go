package netcdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ctessum/cdf"
	"github.com/qri-io/rsprod-go"
	"github.com/sirupsen/logrus"
)

// placeholder is the value type of the scalar variables attribute-only
// fields encode as
var placeholder = []int32{}

// Encode writes p to rw as a NetCDF classic file. Every field's dimensions
// must agree with the product's joined dimension set.
func Encode(rw cdf.ReaderWriterAt, p *rsprod.Product, opts ...Option) error {
	o := newOptions(opts)
	dims, err := p.Dimensions()
	if err != nil {
		return err
	}
	nrec := 0
	if u, ok := dims.Unlimited(); ok {
		nrec = u.Length
	}

	h, err := buildHeader(p, dims, o)
	if err != nil {
		return err
	}
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFile, errs[0])
	}
	if p.Len() == 0 {
		return writeHeaderOnly(rw, h)
	}
	if err := define(h); err != nil {
		return err
	}

	f, err := cdf.Create(rw, h)
	if err != nil {
		return err
	}
	for _, field := range p.Fields() {
		if !hasPayload(field) {
			if err := f.Fill(field.Name()); err != nil {
				return err
			}
			continue
		}
		if err := writeVariable(f, field); err != nil {
			return fmt.Errorf("field %q: %w", field.Name(), err)
		}
		o.log.WithFields(logrus.Fields{
			"variable": field.Name(),
			"kind":     field.Kind(),
			"dims":     field.Dims(),
		}).Debug("encoded variable")
	}
	return writeNumRecs(rw, nrec)
}

// define lays out the variables of h, reporting cdf panics as errors
func define(h *cdf.Header) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidFile, r)
		}
	}()
	h.Define()
	return nil
}

// writeHeaderOnly writes a file without variables. cdf can only lay out
// headers with at least one variable, so the header is written as a
// version 1 file as is.
func writeHeaderOnly(rw cdf.ReaderWriterAt, h *cdf.Header) error {
	buf := &bytes.Buffer{}
	if err := h.WriteHeader(buf); err != nil {
		return err
	}
	b := buf.Bytes()
	b[versionOffset] = 1
	if _, err := rw.WriteAt(b, 0); err != nil {
		return err
	}
	return writeNumRecs(rw, 0)
}

func hasPayload(f *rsprod.Field) bool {
	return f.HasData() && f.Dims().Len() > 0
}

// buildHeader lays out every dimension, variable and attribute of p. cdf
// panics on malformed input, which is reported as an error.
func buildHeader(p *rsprod.Product, dims *rsprod.Dims, o *options) (h *cdf.Header, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidFile, r)
		}
	}()

	names, lengths := dims.Names(), dims.Lengths()
	if _, ok := dims.Unlimited(); ok {
		lengths[0] = 0
	}
	h = cdf.NewHeader(names, lengths)

	for _, a := range attrList(p.Attrs()) {
		h.AddAttribute("", a.Name, attrValues(a, o.nulTerminated))
	}
	for _, field := range p.Fields() {
		if !hasPayload(field) {
			h.AddVariable(field.Name(), nil, placeholder)
		} else {
			if err := checkDims(field, dims); err != nil {
				return nil, err
			}
			h.AddVariable(field.Name(), field.Dims().Names(), zeroOf(field.Data()))
		}
		for _, a := range attrList(field.Attrs()) {
			h.AddAttribute(field.Name(), a.Name, attrValues(a, o.nulTerminated))
		}
	}
	return h, nil
}

// checkDims fails when the product-wide namesake of one of f's dimensions
// differs from it
func checkDims(f *rsprod.Field, all *rsprod.Dims) error {
	for i := 0; i < f.Dims().Len(); i++ {
		d := f.Dims().At(i)
		if j := all.Index(d.Name); j < 0 || all.At(j) != d {
			return fmt.Errorf("%w: field %q dimension %s conflicts with another field", rsprod.ErrInvalidDimension, f.Name(), d)
		}
	}
	return nil
}

func attrList(l *rsprod.Attributes) []*rsprod.Attribute {
	out := make([]*rsprod.Attribute, l.Len())
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

// attrValues is the cdf representation of a's value
func attrValues(a *rsprod.Attribute, nul bool) interface{} {
	if a.Value.Kind() == rsprod.Char {
		s, _ := a.Value.Text()
		if nul {
			s += "\x00"
		}
		return s
	}
	return a.Value.Values()
}

// zeroOf is a value whose type tells cdf the NetCDF type of v
func zeroOf(v *rsprod.Value) interface{} {
	if v.Kind() == rsprod.Char {
		return ""
	}
	return v.Values()
}

func writeVariable(f *cdf.File, field *rsprod.Field) error {
	dims := field.Dims()
	// cdf writers end one past the last index in every dimension, as the
	// record dimension of a fresh file has no last index yet
	begin, end := make([]int, dims.Len()), dims.Lengths()
	w := f.Writer(field.Name(), begin, end)
	n, err := w.Write(field.Data().Values())
	if err != nil && !(errors.Is(err, io.EOF) && n == field.Len()) {
		return err
	}
	if n != field.Len() {
		return fmt.Errorf("short write: %d of %d elements", n, field.Len())
	}
	return nil
}
