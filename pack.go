package rsprod

import "fmt"

// validAttrs are calibrated along with a field's data
var validAttrs = []string{AttrValidMin, AttrValidMax, AttrValidRange}

// Unpack converts a packed field into physical values, as described by its
// scale_factor, add_offset and _FillValue attributes:
//
//   - without scale_factor and add_offset the data is cast to target, which
//     may be KindNone to leave such fields alone. Text is never cast.
//   - a missing scale_factor is taken as one, a missing add_offset as zero,
//     in the kind of the one that is present
//   - the destination kind is the kind of the calibration attributes. When
//     that is the data's kind the transform is Type1, otherwise Type2
//
// Elements equal to _FillValue become the destination kind's default fill
// value. valid_min, valid_max and valid_range go through the same transform.
// On error the field is left untouched.
func (f *Field) Unpack(target Kind) error {
	if f.data == nil || f.data.Len() == 0 {
		return nil
	}
	src := f.data.kind

	scale, hasScale, err := f.calibrationAttr(AttrScaleFactor)
	if err != nil {
		return err
	}
	offset, hasOffset, err := f.calibrationAttr(AttrAddOffset)
	if err != nil {
		return err
	}

	var (
		t    Transform
		dest Kind
	)
	switch {
	case !hasScale && !hasOffset:
		if !target.Valid() || target == src || src == Char {
			return nil
		}
		t.Mode, dest = CastOnly, target
	case hasScale && hasOffset && scale.kind != offset.kind:
		return fmt.Errorf("%w: field %q has %s scale_factor and %s add_offset", ErrCalibrationAttributeMismatch, f.name, scale.kind, offset.kind)
	case !hasOffset:
		offset = scale.kind.Zero()
	case !hasScale:
		scale = offset.kind.Unity()
	}
	if hasScale || hasOffset {
		dest = scale.kind
		t.Mode = Type2
		if dest == src {
			t.Mode = Type1
		}
		t.Scale, t.Offset = scale, offset
	}

	hasFill := f.attrs.Exists(AttrFillValue)
	if hasFill {
		if t.FillIn, err = f.attrs.Scalar(AttrFillValue); err != nil {
			return fmt.Errorf("field %q: %w", f.name, err)
		}
		if t.FillIn.kind != src {
			return fmt.Errorf("%w: field %q is %s, _FillValue is %s", ErrTypeMismatch, f.name, src, t.FillIn.kind)
		}
		t.FillOut = dest.FillValue()
	}

	data, attrs, err := f.calibrate(dest, t)
	if err != nil {
		return err
	}
	attrs.Remove(AttrScaleFactor)
	attrs.Remove(AttrAddOffset)
	if hasFill {
		if err := attrs.SetScalar(AttrFillValue, t.FillOut); err != nil {
			return err
		}
	}

	f.data, f.attrs = data, attrs
	return nil
}

func (f *Field) calibrationAttr(name string) (Scalar, bool, error) {
	if !f.attrs.Exists(name) {
		return Scalar{}, false, nil
	}
	s, err := f.attrs.Scalar(name)
	if err != nil {
		return Scalar{}, false, fmt.Errorf("field %q %s: %w", f.name, name, err)
	}
	return s, true, nil
}

// calibrate runs t over a copy of the data and of the valid_* attributes,
// returning the new data and a new attribute list
func (f *Field) calibrate(dest Kind, t Transform) (*Value, *Attributes, error) {
	src := f.data.kind
	data, err := Calibrate(f.data, dest, t)
	if err != nil {
		return nil, nil, fmt.Errorf("field %q: %w", f.name, err)
	}

	attrs := f.attrs.Copy()
	for _, name := range validAttrs {
		a, ok := attrs.Get(name)
		if !ok {
			continue
		}
		if a.Value.kind != src {
			return nil, nil, fmt.Errorf("%w: field %q is %s, %s is %s", ErrTypeMismatch, f.name, src, name, a.Value.kind)
		}
		v, err := Calibrate(a.Value, dest, t)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q %s: %w", f.name, name, err)
		}
		a.Value = v
	}
	return data, attrs, nil
}

type packOptions struct {
	scale, offset       float64
	hasScale, hasOffset bool
}

// PackOption configures Field.Pack
type PackOption func(*packOptions)

// WithScale sets the scale factor of a pack. Packed values are
// (x - offset) / scale.
func WithScale(scale float64) PackOption {
	return func(o *packOptions) {
		o.scale, o.hasScale = scale, true
	}
}

// WithOffset sets the offset of a pack
func WithOffset(offset float64) PackOption {
	return func(o *packOptions) {
		o.offset, o.hasOffset = offset, true
	}
}

// Pack converts the field's data into kind dest. With a scale or an offset
// the data becomes (x - offset) / scale, with the missing parameter taken as
// one or zero, and scale_factor and add_offset attributes are added in the
// data's original kind so that Unpack restores it. Both parameters are cast
// to the data's kind. Elements equal to _FillValue become dest's default fill
// value and _FillValue follows. Packing a field that already has scale_factor
// or add_offset fails with ErrAlreadyPacked. On error the field is left
// untouched.
func (f *Field) Pack(dest Kind, opts ...PackOption) error {
	if f.attrs.Exists(AttrScaleFactor) || f.attrs.Exists(AttrAddOffset) {
		return fmt.Errorf("%w: %q", ErrAlreadyPacked, f.name)
	}
	if f.data == nil || f.data.Len() == 0 {
		return nil
	}
	src := f.data.kind
	if !src.CanConvert(dest) {
		return fmt.Errorf("%w: field %q from %s to %s", ErrUnsupportedConversion, f.name, src, dest)
	}

	o := &packOptions{}
	for _, opt := range opts {
		opt(o)
	}

	t := Transform{Mode: CastOnly}
	if o.hasScale || o.hasOffset {
		t.Mode, t.Inverse = Type1, true
		t.Scale, t.Offset = src.Unity(), src.Zero()
		if o.hasScale {
			t.Scale = NewScalar(src, o.scale)
		}
		if o.hasOffset {
			t.Offset = NewScalar(src, o.offset)
		}
	}

	hasFill := f.attrs.Exists(AttrFillValue)
	if hasFill {
		fill, err := f.attrs.Scalar(AttrFillValue)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.name, err)
		}
		if fill.kind != src {
			return fmt.Errorf("%w: field %q is %s, _FillValue is %s", ErrTypeMismatch, f.name, src, fill.kind)
		}
		t.FillIn, t.FillOut = fill, dest.FillValue()
	}

	data, attrs, err := f.calibrate(dest, t)
	if err != nil {
		return err
	}
	if t.Mode == Type1 {
		if err := attrs.Insert(&Attribute{Name: AttrScaleFactor, Value: mustScalarValue(t.Scale)}); err != nil {
			return err
		}
		if err := attrs.Insert(&Attribute{Name: AttrAddOffset, Value: mustScalarValue(t.Offset)}); err != nil {
			return err
		}
	}
	if hasFill {
		if err := attrs.SetScalar(AttrFillValue, t.FillOut); err != nil {
			return err
		}
	}

	f.data, f.attrs = data, attrs
	return nil
}

func mustScalarValue(s Scalar) *Value {
	v, err := ValueOf(s.kind, s.v)
	if err != nil {
		panic(err)
	}
	return v
}
