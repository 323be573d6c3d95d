package rsprod

import (
	"fmt"
	"math"
)

// Mode selects how Calibrate maps source elements to destination elements
type Mode int

const (
	// CastOnly converts each element to the destination kind
	CastOnly Mode = iota
	// Type1 computes cast(x*scale + offset) with scale and offset in the
	// source kind. Fill values are matched before the transform.
	Type1
	// Type2 computes cast(x)*scale + offset with scale and offset in the
	// destination kind. Fill values are matched after the cast when the
	// destination kind holds them exactly. NaN elements are matched before.
	Type2
)

func (m Mode) String() string {
	switch m {
	case CastOnly:
		return "cast"
	case Type1:
		return "type1"
	case Type2:
		return "type2"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Transform parametrizes a calibration. Scale and Offset are ignored for
// CastOnly. Fill substitution only happens when both FillIn (source kind) and
// FillOut (destination kind) are valid.
type Transform struct {
	Mode   Mode
	Scale  Scalar
	Offset Scalar
	// Inverse applies (x - offset) / scale in place of x*scale + offset
	Inverse bool
	FillIn  Scalar
	FillOut Scalar
}

// paramKind is the kind scale and offset must have under t for a src -> dest
// calibration
func (t Transform) paramKind(src, dest Kind) Kind {
	if t.Mode == Type2 {
		return dest
	}
	return src
}

// Calibrate transforms src into a new value of kind dest. src is left as is.
func Calibrate(src *Value, dest Kind, t Transform) (*Value, error) {
	if !src.kind.CanConvert(dest) {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, src.kind, dest)
	}
	if src.kind == Char {
		if t.Mode != CastOnly {
			return nil, fmt.Errorf("%w: %s calibration of text", ErrUnsupportedConversion, t.Mode)
		}
		return src.Copy(), nil
	}

	switch t.Mode {
	case CastOnly:
	case Type1, Type2:
		pk := t.paramKind(src.kind, dest)
		if t.Scale.kind != pk || t.Offset.kind != pk {
			return nil, fmt.Errorf("%w: %s calibration wants %s scale and offset, got %s and %s", ErrTypeMismatch, t.Mode, pk, t.Scale.kind, t.Offset.kind)
		}
		if t.Inverse && t.Scale.v == 0 {
			return nil, ErrZeroScale
		}
	default:
		return nil, fmt.Errorf("%w: unknown calibration mode %s", ErrUnsupportedConversion, t.Mode)
	}
	if t.FillIn.Valid() && t.FillIn.kind != src.kind {
		return nil, fmt.Errorf("%w: source fill value is %s, data is %s", ErrTypeMismatch, t.FillIn.kind, src.kind)
	}
	if t.FillOut.Valid() && t.FillOut.kind != dest {
		return nil, fmt.Errorf("%w: destination fill value is %s, want %s", ErrTypeMismatch, t.FillOut.kind, dest)
	}

	substitute := t.FillIn.Valid() && t.FillOut.Valid()
	fillIn := t.FillIn.v
	// Type2 matches the fill after the cast, unless the cast would change it
	castFill := t.Mode == Type2 && castTo(dest, fillIn) == fillIn
	linear := func(x float64) float64 {
		if t.Inverse {
			return (x - t.Offset.v) / t.Scale.v
		}
		return x*t.Scale.v + t.Offset.v
	}

	xs := src.Float64s()
	for i, x := range xs {
		if math.IsNaN(x) {
			if (substitute && math.IsNaN(fillIn)) || (dest.IsInteger() && t.FillOut.Valid()) {
				xs[i] = t.FillOut.v
			} else {
				xs[i] = castTo(dest, x)
			}
			continue
		}
		if substitute && (x == fillIn || (castFill && castTo(dest, x) == fillIn)) {
			xs[i] = t.FillOut.v
			continue
		}
		if t.Mode == Type2 {
			x = castTo(dest, x)
		}
		if t.Mode != CastOnly {
			x = linear(x)
		}
		if math.IsNaN(x) && dest.IsInteger() && t.FillOut.Valid() {
			xs[i] = t.FillOut.v
			continue
		}
		xs[i] = castTo(dest, x)
	}

	out, err := NewValue(dest, len(xs))
	if err != nil {
		return nil, err
	}
	switch s := out.data.(type) {
	case []float32:
		narrow(s, xs)
	case []int16:
		narrow(s, xs)
	case []uint8:
		narrow(s, xs)
	case []float64:
		narrow(s, xs)
	case []int32:
		narrow(s, xs)
	}
	return out, nil
}
