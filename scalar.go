package rsprod

import (
	"fmt"
	"math"
	"strconv"
)

// Scalar is a single element of some Kind. Every kind's value set embeds
// exactly in a float64, so scalars carry their value as one. The zero Scalar
// has KindNone and stands for "no value".
type Scalar struct {
	kind Kind
	v    float64
}

// NewScalar converts f into kind k, rounding and saturating for integer kinds
func NewScalar(k Kind, f float64) Scalar {
	if !k.Valid() {
		return Scalar{}
	}
	return Scalar{kind: k, v: castTo(k, f)}
}

func (s Scalar) Kind() Kind { return s.kind }

// Valid is false for the zero Scalar
func (s Scalar) Valid() bool { return s.kind.Valid() }

// Float64 returns the scalar's value
func (s Scalar) Float64() float64 { return s.v }

// Interface returns the value as the Go type backing its kind. Char values
// come back as a byte.
func (s Scalar) Interface() interface{} {
	switch s.kind {
	case Float32:
		return float32(s.v)
	case Int16:
		return int16(s.v)
	case Char:
		return byte(s.v)
	case Float64:
		return s.v
	case Int32:
		return int32(s.v)
	case Byte:
		return uint8(s.v)
	}
	return nil
}

// Equal reports whether s and o have the same kind and value. NaN equals NaN.
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return false
	}
	return sameValue(s.v, o.v)
}

// Convert casts s into kind k
func (s Scalar) Convert(k Kind) (Scalar, error) {
	if !s.kind.CanConvert(k) {
		return Scalar{}, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, s.kind, k)
	}
	return Scalar{kind: k, v: castTo(k, s.v)}, nil
}

func (s Scalar) String() string {
	switch s.kind {
	case Float32:
		return strconv.FormatFloat(s.v, 'g', -1, 32)
	case Float64:
		return strconv.FormatFloat(s.v, 'g', -1, 64)
	case Char:
		return strconv.QuoteRune(rune(byte(s.v)))
	case KindNone:
		return "<none>"
	}
	return strconv.FormatInt(int64(s.v), 10)
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// castTo narrows x into the value set of kind k. Integer kinds round half away
// from zero and saturate at their range; NaN becomes zero.
func castTo(k Kind, x float64) float64 {
	switch k {
	case Float32:
		return float64(float32(x))
	case Float64:
		return x
	case Int16:
		return saturate(x, math.MinInt16, math.MaxInt16)
	case Int32:
		return saturate(x, math.MinInt32, math.MaxInt32)
	case Byte, Char:
		return saturate(x, 0, math.MaxUint8)
	}
	return 0
}

func saturate(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Round(x)
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
