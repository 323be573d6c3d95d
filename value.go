package rsprod

import (
	"bytes"
	"fmt"
	"strings"
)

// maxValueBytes caps the size of a single value buffer
const maxValueBytes = 1 << 40

// Element is the set of Go types backing a Value. Char and Byte values are
// both backed by []uint8.
type Element interface {
	float32 | int16 | uint8 | float64 | int32
}

// Value is an owned, homogeneously typed buffer of scalars: one of []float32,
// []int16, []byte (Char), []float64, []int32 or []uint8 (Byte). A Value has
// exactly one owner, use Copy to hand data to another.
type Value struct {
	kind Kind
	data interface{}
}

// NewValue allocates a zeroed value of count elements of kind k
func NewValue(k Kind, count int) (*Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: invalid kind %s", ErrTypeMismatch, k)
	}
	if count < 0 || uint64(count)*uint64(k.Size()) > maxValueBytes {
		return nil, fmt.Errorf("%w: %d elements of %s", ErrAllocation, count, k)
	}
	return &Value{kind: k, data: makeSlice(k, count)}, nil
}

func makeSlice(k Kind, n int) interface{} {
	switch k {
	case Float32:
		return make([]float32, n)
	case Int16:
		return make([]int16, n)
	case Char:
		// one terminating byte past the counted elements
		return make([]byte, n+1)[:n]
	case Float64:
		return make([]float64, n)
	case Int32:
		return make([]int32, n)
	case Byte:
		return make([]uint8, n)
	}
	return nil
}

// CopyValue creates a value of count elements of kind k, copied from src.
// src must be a slice of the Go type backing k (a string is accepted for Char)
// holding at least count elements. The caller keeps ownership of src.
func CopyValue(k Kind, count int, src interface{}) (*Value, error) {
	if s, ok := src.(string); ok && k == Char {
		src = []byte(s)
	}
	if !matchesKind(k, src) {
		return nil, fmt.Errorf("%w: cannot copy %T into a %s value", ErrTypeMismatch, src, k)
	}
	if count > sliceLen(src) {
		return nil, fmt.Errorf("%w: need %d elements, source has %d", ErrOutOfRange, count, sliceLen(src))
	}
	v, err := NewValue(k, count)
	if err != nil {
		return nil, err
	}
	switch s := src.(type) {
	case []float32:
		copy(v.data.([]float32), s)
	case []int16:
		copy(v.data.([]int16), s)
	case []uint8:
		copy(v.data.([]uint8), s)
	case []float64:
		copy(v.data.([]float64), s)
	case []int32:
		copy(v.data.([]int32), s)
	}
	return v, nil
}

// AdoptValue takes ownership of buf, a slice of the Go type backing k. The
// caller must not read or write buf afterwards. Char buffers without spare
// capacity for the terminating byte are copied.
func AdoptValue(k Kind, buf interface{}) (*Value, error) {
	if s, ok := buf.(string); ok && k == Char {
		return CopyValue(Char, len(s), s)
	}
	if !matchesKind(k, buf) {
		return nil, fmt.Errorf("%w: cannot adopt %T as a %s value", ErrTypeMismatch, buf, k)
	}
	if k == Char {
		b := buf.([]byte)
		if cap(b) == len(b) {
			return CopyValue(Char, len(b), b)
		}
		b[:len(b)+1][len(b)] = 0
	}
	return &Value{kind: k, data: buf}, nil
}

// ValueOf builds a value of kind k from vals, casting each one into k
func ValueOf(k Kind, vals ...float64) (*Value, error) {
	v, err := NewValue(k, len(vals))
	if err != nil {
		return nil, err
	}
	for i, x := range vals {
		v.set(i, castTo(k, x))
	}
	return v, nil
}

// TextValue builds a Char value holding s
func TextValue(s string) *Value {
	v, _ := CopyValue(Char, len(s), s)
	return v
}

// Slice returns the typed elements of v. It fails with ErrTypeMismatch when T
// is not the Go type backing v's kind. The slice is only valid for as long as
// v is.
func Slice[T Element](v *Value) ([]T, error) {
	s, ok := v.data.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %s value viewed as %T", ErrTypeMismatch, v.kind, zero)
	}
	return s, nil
}

func matchesKind(k Kind, buf interface{}) bool {
	switch buf.(type) {
	case []float32:
		return k == Float32
	case []int16:
		return k == Int16
	case []uint8:
		return k == Byte || k == Char
	case []float64:
		return k == Float64
	case []int32:
		return k == Int32
	}
	return false
}

func sliceLen(buf interface{}) int {
	switch s := buf.(type) {
	case []float32:
		return len(s)
	case []int16:
		return len(s)
	case []uint8:
		return len(s)
	case []float64:
		return len(s)
	case []int32:
		return len(s)
	}
	return 0
}

// Kind is the element kind of v
func (v *Value) Kind() Kind { return v.kind }

// Len is the number of counted elements in v
func (v *Value) Len() int { return sliceLen(v.data) }

// Values returns the backing slice. It is borrowed from v.
func (v *Value) Values() interface{} { return v.data }

// At copies out element i
func (v *Value) At(i int) (Scalar, error) {
	if i < 0 || i >= v.Len() {
		return Scalar{}, fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, v.Len())
	}
	return Scalar{kind: v.kind, v: v.get(i)}, nil
}

// Set stores s at element i. s must be of v's kind.
func (v *Value) Set(i int, s Scalar) error {
	if s.kind != v.kind {
		return fmt.Errorf("%w: setting %s element in %s value", ErrTypeMismatch, s.kind, v.kind)
	}
	if i < 0 || i >= v.Len() {
		return fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, v.Len())
	}
	v.set(i, s.v)
	return nil
}

// SetAll fills every element of v with s
func (v *Value) SetAll(s Scalar) error {
	if s.kind != v.kind {
		return fmt.Errorf("%w: filling %s value with %s", ErrTypeMismatch, v.kind, s.kind)
	}
	for i, n := 0, v.Len(); i < n; i++ {
		v.set(i, s.v)
	}
	return nil
}

// Copy returns a deep copy of v
func (v *Value) Copy() *Value {
	cp, _ := CopyValue(v.kind, v.Len(), v.data)
	return cp
}

// Equal reports whether v and o hold the same kind and elements
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.kind != o.kind || v.Len() != o.Len() {
		return false
	}
	for i, n := 0, v.Len(); i < n; i++ {
		if !sameValue(v.get(i), o.get(i)) {
			return false
		}
	}
	return true
}

// Text returns a Char value as a string, without trailing NULs
func (v *Value) Text() (string, error) {
	if v.kind != Char {
		return "", fmt.Errorf("%w: %s value is not text", ErrTypeMismatch, v.kind)
	}
	return string(bytes.TrimRight(v.data.([]byte), "\x00")), nil
}

// Float64s returns a widened copy of v's elements
func (v *Value) Float64s() []float64 {
	switch s := v.data.(type) {
	case []float32:
		return widen(s)
	case []int16:
		return widen(s)
	case []uint8:
		return widen(s)
	case []float64:
		return widen(s)
	case []int32:
		return widen(s)
	}
	return nil
}

func (v *Value) String() string {
	if v.kind == Char {
		s, _ := v.Text()
		return fmt.Sprintf("%q", s)
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = Scalar{kind: v.kind, v: v.get(i)}.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (v *Value) get(i int) float64 {
	switch s := v.data.(type) {
	case []float32:
		return float64(s[i])
	case []int16:
		return float64(s[i])
	case []uint8:
		return float64(s[i])
	case []float64:
		return s[i]
	case []int32:
		return float64(s[i])
	}
	return 0
}

// set stores x, which must already be in v's value set, at element i
func (v *Value) set(i int, x float64) {
	switch s := v.data.(type) {
	case []float32:
		s[i] = float32(x)
	case []int16:
		s[i] = int16(x)
	case []uint8:
		s[i] = uint8(x)
	case []float64:
		s[i] = x
	case []int32:
		s[i] = int32(x)
	}
}

func widen[T Element](s []T) []float64 {
	out := make([]float64, len(s))
	for i, x := range s {
		out[i] = float64(x)
	}
	return out
}

func narrow[T Element](dst []T, xs []float64) {
	for i, x := range xs {
		dst[i] = T(x)
	}
}
