package rsprod

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Kind is the set of scalar element types a Value can hold. The zero Kind is
// KindNone, which is not a valid element type and is used where a kind is
// optional (eg. "don't unpack")
type Kind int

const (
	KindNone Kind = iota
	Float32
	Int16
	Char
	Float64
	Int32
	Byte

	numKinds = int(iota)
)

var (
	_ json.Unmarshaler = (*Kind)(nil)
	_ json.Marshaler   = (*Kind)(nil)
)

var kindInfo = [numKinds]struct {
	name   string
	goName string
	size   int
	fill   float64
}{
	KindNone: {name: "none"},
	Float32:  {name: "float", goName: "float32", size: 4, fill: -999},
	Int16:    {name: "short", goName: "int16", size: 2, fill: -999},
	Char:     {name: "char", goName: "char", size: 1, fill: 0},
	Float64:  {name: "double", goName: "float64", size: 8, fill: -999},
	Int32:    {name: "int", goName: "int32", size: 4, fill: -999},
	Byte:     {name: "byte", goName: "uint8", size: 1, fill: 255},
}

// Kinds lists every valid kind
func Kinds() []Kind {
	return []Kind{Float32, Int16, Char, Float64, Int32, Byte}
}

// Valid reports whether k is one of the six element kinds
func (k Kind) Valid() bool {
	return k > KindNone && int(k) < numKinds
}

// Size is the number of bytes one element of kind k occupies
func (k Kind) Size() int {
	if !k.Valid() {
		return 0
	}
	return kindInfo[k].size
}

func (k Kind) String() string {
	if k >= KindNone && int(k) < numKinds {
		return kindInfo[k].name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsInteger reports whether k holds integral numbers. Char is text, not an
// integer kind.
func (k Kind) IsInteger() bool {
	switch k {
	case Int16, Int32, Byte:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is a floating point kind
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// CanConvert reports whether values of kind k can be converted into kind to.
// Char only converts to itself.
func (k Kind) CanConvert(to Kind) bool {
	if !k.Valid() || !to.Valid() {
		return false
	}
	if k == to {
		return true
	}
	return k != Char && to != Char
}

var (
	defaultsOnce sync.Once
	fillValues   [numKinds]Scalar
	unityValues  [numKinds]Scalar
	zeroValues   [numKinds]Scalar
)

func buildDefaults() {
	for _, k := range Kinds() {
		fillValues[k] = Scalar{kind: k, v: kindInfo[k].fill}
		zeroValues[k] = Scalar{kind: k, v: 0}
		if k == Char {
			unityValues[k] = Scalar{kind: k, v: 0}
			continue
		}
		unityValues[k] = Scalar{kind: k, v: 1}
	}
}

// FillValue is the default _FillValue for kind k. Invalid kinds return the
// zero Scalar.
func (k Kind) FillValue() Scalar {
	if !k.Valid() {
		return Scalar{}
	}
	defaultsOnce.Do(buildDefaults)
	return fillValues[k]
}

// Unity is the value 1 in kind k, used in place of a missing scale_factor
func (k Kind) Unity() Scalar {
	if !k.Valid() {
		return Scalar{}
	}
	defaultsOnce.Do(buildDefaults)
	return unityValues[k]
}

// Zero is the value 0 in kind k, used in place of a missing add_offset
func (k Kind) Zero() Scalar {
	if !k.Valid() {
		return Scalar{}
	}
	defaultsOnce.Do(buildDefaults)
	return zeroValues[k]
}

// Typestr renders k in the NumPy array protocol type string format, eg. "<f4"
func (k Kind) Typestr() string {
	switch k {
	case Float32:
		return "<f4"
	case Float64:
		return "<f8"
	case Int16:
		return "<i2"
	case Int32:
		return "<i4"
	case Byte:
		return "|u1"
	case Char:
		return "|S1"
	}
	return ""
}

// ParseKind reads a kind from its display name ("float"), its Go name
// ("float32") or a NumPy typestr ("<f4"). "none" and the empty string parse
// as KindNone.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none":
		return KindNone, nil
	}
	for _, k := range Kinds() {
		if strings.EqualFold(s, kindInfo[k].name) || strings.EqualFold(s, kindInfo[k].goName) {
			return k, nil
		}
	}
	switch strings.ToLower(s) {
	case "ubyte", "unsigned char":
		return Byte, nil
	case "text", "string":
		return Char, nil
	}
	return parseTypestr(s)
}

func parseTypestr(s string) (Kind, error) {
	// bug in python implementation uses HTML escape sequences when serializaing JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) < 3 {
		return KindNone, fmt.Errorf("invalid kind string. %q is too short", s)
	}

	switch s[0] {
	case '<', '>', '|', '=':
	default:
		return KindNone, fmt.Errorf("unsupported byte order format: %q", s[0])
	}

	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return KindNone, fmt.Errorf("invalid kind string %q: %w", s, err)
	}

	switch {
	case s[1] == 'f' && size == 4:
		return Float32, nil
	case s[1] == 'f' && size == 8:
		return Float64, nil
	case s[1] == 'i' && size == 2:
		return Int16, nil
	case s[1] == 'i' && size == 4:
		return Int32, nil
	case s[1] == 'u' && size == 1:
		return Byte, nil
	case s[1] == 'S' && size == 1:
		return Char, nil
	}
	return KindNone, fmt.Errorf("%w: no kind for typestr %q", ErrUnsupportedConversion, s)
}

// KindOf infers the kind of a typed Go slice. []byte infers Byte, a string
// infers Char.
func KindOf(values interface{}) Kind {
	switch values.(type) {
	case []float32:
		return Float32
	case []int16:
		return Int16
	case string:
		return Char
	case []float64:
		return Float64
	case []int32:
		return Int32
	case []uint8:
		return Byte
	}
	return KindNone
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(d []byte) error {
	parsed, err := ParseKind(string(d))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

func (k *Kind) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}
