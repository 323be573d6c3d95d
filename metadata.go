package rsprod

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"

	// OrderC is the only element layout: row-major, last dimension fastest
	OrderC = "C"
)

// AttributeMeta is the JSON form of an attribute
type AttributeMeta struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Text holds the value of Char attributes
	Text string `json:"text,omitempty"`
	// Values holds the elements of numeric attributes. Non-finite numbers are
	// encoded as the strings "NaN", "Infinity" and "-Infinity".
	Values Numbers `json:"values,omitempty"`
}

// Numbers is a list of float64s that survives JSON with non-finite members
type Numbers []float64

var (
	_ json.Unmarshaler = (*Numbers)(nil)
	_ json.Marshaler   = (*Numbers)(nil)
)

func (n Numbers) MarshalJSON() ([]byte, error) {
	out := make([]interface{}, len(n))
	for i, x := range n {
		switch {
		case math.IsNaN(x):
			out[i] = FillValueNaN
		case math.IsInf(x, 1):
			out[i] = FillValueInfinity
		case math.IsInf(x, -1):
			out[i] = FillValueNegativeInfinity
		default:
			out[i] = x
		}
	}
	return json.Marshal(out)
}

func (n *Numbers) UnmarshalJSON(d []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(d, &raw); err != nil {
		return err
	}
	out := make(Numbers, len(raw))
	for i, r := range raw {
		switch x := r.(type) {
		case float64:
			out[i] = x
		case string:
			switch x {
			case FillValueNaN:
				out[i] = math.NaN()
			case FillValueInfinity:
				out[i] = math.Inf(1)
			case FillValueNegativeInfinity:
				out[i] = math.Inf(-1)
			default:
				f, err := strconv.ParseFloat(x, 64)
				if err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = f
			}
		default:
			return fmt.Errorf("element %d: unexpected type %T", i, r)
		}
	}
	*n = out
	return nil
}

// Meta describes a
func (a *Attribute) Meta() AttributeMeta {
	m := AttributeMeta{Name: a.Name, Kind: a.Value.kind}
	if a.Value.kind == Char {
		m.Text, _ = a.Value.Text()
		return m
	}
	m.Values = a.Value.Float64s()
	return m
}

// Attribute rebuilds the described attribute
func (m AttributeMeta) Attribute() (*Attribute, error) {
	if m.Kind == Char {
		return NewAttribute(m.Name, TextValue(m.Text))
	}
	v, err := ValueOf(m.Kind, m.Values...)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	return NewAttribute(m.Name, v)
}

func attributesMeta(l *Attributes) []AttributeMeta {
	out := make([]AttributeMeta, l.Len())
	for i := range out {
		out[i] = l.At(i).Meta()
	}
	return out
}

func attributesFromMeta(ms []AttributeMeta) (*Attributes, error) {
	l := &Attributes{}
	for _, m := range ms {
		a, err := m.Attribute()
		if err != nil {
			return nil, err
		}
		if err := l.Insert(a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// FieldMeta describes a field without its data
type FieldMeta struct {
	Name string `json:"name"`
	// Kind of the field's data, "none" for attribute-only fields
	Kind Kind `json:"kind"`
	// NumPy typestr of the data kind, eg. "<f4"
	Dtype string `json:"dtype,omitempty"`
	// The field's dimensions, slowest varying first.
	Shape []Dimension `json:"shape,omitempty"`
	// Either "C" or empty for attribute-only fields. "C" means row-major
	// order, i.e., the last dimension varies fastest.
	Order      string          `json:"order,omitempty"`
	Attributes []AttributeMeta `json:"attributes"`
}

// Meta describes f
func (f *Field) Meta() FieldMeta {
	m := FieldMeta{
		Name:       f.name,
		Kind:       f.Kind(),
		Dtype:      f.Kind().Typestr(),
		Attributes: attributesMeta(f.attrs),
	}
	if f.dims != nil {
		m.Order = OrderC
		m.Shape = make([]Dimension, f.dims.Len())
		copy(m.Shape, f.dims.dims)
	}
	return m
}

// Dims rebuilds the described dimension set, nil for attribute-only fields
func (m FieldMeta) Dims() (*Dims, error) {
	if m.Shape == nil {
		return nil, nil
	}
	d := &Dims{}
	for _, dim := range m.Shape {
		added, err := d.Insert(Append, dim)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, fmt.Errorf("%w: repeated dimension %q", ErrInvalidDimension, dim.Name)
		}
	}
	return d, nil
}

// Field rebuilds the described field around data, which must match the
// described kind and shape
func (m FieldMeta) Field(data *Value) (*Field, error) {
	if data != nil && data.kind != m.Kind {
		return nil, fmt.Errorf("%w: field %q is described as %s, data is %s", ErrTypeMismatch, m.Name, m.Kind, data.kind)
	}
	dims, err := m.Dims()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", m.Name, err)
	}
	attrs, err := attributesFromMeta(m.Attributes)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", m.Name, err)
	}
	return NewField(m.Name, dims, attrs, data)
}

// ProductMeta describes a product without its data
type ProductMeta struct {
	Name string `json:"name"`
	// Every dimension used by the product's fields
	Dimensions []Dimension     `json:"dimensions"`
	Attributes []AttributeMeta `json:"attributes"`
	Fields     []FieldMeta     `json:"fields"`
}

// Meta describes p
func (p *Product) Meta() (ProductMeta, error) {
	dims, err := p.Dimensions()
	if err != nil {
		return ProductMeta{}, err
	}
	m := ProductMeta{
		Name:       p.Name,
		Dimensions: make([]Dimension, dims.Len()),
		Attributes: attributesMeta(p.attrs),
		Fields:     make([]FieldMeta, len(p.fields)),
	}
	copy(m.Dimensions, dims.dims)
	for i, f := range p.fields {
		m.Fields[i] = f.Meta()
	}
	return m, nil
}
