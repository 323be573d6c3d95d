package rsprod

import "fmt"

// Field is a named variable: an optional shaped payload plus its attributes.
// A field without dims and data is a pure attribute carrier, eg. a grid
// mapping placeholder.
type Field struct {
	name  string
	dims  *Dims
	attrs *Attributes
	data  *Value
}

// NewField assembles a field from parts, taking ownership of them. dims and
// data must be both nil or both set, with data spanning exactly dims.Total()
// elements. A nil attrs starts an empty list.
func NewField(name string, dims *Dims, attrs *Attributes, data *Value) (*Field, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: field name is required", ErrInvalidName)
	}
	if err := checkShape(name, dims, data); err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = &Attributes{}
	}
	return &Field{name: name, dims: dims, attrs: attrs, data: data}, nil
}

func checkShape(name string, dims *Dims, data *Value) error {
	if (dims == nil) != (data == nil) {
		return fmt.Errorf("%w: field %q needs both dims and data or neither", ErrInvalidDimension, name)
	}
	if data != nil && data.Len() != dims.Total() {
		return fmt.Errorf("%w: field %q has %d elements, dims %s span %d", ErrInvalidDimension, name, data.Len(), dims, dims.Total())
	}
	return nil
}

// StandardAttrs are the conventional CF attributes NewStandardField can
// attach. Empty strings and invalid scalars are left out.
type StandardAttrs struct {
	LongName     string
	StandardName string
	Units        string
	FillValue    Scalar
	ValidMin     Scalar
	ValidMax     Scalar
	// ValidRange is attached when both ends are valid
	ValidRange  [2]Scalar
	Coordinates string
	GridMapping string
}

// NewStandardField builds a field and synthesizes its conventional attribute
// set from std. Scalar attributes must share the data's kind.
func NewStandardField(name string, dims *Dims, data *Value, std StandardAttrs) (*Field, error) {
	attrs := &Attributes{}
	texts := []struct{ name, text string }{
		{AttrLongName, std.LongName},
		{AttrStandardName, std.StandardName},
		{AttrUnits, std.Units},
	}
	for _, t := range texts {
		if t.text != "" {
			attrs.list = append(attrs.list, TextAttribute(t.name, t.text))
		}
	}

	scalars := []struct {
		name string
		vals []Scalar
	}{
		{AttrFillValue, []Scalar{std.FillValue}},
		{AttrValidMin, []Scalar{std.ValidMin}},
		{AttrValidMax, []Scalar{std.ValidMax}},
		{AttrValidRange, std.ValidRange[:]},
	}
	for _, s := range scalars {
		v, err := scalarsValue(s.vals, data)
		if err != nil {
			return nil, fmt.Errorf("field %q %s: %w", name, s.name, err)
		}
		if v != nil {
			attrs.list = append(attrs.list, &Attribute{Name: s.name, Value: v})
		}
	}

	if std.Coordinates != "" {
		attrs.list = append(attrs.list, TextAttribute(AttrCoordinates, std.Coordinates))
	}
	if std.GridMapping != "" {
		attrs.list = append(attrs.list, TextAttribute(AttrGridMapping, std.GridMapping))
	}
	return NewField(name, dims, attrs, data)
}

// scalarsValue packs vals into one value, or returns nil if any is invalid
func scalarsValue(vals []Scalar, data *Value) (*Value, error) {
	floats := make([]float64, len(vals))
	for i, s := range vals {
		if !s.Valid() {
			return nil, nil
		}
		if s.kind != vals[0].kind || (data != nil && s.kind != data.kind) {
			return nil, fmt.Errorf("%w: %s attribute value", ErrTypeMismatch, s.kind)
		}
		floats[i] = s.v
	}
	return ValueOf(vals[0].kind, floats...)
}

func (f *Field) Name() string { return f.name }

// Dims is the field's shape, nil for attribute-only fields
func (f *Field) Dims() *Dims { return f.dims }

// Attrs is the field's attribute list
func (f *Field) Attrs() *Attributes { return f.attrs }

// Data is the field's payload, nil for attribute-only fields
func (f *Field) Data() *Value { return f.data }

// HasData reports whether the field carries a payload
func (f *Field) HasData() bool { return f.data != nil }

// Kind is the payload's kind, KindNone without a payload
func (f *Field) Kind() Kind {
	if f.data == nil {
		return KindNone
	}
	return f.data.kind
}

// Len is the number of payload elements
func (f *Field) Len() int {
	if f.data == nil {
		return 0
	}
	return f.data.Len()
}

// SetData swaps in a new shape and payload, under NewField's rules
func (f *Field) SetData(dims *Dims, data *Value) error {
	if err := checkShape(f.name, dims, data); err != nil {
		return err
	}
	f.dims, f.data = dims, data
	return nil
}

// FillValue is the field's _FillValue when it matches the payload kind, the
// kind's default fill otherwise
func (f *Field) FillValue() Scalar {
	if s, err := f.attrs.Scalar(AttrFillValue); err == nil && s.kind == f.Kind() {
		return s
	}
	return f.Kind().FillValue()
}

// Reset overwrites every payload element with the field's fill value
func (f *Field) Reset() error {
	if f.data == nil {
		return nil
	}
	return f.data.SetAll(f.FillValue())
}

// At returns the element at the given coordinates
func (f *Field) At(coords ...int) (Scalar, error) {
	i, ok := f.dims.Flatten(coords...)
	if !ok || f.data == nil {
		return Scalar{}, fmt.Errorf("%w: coordinates %v in %s", ErrOutOfRange, coords, f.dims)
	}
	return f.data.At(i)
}

// Strings splits a Char field into one string per record, records running
// along the last dimension
func (f *Field) Strings() ([]string, error) {
	if f.Kind() != Char {
		return nil, fmt.Errorf("%w: field %q is %s, not text", ErrTypeMismatch, f.name, f.Kind())
	}
	text := f.data.data.([]byte)
	n := f.dims.Len()
	if n == 0 {
		return nil, nil
	}
	width := f.dims.At(n - 1).Length
	if n == 1 {
		s, err := f.data.Text()
		return []string{s}, err
	}

	var out []string
	for idx, ok := 0, true; ok; idx, ok = nextRecord(f.dims, idx) {
		v := &Value{kind: Char, data: text[idx : idx+width]}
		s, _ := v.Text()
		out = append(out, s)
	}
	return out, nil
}

// nextRecord advances the flat index idx of a record start to the next
// record, odometer style over every dimension but the last
func nextRecord(d *Dims, idx int) (int, bool) {
	coords, err := d.Unflatten(idx)
	if err != nil {
		return 0, false
	}
	n := d.Len()
	for k := n - 2; k >= 0; k-- {
		delta := make([]int, n)
		delta[k] = 1
		for j := k + 1; j < n-1; j++ {
			delta[j] = -coords[j]
		}
		if next, ok := d.Offset(idx, delta); ok {
			return next, true
		}
	}
	return 0, false
}

// Copy returns a deep copy of f
func (f *Field) Copy() *Field {
	cp := &Field{name: f.name, dims: f.dims.Copy(), attrs: f.attrs.Copy()}
	if f.data != nil {
		cp.data = f.data.Copy()
	}
	return cp
}

// Rename changes the field's name
func (f *Field) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidName)
	}
	f.name = name
	return nil
}

func (f *Field) String() string {
	if f.data == nil {
		return fmt.Sprintf("%s (%d attributes)", f.name, f.attrs.Len())
	}
	return fmt.Sprintf("%s %s%s (%d attributes)", f.Kind(), f.name, f.dims, f.attrs.Len())
}
