package rsprod

import "fmt"

// Conventional attribute names
const (
	AttrScaleFactor  = "scale_factor"
	AttrAddOffset    = "add_offset"
	AttrFillValue    = "_FillValue"
	AttrValidMin     = "valid_min"
	AttrValidMax     = "valid_max"
	AttrValidRange   = "valid_range"
	AttrLongName     = "long_name"
	AttrStandardName = "standard_name"
	AttrUnits        = "units"
	AttrCoordinates  = "coordinates"
	AttrGridMapping  = "grid_mapping"
)

// Attribute is a named value attached to a field or a product
type Attribute struct {
	Name  string
	Value *Value
}

// NewAttribute pairs name with v. The attribute owns v from here on.
func NewAttribute(name string, v *Value) (*Attribute, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty attribute name", ErrMissingAttribute)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: attribute %q has no value", ErrMissingAttribute, name)
	}
	return &Attribute{Name: name, Value: v}, nil
}

// TextAttribute builds a Char attribute
func TextAttribute(name, text string) *Attribute {
	return &Attribute{Name: name, Value: TextValue(text)}
}

// Copy returns a deep copy of a
func (a *Attribute) Copy() *Attribute {
	return &Attribute{Name: a.Name, Value: a.Value.Copy()}
}

func (a *Attribute) String() string {
	return fmt.Sprintf("%s = %s (%s)", a.Name, a.Value, a.Value.Kind())
}

// Attributes is an insertion-ordered list of uniquely named attributes.
// Replace keeps a replaced attribute at its original position. The zero
// value is an empty list.
type Attributes struct {
	list []*Attribute
}

// NewAttributes creates a list holding attrs, rejecting duplicate names
func NewAttributes(attrs ...*Attribute) (*Attributes, error) {
	l := &Attributes{}
	for _, a := range attrs {
		if err := l.Insert(a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Len is the number of attributes in l
func (l *Attributes) Len() int {
	if l == nil {
		return 0
	}
	return len(l.list)
}

// At returns the i'th attribute in list order
func (l *Attributes) At(i int) *Attribute { return l.list[i] }

// Names lists attribute names in list order
func (l *Attributes) Names() []string {
	names := make([]string, l.Len())
	for i := range names {
		names[i] = l.list[i].Name
	}
	return names
}

func (l *Attributes) index(name string) int {
	if l == nil {
		return -1
	}
	for i, a := range l.list {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// Get looks up an attribute by exact name
func (l *Attributes) Get(name string) (*Attribute, bool) {
	i := l.index(name)
	if i < 0 {
		return nil, false
	}
	return l.list[i], true
}

// Exists reports whether an attribute called name is in l
func (l *Attributes) Exists(name string) bool {
	return l.index(name) >= 0
}

// Insert appends a. It fails if the name is already taken, use Replace to
// upsert.
func (l *Attributes) Insert(a *Attribute) error {
	if a == nil || a.Name == "" || a.Value == nil {
		return fmt.Errorf("%w: incomplete attribute", ErrMissingAttribute)
	}
	if l.Exists(a.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateAttribute, a.Name)
	}
	l.list = append(l.list, a)
	return nil
}

// Replace swaps in a for any attribute of the same name, keeping its
// position. Without a namesake it behaves like Insert.
func (l *Attributes) Replace(a *Attribute) error {
	if a == nil || a.Name == "" || a.Value == nil {
		return fmt.Errorf("%w: incomplete attribute", ErrMissingAttribute)
	}
	if i := l.index(a.Name); i >= 0 {
		l.list[i] = a
		return nil
	}
	l.list = append(l.list, a)
	return nil
}

// Remove deletes the attribute called name. Missing names are ignored.
func (l *Attributes) Remove(name string) {
	i := l.index(name)
	if i < 0 {
		return
	}
	l.list = append(l.list[:i], l.list[i+1:]...)
}

// Copy returns a deep copy of l
func (l *Attributes) Copy() *Attributes {
	cp := &Attributes{list: make([]*Attribute, l.Len())}
	for i := range cp.list {
		cp.list[i] = l.list[i].Copy()
	}
	return cp
}

// SetText upserts a Char attribute
func (l *Attributes) SetText(name, text string) error {
	return l.Replace(TextAttribute(name, text))
}

// Text returns the Char attribute called name
func (l *Attributes) Text(name string) (string, error) {
	a, ok := l.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.Value.Text()
}

// Scalar returns the first element of the attribute called name
func (l *Attributes) Scalar(name string) (Scalar, error) {
	a, ok := l.Get(name)
	if !ok {
		return Scalar{}, fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	return a.Value.At(0)
}

// SetScalar upserts a single-element attribute holding s
func (l *Attributes) SetScalar(name string, s Scalar) error {
	v, err := ValueOf(s.Kind(), s.Float64())
	if err != nil {
		return err
	}
	return l.Replace(&Attribute{Name: name, Value: v})
}
