package rsprod

import "fmt"

const (
	// Version is the current version of this library.
	Version = "0.3.0"
)

// Product is the in-memory form of one data file: global attributes plus an
// ordered set of uniquely named fields
type Product struct {
	Name   string
	attrs  *Attributes
	fields []*Field
}

// NewProduct creates an empty product
func NewProduct(name string) *Product {
	return &Product{Name: name, attrs: &Attributes{}}
}

// Attrs is the product's global attribute list
func (p *Product) Attrs() *Attributes { return p.attrs }

// Len is the number of fields in p
func (p *Product) Len() int { return len(p.fields) }

// Fields lists p's fields in order
func (p *Product) Fields() []*Field {
	out := make([]*Field, len(p.fields))
	copy(out, p.fields)
	return out
}

func (p *Product) index(name string) int {
	for i, f := range p.fields {
		if f.name == name {
			return i
		}
	}
	return -1
}

// Field looks up a field by name
func (p *Product) Field(name string) (*Field, bool) {
	i := p.index(name)
	if i < 0 {
		return nil, false
	}
	return p.fields[i], true
}

// Add appends f, failing if p already has a field of that name
func (p *Product) Add(f *Field) error {
	if p.index(f.name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateField, f.name)
	}
	p.fields = append(p.fields, f)
	return nil
}

// Replace swaps in f for its namesake, or appends it
func (p *Product) Replace(f *Field) {
	if i := p.index(f.name); i >= 0 {
		p.fields[i] = f
		return
	}
	p.fields = append(p.fields, f)
}

// Remove drops the field called name, if present
func (p *Product) Remove(name string) {
	if i := p.index(name); i >= 0 {
		p.fields = append(p.fields[:i], p.fields[i+1:]...)
	}
}

// Dimensions joins the dims of every field, in field order, into the set of
// all dimensions used by the product
func (p *Product) Dimensions() (*Dims, error) {
	all := &Dims{}
	for _, f := range p.fields {
		joined, err := Join(all, f.dims)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.name, err)
		}
		all = joined
	}
	return all, nil
}

// Unpack unpacks every field towards target. Either every field is unpacked
// or, on error, none is.
func (p *Product) Unpack(target Kind) error {
	fields := make([]*Field, len(p.fields))
	for i, f := range p.fields {
		cp := f.Copy()
		if err := cp.Unpack(target); err != nil {
			return err
		}
		fields[i] = cp
	}
	p.fields = fields
	return nil
}

// Copy returns a deep copy of p
func (p *Product) Copy() *Product {
	cp := &Product{Name: p.Name, attrs: p.attrs.Copy(), fields: make([]*Field, len(p.fields))}
	for i, f := range p.fields {
		cp.fields[i] = f.Copy()
	}
	return cp
}
