package rsprod

import (
	"fmt"
	"math"
	"strings"
)

// Append is the Insert position meaning "after the last dimension"
const Append = -1

// Dimension is a named axis of a field's data
type Dimension struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
	// An unlimited dimension may grow after creation. There is at most one
	// per set and it is always the first.
	Unlimited bool `json:"unlimited,omitempty"`
}

func (d Dimension) String() string {
	if d.Unlimited {
		return fmt.Sprintf("%s = UNLIMITED (%d)", d.Name, d.Length)
	}
	return fmt.Sprintf("%s = %d", d.Name, d.Length)
}

// Dims is an ordered set of named dimensions laid out in row-major ("C")
// order: the last dimension varies fastest.
type Dims struct {
	dims  []Dimension
	total int
}

// NewDims builds a set from parallel name, length and unlimited slices.
// unlimited may be nil when no dimension is unlimited.
func NewDims(names []string, lengths []int, unlimited []bool) (*Dims, error) {
	if len(names) != len(lengths) || (unlimited != nil && len(unlimited) != len(names)) {
		return nil, fmt.Errorf("%w: %d names, %d lengths, %d unlimited flags", ErrInvalidDimension, len(names), len(lengths), len(unlimited))
	}
	nunlimited := 0
	for _, u := range unlimited {
		if u {
			nunlimited++
		}
	}
	if nunlimited > 1 {
		return nil, fmt.Errorf("%w: %d unlimited flags", ErrMultipleUnlimited, nunlimited)
	}
	d := &Dims{}
	for i, name := range names {
		dim := Dimension{Name: name, Length: lengths[i]}
		if unlimited != nil {
			dim.Unlimited = unlimited[i]
		}
		added, err := d.Insert(Append, dim)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, fmt.Errorf("%w: repeated dimension %q", ErrInvalidDimension, name)
		}
	}
	return d, nil
}

// Len is the number of dimensions in the set
func (d *Dims) Len() int {
	if d == nil {
		return 0
	}
	return len(d.dims)
}

// Total is the number of elements spanned by the set, zero for an empty set
func (d *Dims) Total() int {
	if d == nil {
		return 0
	}
	return d.total
}

// At returns the i'th dimension
func (d *Dims) At(i int) Dimension { return d.dims[i] }

// Index returns the position of the dimension called name, or -1
func (d *Dims) Index(name string) int {
	for i := 0; i < d.Len(); i++ {
		if d.dims[i].Name == name {
			return i
		}
	}
	return -1
}

// Names lists dimension names in order
func (d *Dims) Names() []string {
	names := make([]string, d.Len())
	for i := range names {
		names[i] = d.dims[i].Name
	}
	return names
}

// Lengths lists dimension lengths in order
func (d *Dims) Lengths() []int {
	lengths := make([]int, d.Len())
	for i := range lengths {
		lengths[i] = d.dims[i].Length
	}
	return lengths
}

// Unlimited returns the unlimited dimension, if the set has one
func (d *Dims) Unlimited() (Dimension, bool) {
	if d.Len() > 0 && d.dims[0].Unlimited {
		return d.dims[0], true
	}
	return Dimension{}, false
}

// Insert adds dim at position pos, or at the end for pos == Append. A dim
// whose name is already in the set is skipped and Insert returns false.
func (d *Dims) Insert(pos int, dim Dimension) (bool, error) {
	if dim.Name == "" {
		return false, fmt.Errorf("%w: unnamed dimension", ErrInvalidDimension)
	}
	if dim.Length <= 0 {
		return false, fmt.Errorf("%w: dimension %q has length %d", ErrInvalidDimension, dim.Name, dim.Length)
	}
	if d.Index(dim.Name) >= 0 {
		return false, nil
	}
	if d.Len() > 0 && d.total > math.MaxInt/dim.Length {
		return false, fmt.Errorf("%w: dimension %q overflows %s", ErrInvalidDimension, dim.Name, d)
	}
	if pos == Append {
		pos = len(d.dims)
	}
	if pos < 0 || pos > len(d.dims) {
		return false, fmt.Errorf("%w: insert position %d in %d dimensions", ErrOutOfRange, pos, len(d.dims))
	}
	if dim.Unlimited {
		if u, ok := d.Unlimited(); ok {
			return false, fmt.Errorf("%w: %q and %q", ErrMultipleUnlimited, u.Name, dim.Name)
		}
		if pos != 0 {
			return false, fmt.Errorf("%w: unlimited dimension %q must come first", ErrInvalidDimension, dim.Name)
		}
	} else if pos == 0 && len(d.dims) > 0 && d.dims[0].Unlimited {
		return false, fmt.Errorf("%w: %q can't precede unlimited dimension %q", ErrInvalidDimension, dim.Name, d.dims[0].Name)
	}

	d.dims = append(d.dims, Dimension{})
	copy(d.dims[pos+1:], d.dims[pos:])
	d.dims[pos] = dim
	d.recount()
	return true, nil
}

func (d *Dims) recount() {
	if len(d.dims) == 0 {
		d.total = 0
		return
	}
	d.total = 1
	for _, dim := range d.dims {
		d.total *= dim.Length
	}
}

// Copy returns a deep copy of d
func (d *Dims) Copy() *Dims {
	if d == nil {
		return nil
	}
	cp := &Dims{dims: make([]Dimension, len(d.dims)), total: d.total}
	copy(cp.dims, d.dims)
	return cp
}

// Equal reports structural equality: names, lengths, unlimited flags and
// element totals
func (d *Dims) Equal(o *Dims) bool {
	if d.Len() != o.Len() || d.Total() != o.Total() {
		return false
	}
	for i := 0; i < d.Len(); i++ {
		if d.dims[i] != o.dims[i] {
			return false
		}
	}
	return true
}

// Flatten maps per-dimension coordinates to a row-major element index.
// ok is false when the coordinate count is wrong or any coordinate is
// outside its dimension.
func (d *Dims) Flatten(coords ...int) (index int, ok bool) {
	if d.Len() == 0 || len(coords) != d.Len() {
		return 0, false
	}
	for i, c := range coords {
		if c < 0 || c >= d.dims[i].Length {
			return 0, false
		}
		index = index*d.dims[i].Length + c
	}
	return index, true
}

// Unflatten is the inverse of Flatten
func (d *Dims) Unflatten(index int) ([]int, error) {
	if index < 0 || index >= d.Total() {
		return nil, fmt.Errorf("%w: element %d of %d", ErrOutOfRange, index, d.Total())
	}
	coords := make([]int, d.Len())
	for i := d.Len() - 1; i >= 0; i-- {
		coords[i] = index % d.dims[i].Length
		index /= d.dims[i].Length
	}
	return coords, nil
}

// Offset unflattens base, adds delta coordinate-wise and flattens again. ok
// is false when base is out of range or the moved coordinates leave the set.
func (d *Dims) Offset(base int, delta []int) (int, bool) {
	if len(delta) != d.Len() {
		return 0, false
	}
	coords, err := d.Unflatten(base)
	if err != nil {
		return 0, false
	}
	for i := range coords {
		coords[i] += delta[i]
	}
	return d.Flatten(coords...)
}

func (d *Dims) String() string {
	parts := make([]string, d.Len())
	for i := range parts {
		parts[i] = d.dims[i].String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Join returns a new set holding every dimension of dst followed by the
// dimensions of src whose names dst lacks. An unlimited dimension coming from
// src moves to the front. Either argument may be nil.
func Join(dst, src *Dims) (*Dims, error) {
	out := dst.Copy()
	if out == nil {
		out = &Dims{}
	}
	for i := 0; i < src.Len(); i++ {
		dim := src.dims[i]
		pos := Append
		if dim.Unlimited {
			pos = 0
		}
		if _, err := out.Insert(pos, dim); err != nil {
			return nil, err
		}
	}
	return out, nil
}
