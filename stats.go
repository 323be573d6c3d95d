package rsprod

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stats summarizes the physical values of a field
type Stats struct {
	// Count of valid elements
	Count int `json:"count"`
	// Fill counts elements equal to the fill value or NaN
	Fill int     `json:"fill"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	// ArgMin and ArgMax are flat element indices, -1 without valid elements
	ArgMin int `json:"argmin"`
	ArgMax int `json:"argmax"`
}

// Stats unpacks a copy of f and summarizes the elements that are neither
// fill values nor NaN. f is not modified.
func (f *Field) Stats() (Stats, error) {
	if f.data == nil {
		return Stats{}, fmt.Errorf("%w: field %q has no data", ErrOutOfRange, f.name)
	}
	if f.Kind() == Char {
		return Stats{}, fmt.Errorf("%w: field %q is text", ErrTypeMismatch, f.name)
	}

	cp := f.Copy()
	if err := cp.Unpack(KindNone); err != nil {
		return Stats{}, err
	}

	var fill Scalar
	if cp.attrs.Exists(AttrFillValue) {
		fill = cp.FillValue()
	}

	xs := cp.data.Float64s()
	idx := make([]int, 0, len(xs))
	vals := make([]float64, 0, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) || (fill.Valid() && x == fill.v) {
			continue
		}
		idx = append(idx, i)
		vals = append(vals, x)
	}

	s := Stats{Count: len(vals), Fill: len(xs) - len(vals), ArgMin: -1, ArgMax: -1}
	if len(vals) == 0 {
		s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		return s, nil
	}
	s.ArgMin, s.ArgMax = idx[floats.MinIdx(vals)], idx[floats.MaxIdx(vals)]
	s.Min, s.Max = floats.Min(vals), floats.Max(vals)
	s.Mean = floats.Sum(vals) / float64(len(vals))
	return s, nil
}
