package rsprod

import "errors"

var (
	// ErrAllocation is returned when a value buffer cannot be sized
	ErrAllocation = errors.New("allocation failed")
	// ErrTypeMismatch is returned when a value is accessed or combined as the
	// wrong kind
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrOutOfRange is returned for bad element indices and coordinates
	ErrOutOfRange = errors.New("out of range")
	// ErrInvalidDimension is returned for zero-length, duplicate or misplaced
	// dimensions
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrMultipleUnlimited is returned when a second unlimited dimension is
	// added to a set
	ErrMultipleUnlimited = errors.New("multiple unlimited dimensions")
	// ErrUnsupportedConversion is returned for kind pairs that can't convert
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrCalibrationAttributeMismatch is returned when scale_factor and
	// add_offset don't share a kind
	ErrCalibrationAttributeMismatch = errors.New("scale_factor and add_offset kinds differ")
	// ErrAlreadyPacked is returned when packing a field that already carries
	// scale_factor or add_offset
	ErrAlreadyPacked = errors.New("field is already packed")
	// ErrMissingAttribute is returned when a required attribute is absent
	ErrMissingAttribute = errors.New("missing attribute")
	// ErrDuplicateAttribute is returned by Attributes.Insert for a name that
	// is already present
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	// ErrDuplicateField is returned when a product already holds a field name
	ErrDuplicateField = errors.New("duplicate field")
	// ErrInvalidName is returned for an empty field name
	ErrInvalidName = errors.New("invalid name")
	// ErrZeroScale is returned when packing with a scale factor of zero
	ErrZeroScale = errors.New("zero scale factor")
)
