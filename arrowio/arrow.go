// Package arrowio converts fields to Apache Arrow columns and back.
//
// Each field becomes one column holding its elements in row-major order. The
// field's description (kind, shape and attributes) travels as JSON in the
// column's metadata, so a record read back with FromRecord rebuilds the
// original fields. Elements equal to a field's _FillValue are null in the
// column.
package arrowio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/qri-io/rsprod-go"
)

const (
	// FieldKey is the column metadata key holding the field description
	FieldKey = "rsprod:field"
	// ProductKey is the schema metadata key holding the product name
	ProductKey = "rsprod:product"
	// AttributesKey is the schema metadata key holding the product attributes
	AttributesKey = "rsprod:attributes"
)

// ErrNoColumns is returned when there are no fields with data to convert
var ErrNoColumns = errors.New("no columns")

// DataType is the arrow type of a column holding elements of kind k. Char and
// Byte share the uint8 type, the field metadata tells them apart.
func DataType(k rsprod.Kind) (arrow.DataType, error) {
	switch k {
	case rsprod.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case rsprod.Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case rsprod.Char, rsprod.Byte:
		return arrow.PrimitiveTypes.Uint8, nil
	case rsprod.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case rsprod.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	}
	return nil, fmt.Errorf("%w: no arrow type for %s", rsprod.ErrTypeMismatch, k)
}

// kindOf maps a column type to a kind, for columns without field metadata
func kindOf(dt arrow.DataType) (rsprod.Kind, error) {
	switch dt.ID() {
	case arrow.FLOAT32:
		return rsprod.Float32, nil
	case arrow.INT16:
		return rsprod.Int16, nil
	case arrow.UINT8:
		return rsprod.Byte, nil
	case arrow.FLOAT64:
		return rsprod.Float64, nil
	case arrow.INT32:
		return rsprod.Int32, nil
	}
	return rsprod.KindNone, fmt.Errorf("%w: unsupported arrow type %s", rsprod.ErrTypeMismatch, dt)
}

type appender[T rsprod.Element] interface {
	AppendValues(v []T, valid []bool)
	NewArray() arrow.Array
	Release()
}

func build[T rsprod.Element](b appender[T], data *rsprod.Value, valid []bool) (arrow.Array, error) {
	defer b.Release()
	vals, err := rsprod.Slice[T](data)
	if err != nil {
		return nil, err
	}
	b.AppendValues(vals, valid)
	return b.NewArray(), nil
}

// FieldArray builds the column of f. The caller owns the returned array and
// must release it.
func FieldArray(f *rsprod.Field, mem memory.Allocator) (arrow.Array, arrow.Field, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if !f.HasData() {
		return nil, arrow.Field{}, fmt.Errorf("%w: field %q has no data", ErrNoColumns, f.Name())
	}
	dt, err := DataType(f.Kind())
	if err != nil {
		return nil, arrow.Field{}, err
	}
	meta, err := json.Marshal(f.Meta())
	if err != nil {
		return nil, arrow.Field{}, err
	}

	valid := validity(f)
	var arr arrow.Array
	switch f.Kind() {
	case rsprod.Float32:
		arr, err = build[float32](array.NewFloat32Builder(mem), f.Data(), valid)
	case rsprod.Int16:
		arr, err = build[int16](array.NewInt16Builder(mem), f.Data(), valid)
	case rsprod.Char, rsprod.Byte:
		arr, err = build[uint8](array.NewUint8Builder(mem), f.Data(), valid)
	case rsprod.Float64:
		arr, err = build[float64](array.NewFloat64Builder(mem), f.Data(), valid)
	case rsprod.Int32:
		arr, err = build[int32](array.NewInt32Builder(mem), f.Data(), valid)
	}
	if err != nil {
		return nil, arrow.Field{}, err
	}

	return arr, arrow.Field{
		Name:     f.Name(),
		Type:     dt,
		Nullable: valid != nil,
		Metadata: arrow.MetadataFrom(map[string]string{FieldKey: string(meta)}),
	}, nil
}

// validity marks elements equal to the field's _FillValue as null. It is nil
// for text and for fields without a _FillValue.
func validity(f *rsprod.Field) []bool {
	if f.Kind() == rsprod.Char || !f.Attrs().Exists(rsprod.AttrFillValue) {
		return nil
	}
	fill := f.FillValue().Float64()
	xs := f.Data().Float64s()
	valid := make([]bool, len(xs))
	for i, x := range xs {
		valid[i] = !(x == fill || (math.IsNaN(x) && math.IsNaN(fill)))
	}
	return valid
}

// Record builds a record with one column per field. Every field needs data
// of the same length. The caller must release the record.
func Record(fields []*rsprod.Field, mem memory.Allocator) (arrow.Record, error) {
	return record(fields, nil, mem)
}

func record(fields []*rsprod.Field, meta *arrow.Metadata, mem memory.Allocator) (arrow.Record, error) {
	if len(fields) == 0 {
		return nil, ErrNoColumns
	}
	n := fields[0].Len()
	cols := make([]arrow.Array, 0, len(fields))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	schema := make([]arrow.Field, 0, len(fields))
	for _, f := range fields {
		if f.Len() != n {
			return nil, fmt.Errorf("%w: field %q has %d elements, want %d", rsprod.ErrInvalidDimension, f.Name(), f.Len(), n)
		}
		arr, af, err := FieldArray(f, mem)
		if err != nil {
			return nil, err
		}
		cols = append(cols, arr)
		schema = append(schema, af)
	}
	return array.NewRecord(arrow.NewSchema(schema, meta), cols, int64(n)), nil
}

// ProductRecord builds a record from the largest group of p's fields sharing
// identical dimensions, earliest group first on ties. The product name and
// attributes are kept in the schema metadata.
func ProductRecord(p *rsprod.Product, mem memory.Allocator) (arrow.Record, error) {
	var (
		order  []string
		groups = map[string][]*rsprod.Field{}
	)
	for _, f := range p.Fields() {
		if !f.HasData() {
			continue
		}
		key := f.Dims().String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	var best []*rsprod.Field
	for _, key := range order {
		if len(groups[key]) > len(best) {
			best = groups[key]
		}
	}

	pm, err := p.Meta()
	if err != nil {
		return nil, err
	}
	attrs, err := json.Marshal(pm.Attributes)
	if err != nil {
		return nil, err
	}
	meta := arrow.NewMetadata([]string{ProductKey, AttributesKey}, []string{p.Name, string(attrs)})
	return record(best, &meta, mem)
}

// FromRecord rebuilds one field per column of rec. Columns without field
// metadata become one dimensional fields named after the column, with a
// dimension of the same name.
func FromRecord(rec arrow.Record) ([]*rsprod.Field, error) {
	schema := rec.Schema()
	fields := make([]*rsprod.Field, 0, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		f, err := fromColumn(schema.Field(i), rec.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", schema.Field(i).Name, err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// ProductFromRecord rebuilds a product from a record made by ProductRecord
func ProductFromRecord(rec arrow.Record) (*rsprod.Product, error) {
	md := rec.Schema().Metadata()
	name, _ := md.GetValue(ProductKey)
	p := rsprod.NewProduct(name)
	if s, ok := md.GetValue(AttributesKey); ok {
		var attrs []rsprod.AttributeMeta
		if err := json.Unmarshal([]byte(s), &attrs); err != nil {
			return nil, err
		}
		for _, am := range attrs {
			a, err := am.Attribute()
			if err != nil {
				return nil, err
			}
			if err := p.Attrs().Insert(a); err != nil {
				return nil, err
			}
		}
	}

	fields, err := FromRecord(rec)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := p.Add(f); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func fromColumn(af arrow.Field, col arrow.Array) (*rsprod.Field, error) {
	fm, err := columnMeta(af, col)
	if err != nil {
		return nil, err
	}

	var buf interface{}
	switch c := col.(type) {
	case *array.Float32:
		buf = c.Float32Values()
	case *array.Int16:
		buf = c.Int16Values()
	case *array.Uint8:
		buf = c.Uint8Values()
	case *array.Float64:
		buf = c.Float64Values()
	case *array.Int32:
		buf = c.Int32Values()
	default:
		return nil, fmt.Errorf("%w: unsupported arrow type %s", rsprod.ErrTypeMismatch, col.DataType())
	}

	data, err := rsprod.CopyValue(fm.Kind, col.Len(), buf)
	if err != nil {
		return nil, err
	}
	f, err := fm.Field(data)
	if err != nil {
		return nil, err
	}
	if col.NullN() > 0 {
		fill := f.FillValue()
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				if err := data.Set(i, fill); err != nil {
					return nil, err
				}
			}
		}
	}
	return f, nil
}

func columnMeta(af arrow.Field, col arrow.Array) (rsprod.FieldMeta, error) {
	if s, ok := af.Metadata.GetValue(FieldKey); ok {
		var fm rsprod.FieldMeta
		err := json.Unmarshal([]byte(s), &fm)
		return fm, err
	}
	k, err := kindOf(col.DataType())
	if err != nil {
		return rsprod.FieldMeta{}, err
	}
	return rsprod.FieldMeta{
		Name:  af.Name,
		Kind:  k,
		Shape: []rsprod.Dimension{{Name: af.Name, Length: col.Len()}},
		Order: rsprod.OrderC,
	}, nil
}

// WriteIPC writes recs to w as an arrow IPC stream. Every record must share
// the first record's schema.
func WriteIPC(w io.Writer, recs ...arrow.Record) error {
	if len(recs) == 0 {
		return ErrNoColumns
	}
	wr := ipc.NewWriter(w, ipc.WithSchema(recs[0].Schema()))
	for _, rec := range recs {
		if err := wr.Write(rec); err != nil {
			wr.Close()
			return err
		}
	}
	return wr.Close()
}

// ReadIPC reads every record of the arrow IPC stream in r. The caller must
// release the records.
func ReadIPC(r io.Reader) ([]arrow.Record, error) {
	rdr, err := ipc.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer rdr.Release()

	var recs []arrow.Record
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		for _, rec := range recs {
			rec.Release()
		}
		return nil, err
	}
	return recs, nil
}
