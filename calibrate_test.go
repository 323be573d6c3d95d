package rsprod

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrateCastOnly(t *testing.T) {
	src, err := ValueOf(Float64, 1.4, -999, 70000)
	require.NoError(t, err)

	out, err := Calibrate(src, Int16, Transform{
		FillIn:  NewScalar(Float64, -999),
		FillOut: Int16.FillValue(),
	})
	require.NoError(t, err)
	got, err := Slice[int16](out)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -999, math.MaxInt16}, got)

	s, err := src.At(0)
	require.NoError(t, err)
	assert.Equal(t, 1.4, s.Float64(), "source is left as is")
}

func TestCalibrateType1(t *testing.T) {
	src, err := ValueOf(Int16, 10, 20, -1)
	require.NoError(t, err)

	out, err := Calibrate(src, Float32, Transform{
		Mode:    Type1,
		Scale:   NewScalar(Int16, 3),
		Offset:  NewScalar(Int16, 1),
		FillIn:  NewScalar(Int16, -1),
		FillOut: Float32.FillValue(),
	})
	require.NoError(t, err)
	got, err := Slice[float32](out)
	require.NoError(t, err)
	assert.Equal(t, []float32{31, 61, -999}, got)

	_, err = Calibrate(src, Float32, Transform{Mode: Type1, Scale: NewScalar(Float32, 3), Offset: NewScalar(Float32, 1)})
	assert.True(t, errors.Is(err, ErrTypeMismatch), "type1 parameters are in the source kind")
}

func TestCalibrateType2(t *testing.T) {
	src, err := ValueOf(Int16, 10, 20, 0)
	require.NoError(t, err)

	out, err := Calibrate(src, Float64, Transform{
		Mode:    Type2,
		Scale:   NewScalar(Float64, 0.5),
		Offset:  NewScalar(Float64, 100),
		FillIn:  NewScalar(Int16, 0),
		FillOut: Float64.FillValue(),
	})
	require.NoError(t, err)
	got, err := Slice[float64](out)
	require.NoError(t, err)
	assert.Equal(t, []float64{105, 110, -999}, got)

	_, err = Calibrate(src, Float64, Transform{Mode: Type2, Scale: NewScalar(Int16, 1), Offset: NewScalar(Int16, 0)})
	assert.True(t, errors.Is(err, ErrTypeMismatch), "type2 parameters are in the destination kind")
}

func TestCalibrateInverse(t *testing.T) {
	src, err := ValueOf(Float32, 1, 2.5)
	require.NoError(t, err)

	out, err := Calibrate(src, Int32, Transform{
		Mode:    Type1,
		Inverse: true,
		Scale:   NewScalar(Float32, 0.5),
		Offset:  NewScalar(Float32, 1),
	})
	require.NoError(t, err)
	got, err := Slice[int32](out)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 3}, got)

	_, err = Calibrate(src, Int32, Transform{Mode: Type1, Inverse: true, Scale: Float32.Zero(), Offset: Float32.Zero()})
	assert.Equal(t, ErrZeroScale, err)
}

func TestCalibrateNaNToInteger(t *testing.T) {
	src, err := ValueOf(Float32, math.NaN(), 4)
	require.NoError(t, err)

	out, err := Calibrate(src, Int16, Transform{FillIn: NewScalar(Float32, -999), FillOut: Int16.FillValue()})
	require.NoError(t, err)
	got, err := Slice[int16](out)
	require.NoError(t, err)
	assert.Equal(t, []int16{-999, 4}, got)
}

func TestCalibrateType2NaN(t *testing.T) {
	src, err := ValueOf(Float32, 0, 7, math.NaN())
	require.NoError(t, err)
	scale := Transform{Mode: Type2, Scale: NewScalar(Int16, 2), Offset: Int16.Zero()}

	withFill := scale
	withFill.FillIn, withFill.FillOut = NewScalar(Float32, math.NaN()), Int16.FillValue()
	out, err := Calibrate(src, Int16, withFill)
	require.NoError(t, err)
	got, err := Slice[int16](out)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 14, -999}, got, "zeros are not fill")

	noFillIn := scale
	noFillIn.FillOut = Int16.FillValue()
	out, err = Calibrate(src, Int16, noFillIn)
	require.NoError(t, err)
	got, err = Slice[int16](out)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 14, -999}, got)

	inexact := scale
	inexact.FillIn, inexact.FillOut = NewScalar(Float32, 0.25), Int16.FillValue()
	src, err = ValueOf(Float32, 0.25, 0, 3)
	require.NoError(t, err)
	out, err = Calibrate(src, Int16, inexact)
	require.NoError(t, err)
	got, err = Slice[int16](out)
	require.NoError(t, err)
	assert.Equal(t, []int16{-999, 0, 6}, got, "fills the cast can't hold are matched before it")
}

func TestCalibrateErrors(t *testing.T) {
	text := TextValue("abc")
	_, err := Calibrate(text, Int16, Transform{})
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
	_, err = Calibrate(text, Char, Transform{Mode: Type1, Scale: Char.Unity(), Offset: Char.Zero()})
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))

	cp, err := Calibrate(text, Char, Transform{})
	require.NoError(t, err)
	assert.True(t, cp.Equal(text))

	src, err := ValueOf(Float32, 1)
	require.NoError(t, err)
	_, err = Calibrate(src, Int16, Transform{FillIn: NewScalar(Int16, 1), FillOut: Int16.FillValue()})
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	_, err = Calibrate(src, Int16, Transform{Mode: Mode(7)})
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
