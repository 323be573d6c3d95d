package rsprod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesInsert(t *testing.T) {
	l, err := NewAttributes(TextAttribute("units", "K"), TextAttribute("long_name", "temperature"))
	require.NoError(t, err)
	assert.Equal(t, []string{"units", "long_name"}, l.Names())

	err = l.Insert(TextAttribute("units", "C"))
	assert.True(t, errors.Is(err, ErrDuplicateAttribute))
	units, err := l.Text("units")
	require.NoError(t, err)
	assert.Equal(t, "K", units)

	assert.True(t, errors.Is(l.Insert(&Attribute{Name: "empty"}), ErrMissingAttribute))
	_, err = NewAttributes(TextAttribute("a", "1"), TextAttribute("a", "2"))
	assert.True(t, errors.Is(err, ErrDuplicateAttribute))
}

func TestAttributesReplaceUpsert(t *testing.T) {
	inserted, replaced := &Attributes{}, &Attributes{}
	require.NoError(t, inserted.Insert(TextAttribute("units", "K")))
	require.NoError(t, replaced.Replace(TextAttribute("units", "K")))
	assert.Equal(t, inserted, replaced)
	assert.True(t, replaced.Exists("units"))
}

func TestAttributesReplaceKeepsPosition(t *testing.T) {
	l, err := NewAttributes(TextAttribute("a", "1"), TextAttribute("b", "2"), TextAttribute("c", "3"))
	require.NoError(t, err)
	require.NoError(t, l.SetScalar("b", NewScalar(Int32, 5)))
	assert.Equal(t, []string{"a", "b", "c"}, l.Names())

	s, err := l.Scalar("b")
	require.NoError(t, err)
	assert.Equal(t, NewScalar(Int32, 5), s)
}

func TestAttributesRemove(t *testing.T) {
	l, err := NewAttributes(TextAttribute("a", "1"), TextAttribute("b", "2"))
	require.NoError(t, err)
	l.Remove("missing")
	assert.Equal(t, 2, l.Len())
	l.Remove("a")
	assert.Equal(t, []string{"b"}, l.Names())
	assert.False(t, l.Exists("a"))
}

func TestAttributesLookup(t *testing.T) {
	l := &Attributes{}
	_, ok := l.Get("units")
	assert.False(t, ok)
	_, err := l.Text("units")
	assert.True(t, errors.Is(err, ErrMissingAttribute))
	_, err = l.Scalar("units")
	assert.True(t, errors.Is(err, ErrMissingAttribute))

	require.NoError(t, l.SetText("units", "K"))
	_, err = l.Scalar("units")
	require.NoError(t, err, "text attributes have a first element too")

	// names match exactly
	assert.False(t, l.Exists("Units"))
}

func TestAttributesCopy(t *testing.T) {
	v, err := ValueOf(Float32, 1, 2)
	require.NoError(t, err)
	l, err := NewAttributes(&Attribute{Name: AttrValidRange, Value: v})
	require.NoError(t, err)

	cp := l.Copy()
	a, _ := cp.Get(AttrValidRange)
	require.NoError(t, a.Value.Set(0, NewScalar(Float32, 10)))

	orig, err := l.Scalar(AttrValidRange)
	require.NoError(t, err)
	assert.Equal(t, 1.0, orig.Float64())
}

func TestNewAttribute(t *testing.T) {
	_, err := NewAttribute("", TextValue("x"))
	assert.True(t, errors.Is(err, ErrMissingAttribute))
	_, err = NewAttribute("x", nil)
	assert.True(t, errors.Is(err, ErrMissingAttribute))

	a, err := NewAttribute("title", TextValue("granule"))
	require.NoError(t, err)
	assert.Equal(t, `title = "granule" (char)`, a.String())
}
