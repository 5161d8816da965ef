package dbtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyDirectory_SetGet(t *testing.T) {
	d := NewPropertyDirectory()

	assert.NoError(t, d.Set("a/b/c", NewString("hello")))

	v, ok, err := d.Get("a/b/c")
	assert.NoError(t, err)
	assert.True(t, ok)

	s, _ := v.StringValue()
	assert.Equal(t, "hello", s)
}

func TestPropertyDirectory_GetMissing(t *testing.T) {
	d := NewPropertyDirectory()

	_, ok, err := d.Get("missing")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPropertyDirectory_GetNonexistentIntermediate(t *testing.T) {
	d := NewPropertyDirectory()

	_, _, err := d.Get("a/b/c")
	assert.Error(t, err)
}

func TestPropertyDirectory_LeadingAndDuplicateSeparatorsTolerated(t *testing.T) {
	d := NewPropertyDirectory()

	assert.NoError(t, d.Set("//a//b/", NewInteger(7)))

	v, ok, err := d.Get("a/b")
	assert.NoError(t, err)
	assert.True(t, ok)

	i, _ := v.IntegerValue()
	assert.EqualValues(t, 7, i)
}

func TestPropertyDirectory_EmptyPathRejected(t *testing.T) {
	d := NewPropertyDirectory()

	err := d.Set("", NewString("x"))
	assert.Error(t, err)
}

func TestPropertyDirectory_DeleteRemovesValue(t *testing.T) {
	d := NewPropertyDirectory()
	assert.NoError(t, d.Set("x", NewInteger(1)))
	assert.NoError(t, d.Delete("x"))

	_, ok, err := d.Get("x")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPropertyDirectory_DeleteRemovesSubtree(t *testing.T) {
	d := NewPropertyDirectory()
	assert.NoError(t, d.Set("a/b", NewInteger(1)))
	assert.NoError(t, d.Delete("a"))

	_, _, err := d.Get("a/b")
	assert.Error(t, err)
}

func TestPropertyDirectory_FirstLastNextPrevious(t *testing.T) {
	d := NewPropertyDirectory()
	assert.NoError(t, d.Set("b", NewInteger(2)))
	assert.NoError(t, d.Set("a", NewInteger(1)))
	assert.NoError(t, d.Set("c", NewInteger(3)))

	first, ok := d.First()
	assert.True(t, ok)
	assert.Equal(t, "a", first)

	last, ok := d.Last()
	assert.True(t, ok)
	assert.Equal(t, "c", last)

	next, ok := d.Next("a")
	assert.True(t, ok)
	assert.Equal(t, "b", next)

	_, ok = d.Next("c")
	assert.False(t, ok)

	prev, ok := d.Previous("c")
	assert.True(t, ok)
	assert.Equal(t, "b", prev)

	_, ok = d.Previous("a")
	assert.False(t, ok)
}

func TestPropertyDirectory_Clear(t *testing.T) {
	d := NewPropertyDirectory()
	assert.NoError(t, d.Set("a", NewInteger(1)))

	d.Clear()

	_, ok := d.First()
	assert.False(t, ok)
}

func TestPropertyDirectory_ToString(t *testing.T) {
	d := NewPropertyDirectory()
	assert.NoError(t, d.Set("a", NewInteger(1)))
	assert.NoError(t, d.Set("b/c", NewString("hi")))

	s := d.ToString()
	assert.Contains(t, s, "a = 1")
	assert.Contains(t, s, "b/")
}
