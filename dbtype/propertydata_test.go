package dbtype

import (
	"testing"

	"github.com/mutgos/dbcore/dbid"
	"github.com/stretchr/testify/assert"
)

func TestPropertyData_StringRoundTrip(t *testing.T) {
	p, err := SetFromString(VariantString, "hello")
	assert.NoError(t, err)

	v, ok := p.StringValue()
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.Equal(t, "hello", p.ToString())
}

func TestPropertyData_BooleanParsing(t *testing.T) {
	truthy := []string{"t", "TRUE", "y", "Yes"}
	falsy := []string{"f", "FALSE", "n", "No"}

	for _, s := range truthy {
		p, err := SetFromString(VariantBoolean, s)
		assert.NoError(t, err)

		v, _ := p.BooleanValue()
		assert.True(t, v, s)
	}

	for _, s := range falsy {
		p, err := SetFromString(VariantBoolean, s)
		assert.NoError(t, err)

		v, _ := p.BooleanValue()
		assert.False(t, v, s)
	}

	_, err := SetFromString(VariantBoolean, "maybe")
	assert.Error(t, err)
}

func TestPropertyData_IDCannotParseFromString(t *testing.T) {
	_, err := SetFromString(VariantID, "#1-1")
	assert.Error(t, err)
}

func TestPropertyData_EqualsAndCompare(t *testing.T) {
	a := NewInteger(5)
	b := NewInteger(5)
	c := NewInteger(6)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.Negative(t, a.Compare(c))
	assert.Positive(t, c.Compare(a))
}

func TestPropertyData_CompareOrdersByVariantFirst(t *testing.T) {
	s := NewString("a")
	i := NewInteger(0)

	assert.Negative(t, s.Compare(i))
}

func TestPropertyData_Clone(t *testing.T) {
	doc, err := NewDocument([]string{"a", "b"})
	assert.NoError(t, err)

	clone := doc.Clone()
	original, _ := doc.DocumentValue()
	cloned, _ := clone.DocumentValue()

	assert.Equal(t, original, cloned)
	assert.Equal(t, VariantDocument, clone.Variant())
}

func TestPropertyData_Document_CapsEnforced(t *testing.T) {
	_, err := NewDocument(make([]string, MaxDocumentLines+1))
	assert.Error(t, err)

	_, err = NewDocument([]string{string(make([]byte, MaxDocumentLineLength+1))})
	assert.Error(t, err)
}

func TestPropertyData_Set_HomogeneityEnforced(t *testing.T) {
	_, err := NewSet([]PropertyData{NewInteger(1), NewString("x")})
	assert.Error(t, err)

	_, err = NewSet([]PropertyData{NewInteger(1), NewInteger(2)})
	assert.NoError(t, err)
}

func TestPropertyData_Set_RejectsNestedDocumentOrSet(t *testing.T) {
	doc, _ := NewDocument([]string{"a"})

	_, err := NewSet([]PropertyData{doc})
	assert.Error(t, err)

	inner, err := NewSet([]PropertyData{NewInteger(1)})
	assert.NoError(t, err)

	_, err = NewSet([]PropertyData{inner})
	assert.Error(t, err)
}

func TestPropertyData_ShortStringTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}

	p := NewString(long)
	short := p.ShortString()

	assert.LessOrEqual(t, len(short), shortStringCap+3)
	assert.Contains(t, short, "...")
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	testCases := []PropertyData{
		NewString("hello"),
		NewInteger(-42),
		NewFloat(3.14),
		NewBoolean(true),
		NewID(dbid.New(2, 5)),
	}

	for _, p := range testCases {
		data, err := Marshal(p)
		assert.NoError(t, err)

		got, err := Unmarshal(data)
		assert.NoError(t, err)
		assert.True(t, p.Equals(got))
	}
}

func TestMarshalUnmarshal_Set(t *testing.T) {
	set, err := NewSet([]PropertyData{NewInteger(1), NewInteger(2), NewInteger(3)})
	assert.NoError(t, err)

	data, err := Marshal(set)
	assert.NoError(t, err)

	got, err := Unmarshal(data)
	assert.NoError(t, err)
	assert.True(t, set.Equals(got))
}

func TestPropertyData_MemUsed(t *testing.T) {
	assert.Positive(t, NewString("hello").MemUsed())
	assert.Positive(t, NewInteger(1).MemUsed())
}
