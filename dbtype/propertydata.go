// Package dbtype implements the tagged-value and entity data model: a
// central PropertyData dispatcher, the recursive PropertyDirectory map,
// ApplicationProperties, Security/PropertySecurity, Lock, and the Entity
// type hierarchy.
package dbtype

import (
	"strconv"
	"strings"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/vmihailenco/msgpack/v5"
)

// Variant names the tagged-union discriminant of a PropertyData value.
type Variant uint8

const (
	// VariantString holds a UTF-8 string.
	VariantString Variant = iota
	// VariantInteger holds a signed 64-bit integer.
	VariantInteger
	// VariantFloat holds an IEEE-754 double.
	VariantFloat
	// VariantBoolean holds a bool.
	VariantBoolean
	// VariantID holds an Id reference.
	VariantID
	// VariantDocument holds an ordered list of lines.
	VariantDocument
	// VariantSet holds a homogeneous collection of any variant except
	// VariantDocument and VariantSet; NewSet rejects sets of sets.
	VariantSet
)

// String renders the variant's name, used in diagnostics and error
// messages.
func (v Variant) String() string {
	switch v {
	case VariantString:
		return "string"
	case VariantInteger:
		return "integer"
	case VariantFloat:
		return "float"
	case VariantBoolean:
		return "boolean"
	case VariantID:
		return "id"
	case VariantDocument:
		return "document"
	case VariantSet:
		return "set"
	default:
		return "unknown"
	}
}

// Document size caps (spec §3.3: "max-lines cap, max-line-length cap").
const (
	MaxDocumentLines      = 10_000
	MaxDocumentLineLength = 4_096
	// MaxSetSize bounds a set's cardinality (spec §3.3: "size cap from
	// config"); kept as a constant here since this core has no separate
	// runtime-tunable config surface for it.
	MaxSetSize = 10_000
	// shortStringCap is the short to_string truncation length (spec §4.2:
	// "capped ~60 chars with truncation marker").
	shortStringCap = 60
)

// PropertyData is a tagged-union value: exactly one of the typed fields
// below is meaningful, selected by Variant.
type PropertyData struct {
	variant Variant

	strVal  string
	intVal  int64
	fltVal  float64
	boolVal bool
	idVal   dbid.Id
	docVal  []string
	setVal  []PropertyData
}

// NewString builds a string-variant PropertyData.
func NewString(s string) PropertyData { return PropertyData{variant: VariantString, strVal: s} }

// NewInteger builds an integer-variant PropertyData.
func NewInteger(i int64) PropertyData { return PropertyData{variant: VariantInteger, intVal: i} }

// NewFloat builds a float-variant PropertyData.
func NewFloat(f float64) PropertyData { return PropertyData{variant: VariantFloat, fltVal: f} }

// NewBoolean builds a boolean-variant PropertyData.
func NewBoolean(b bool) PropertyData { return PropertyData{variant: VariantBoolean, boolVal: b} }

// NewID builds an id-variant PropertyData.
func NewID(id dbid.Id) PropertyData { return PropertyData{variant: VariantID, idVal: id} }

// NewDocument builds a document-variant PropertyData from lines, rejecting
// inputs that exceed the line-count or line-length caps.
func NewDocument(lines []string) (PropertyData, error) {
	if len(lines) > MaxDocumentLines {
		return PropertyData{}, dberrors.BadArguments("document has %d lines, exceeds cap of %d", len(lines), MaxDocumentLines)
	}

	cp := make([]string, len(lines))

	for i, l := range lines {
		if len(l) > MaxDocumentLineLength {
			return PropertyData{}, dberrors.BadArguments("document line %d exceeds cap of %d bytes", i, MaxDocumentLineLength)
		}

		cp[i] = l
	}

	return PropertyData{variant: VariantDocument, docVal: cp}, nil
}

// NewSet builds a set-variant PropertyData from elems, which must all
// share the same variant and must not themselves be documents or sets.
func NewSet(elems []PropertyData) (PropertyData, error) {
	if len(elems) > MaxSetSize {
		return PropertyData{}, dberrors.BadArguments("set has %d elements, exceeds cap of %d", len(elems), MaxSetSize)
	}

	if len(elems) == 0 {
		return PropertyData{variant: VariantSet}, nil
	}

	elemVariant := elems[0].variant
	if elemVariant == VariantDocument || elemVariant == VariantSet {
		return PropertyData{}, dberrors.BadArguments("set elements cannot be %s", elemVariant)
	}

	cp := make([]PropertyData, len(elems))

	for i, e := range elems {
		if e.variant != elemVariant {
			return PropertyData{}, dberrors.BadArguments("set element %d has variant %s, expected %s", i, e.variant, elemVariant)
		}

		cp[i] = e.Clone()
	}

	return PropertyData{variant: VariantSet, setVal: cp}, nil
}

// Variant returns the value's tag.
func (p PropertyData) Variant() Variant { return p.variant }

// StringValue returns the payload of a VariantString value and whether p
// is in fact a string.
func (p PropertyData) StringValue() (string, bool) {
	return p.strVal, p.variant == VariantString
}

// IntegerValue returns the payload of a VariantInteger value and whether p
// is in fact an integer.
func (p PropertyData) IntegerValue() (int64, bool) {
	return p.intVal, p.variant == VariantInteger
}

// FloatValue returns the payload of a VariantFloat value and whether p is
// in fact a float.
func (p PropertyData) FloatValue() (float64, bool) {
	return p.fltVal, p.variant == VariantFloat
}

// BooleanValue returns the payload of a VariantBoolean value and whether p
// is in fact a boolean.
func (p PropertyData) BooleanValue() (bool, bool) {
	return p.boolVal, p.variant == VariantBoolean
}

// IDValue returns the payload of a VariantID value and whether p is in
// fact an id.
func (p PropertyData) IDValue() (dbid.Id, bool) {
	return p.idVal, p.variant == VariantID
}

// DocumentValue returns the payload of a VariantDocument value and whether
// p is in fact a document. The returned slice is a copy.
func (p PropertyData) DocumentValue() ([]string, bool) {
	if p.variant != VariantDocument {
		return nil, false
	}

	cp := make([]string, len(p.docVal))
	copy(cp, p.docVal)

	return cp, true
}

// SetValue returns the payload of a VariantSet value and whether p is in
// fact a set. The returned slice is a copy.
func (p PropertyData) SetValue() ([]PropertyData, bool) {
	if p.variant != VariantSet {
		return nil, false
	}

	cp := make([]PropertyData, len(p.setVal))
	for i, e := range p.setVal {
		cp[i] = e.Clone()
	}

	return cp, true
}

// Clone deep-copies p.
func (p PropertyData) Clone() PropertyData {
	cp := p
	if p.variant == VariantDocument {
		cp.docVal = append([]string(nil), p.docVal...)
	}

	if p.variant == VariantSet {
		cp.setVal = make([]PropertyData, len(p.setVal))
		for i, e := range p.setVal {
			cp.setVal[i] = e.Clone()
		}
	}

	return cp
}

// Equals reports whether p and other carry the same variant and payload.
func (p PropertyData) Equals(other PropertyData) bool {
	return p.Compare(other) == 0
}

// Compare orders p against other: first by variant tag, then by payload.
// It returns a negative number, zero, or a positive number as p is less
// than, equal to, or greater than other.
func (p PropertyData) Compare(other PropertyData) int {
	if p.variant != other.variant {
		if p.variant < other.variant {
			return -1
		}

		return 1
	}

	switch p.variant {
	case VariantString:
		return strings.Compare(p.strVal, other.strVal)
	case VariantInteger:
		switch {
		case p.intVal < other.intVal:
			return -1
		case p.intVal > other.intVal:
			return 1
		default:
			return 0
		}
	case VariantFloat:
		switch {
		case p.fltVal < other.fltVal:
			return -1
		case p.fltVal > other.fltVal:
			return 1
		default:
			return 0
		}
	case VariantBoolean:
		if p.boolVal == other.boolVal {
			return 0
		}

		if !p.boolVal {
			return -1
		}

		return 1
	case VariantID:
		return p.idVal.Compare(other.idVal)
	case VariantDocument:
		return compareStringSlices(p.docVal, other.docVal)
	case VariantSet:
		return compareSets(p.setVal, other.setVal)
	default:
		return 0
	}
}

func compareStringSlices(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareSets(a, b []PropertyData) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// ToString renders the full diagnostic string form of p.
func (p PropertyData) ToString() string {
	switch p.variant {
	case VariantString:
		return p.strVal
	case VariantInteger:
		return strconv.FormatInt(p.intVal, 10)
	case VariantFloat:
		return strconv.FormatFloat(p.fltVal, 'g', -1, 64)
	case VariantBoolean:
		if p.boolVal {
			return "true"
		}

		return "false"
	case VariantID:
		return p.idVal.String()
	case VariantDocument:
		return strings.Join(p.docVal, "\n")
	case VariantSet:
		parts := make([]string, len(p.setVal))
		for i, e := range p.setVal {
			parts[i] = e.ToString()
		}

		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// ShortString renders p's string form truncated to ~60 characters with a
// trailing truncation marker, for compact diagnostics (spec §4.2).
func (p PropertyData) ShortString() string {
	s := p.ToString()
	if len(s) <= shortStringCap {
		return s
	}

	return s[:shortStringCap] + "..."
}

// SetFromString parses s according to variant's string-parse rule
// (spec §3.3) and returns the resulting value. Variants without a
// meaningful string form (id, set) return BadArguments.
func SetFromString(variant Variant, s string) (PropertyData, error) {
	switch variant {
	case VariantString:
		return NewString(s), nil
	case VariantInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return PropertyData{}, dberrors.BadArguments("%q is not a valid integer: %v", s, err)
		}

		return NewInteger(i), nil
	case VariantFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return PropertyData{}, dberrors.BadArguments("%q is not a valid float: %v", s, err)
		}

		return NewFloat(f), nil
	case VariantBoolean:
		b, err := parseBool(s)
		if err != nil {
			return PropertyData{}, err
		}

		return NewBoolean(b), nil
	case VariantDocument:
		return NewDocument(strings.Split(s, "\n"))
	case VariantID, VariantSet:
		return PropertyData{}, dberrors.BadArguments("%s cannot be parsed from a plain string", variant)
	default:
		return PropertyData{}, dberrors.BadArguments("unknown variant %d", variant)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "t", "true", "y", "yes":
		return true, nil
	case "f", "false", "n", "no":
		return false, nil
	default:
		return false, dberrors.BadArguments("%q is not a valid boolean", s)
	}
}

// MemUsed estimates p's memory footprint in bytes.
func (p PropertyData) MemUsed() int {
	const baseOverhead = 16

	switch p.variant {
	case VariantString:
		return baseOverhead + len(p.strVal)
	case VariantInteger:
		return baseOverhead + 8
	case VariantFloat:
		return baseOverhead + 8
	case VariantBoolean:
		return baseOverhead + 1
	case VariantID:
		return baseOverhead + 8
	case VariantDocument:
		n := baseOverhead
		for _, l := range p.docVal {
			n += len(l) + 8
		}

		return n
	case VariantSet:
		n := baseOverhead
		for _, e := range p.setVal {
			n += e.MemUsed()
		}

		return n
	default:
		return baseOverhead
	}
}

// wireForm is the msgpack-serialisable shadow of PropertyData, tagged by
// variant discriminant, used by the central dispatcher below.
type wireForm struct {
	Variant Variant    `msgpack:"v"`
	Str     string     `msgpack:"s,omitempty"`
	Int     int64      `msgpack:"i,omitempty"`
	Flt     float64    `msgpack:"f,omitempty"`
	Bool    bool       `msgpack:"b,omitempty"`
	SiteID  uint32     `msgpack:"site,omitempty"`
	EntID   uint32     `msgpack:"ent,omitempty"`
	Doc     []string   `msgpack:"doc,omitempty"`
	Set     []wireForm `msgpack:"set,omitempty"`
}

func (p PropertyData) toWire() wireForm {
	w := wireForm{Variant: p.variant}

	switch p.variant {
	case VariantString:
		w.Str = p.strVal
	case VariantInteger:
		w.Int = p.intVal
	case VariantFloat:
		w.Flt = p.fltVal
	case VariantBoolean:
		w.Bool = p.boolVal
	case VariantID:
		w.SiteID = p.idVal.SiteID()
		w.EntID = p.idVal.EntityID()
	case VariantDocument:
		w.Doc = p.docVal
	case VariantSet:
		w.Set = make([]wireForm, len(p.setVal))
		for i, e := range p.setVal {
			w.Set[i] = e.toWire()
		}
	}

	return w
}

func fromWire(w wireForm) PropertyData {
	switch w.Variant {
	case VariantString:
		return NewString(w.Str)
	case VariantInteger:
		return NewInteger(w.Int)
	case VariantFloat:
		return NewFloat(w.Flt)
	case VariantBoolean:
		return NewBoolean(w.Bool)
	case VariantID:
		return NewID(dbid.New(w.SiteID, w.EntID))
	case VariantDocument:
		return PropertyData{variant: VariantDocument, docVal: w.Doc}
	case VariantSet:
		elems := make([]PropertyData, len(w.Set))
		for i, e := range w.Set {
			elems[i] = fromWire(e)
		}

		return PropertyData{variant: VariantSet, setVal: elems}
	default:
		return PropertyData{}
	}
}

// Marshal is the central dispatcher that serialises a PropertyData,
// tagged by its variant discriminant, to msgpack bytes.
func Marshal(p PropertyData) ([]byte, error) {
	data, err := msgpack.Marshal(p.toWire())
	if err != nil {
		return nil, dberrors.DatabaseError(err, "marshal property data")
	}

	return data, nil
}

// Unmarshal is the central dispatcher's inverse: it reads the variant
// discriminant from data and reconstructs the matching PropertyData.
func Unmarshal(data []byte) (PropertyData, error) {
	var w wireForm
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return PropertyData{}, dberrors.DatabaseError(err, "unmarshal property data")
	}

	return fromWire(w), nil
}
