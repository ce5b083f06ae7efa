package feature

import "github.com/agglutrain/latticecore/lattice"

// Slot names a position in the scored trigram (t-2, t-1, t0).
type Slot int

const (
	T2 Slot = iota
	T1
	T0
)

// Accessor extracts one scalar value out of a node's tagged fields and
// node info, to be mixed into a template's hash.
type Accessor func(row lattice.EntryRow, info lattice.NodeInfo) uint32

func fieldAccessor(idx int) Accessor {
	return func(row lattice.EntryRow, _ lattice.NodeInfo) uint32 { return uint32(row[idx]) }
}

// Named accessors, one per feature kind a template may reference.
var (
	AccSurface      = fieldAccessor(FieldSurface)
	AccForm         = fieldAccessor(FieldSurface)
	AccPOS          = fieldAccessor(FieldPOS)
	AccSubPOS       = fieldAccessor(FieldSubPOS)
	AccBaseForm     = fieldAccessor(FieldBaseForm)
	AccFormType     = fieldAccessor(FieldFormType)
	AccFunctional   = fieldAccessor(FieldFunctional)
	AccNumeric      = fieldAccessor(FieldNumeric)
	AccFirstCP      = fieldAccessor(FieldFirstCP)
	AccLastCP       = fieldAccessor(FieldLastCP)
	AccFirstCPClass = fieldAccessor(FieldFirstCPClass)
	AccLastCPClass  = fieldAccessor(FieldLastCPClass)
	AccPrefix       = fieldAccessor(FieldPrefix)
	AccSuffix       = fieldAccessor(FieldSuffix)
	AccLonger       = fieldAccessor(FieldLonger)
	AccLength       Accessor = func(_ lattice.EntryRow, info lattice.NodeInfo) uint32 {
		return uint32(info.NumCodepoints)
	}
)

// SlotAccess pairs one accessor with the trigram slot it reads from.
type SlotAccess struct {
	Slot   Slot
	Access Accessor
}

// Template names one feature: a fixed identifier plus an ordered list of
// (slot, accessor) reads whose values are mixed into that template's hash.
type Template struct {
	ID    uint32
	Parts []SlotAccess
}

func unigram(a Accessor) []SlotAccess { return []SlotAccess{{T0, a}} }

func bigram(a1, a0 Accessor) []SlotAccess { return []SlotAccess{{T1, a1}, {T0, a0}} }

func trigram(a2, a1, a0 Accessor) []SlotAccess { return []SlotAccess{{T2, a2}, {T1, a1}, {T0, a0}} }

// DefaultTemplates returns the standard template set used when no
// alternative is configured: unigram features over every named accessor
// except AccForm, AccFirstCP and AccLastCP, plus a POS bigram, a surface
// bigram, and a POS trigram.
func DefaultTemplates() []Template {
	defs := [][]SlotAccess{
		unigram(AccSurface),
		unigram(AccPOS),
		unigram(AccSubPOS),
		unigram(AccLength),
		unigram(AccFirstCPClass),
		unigram(AccLastCPClass),
		unigram(AccFormType),
		unigram(AccFunctional),
		unigram(AccBaseForm),
		unigram(AccPrefix),
		unigram(AccSuffix),
		unigram(AccLonger),
		unigram(AccNumeric),
		bigram(AccPOS, AccPOS),
		bigram(AccSurface, AccSurface),
		trigram(AccPOS, AccPOS, AccPOS),
	}
	out := make([]Template, len(defs))
	for i, parts := range defs {
		out[i] = Template{ID: uint32(i), Parts: parts}
	}
	return out
}
