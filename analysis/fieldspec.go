// Package analysis defines the Analyzer contract a partial trainer drives
// (ResetForInput, PrepareNodeSeeds, BuildLattice, BootstrapAnalysis,
// ComputeScores) and a small in-memory dictionary-backed reference
// implementation of it.
package analysis

import (
	"github.com/cespare/xxhash/v2"

	"github.com/agglutrain/latticecore/feature"
)

// HashUnkString deterministically hashes a string that has no entry in a
// field's string-to-id table, standing in for an unknown-value fallback.
func HashUnkString(s string) uint32 { return uint32(xxhash.Sum64String(s)) }

// FieldSpec is one tag field's name, its position in a lattice.EntryRow,
// and the string<->id table values are interned against.
type FieldSpec struct {
	Name    string
	Index   int
	str2int map[string]uint32
	int2str []string
}

// NewFieldSpec returns an empty field spec for the field at the given
// EntryRow index.
func NewFieldSpec(name string, index int) *FieldSpec {
	return &FieldSpec{Name: name, Index: index, str2int: map[string]uint32{}}
}

// Intern returns value's id, assigning it the next free id on first use.
func (f *FieldSpec) Intern(value string) uint32 {
	if id, ok := f.str2int[value]; ok {
		return id
	}
	id := uint32(len(f.int2str))
	f.str2int[value] = id
	f.int2str = append(f.int2str, value)
	return id
}

// Resolve looks up value's id without interning it.
func (f *FieldSpec) Resolve(value string) (uint32, bool) {
	id, ok := f.str2int[value]
	return id, ok
}

// String returns the string a previously interned id was assigned to.
func (f *FieldSpec) String(id uint32) (string, bool) {
	if int(id) >= len(f.int2str) {
		return "", false
	}
	return f.int2str[id], true
}

// DictionarySpec bundles the field specs a dictionary and a partial
// example reader agree on: which tag names exist and where they live in
// an EntryRow.
type DictionarySpec struct {
	Surface  *FieldSpec
	POS      *FieldSpec
	SubPOS   *FieldSpec
	BaseForm *FieldSpec
	byName   map[string]*FieldSpec
}

// NewDictionarySpec returns the standard four-field spec (surface, POS,
// subPOS, baseForm) matching the feature package's EntryRow layout.
func NewDictionarySpec() *DictionarySpec {
	s := &DictionarySpec{
		Surface:  NewFieldSpec("surface", feature.FieldSurface),
		POS:      NewFieldSpec("POS", feature.FieldPOS),
		SubPOS:   NewFieldSpec("subPOS", feature.FieldSubPOS),
		BaseForm: NewFieldSpec("baseForm", feature.FieldBaseForm),
	}
	s.byName = map[string]*FieldSpec{
		s.Surface.Name:  s.Surface,
		s.POS.Name:      s.POS,
		s.SubPOS.Name:   s.SubPOS,
		s.BaseForm.Name: s.BaseForm,
	}
	return s
}

// Field resolves a tag field by name.
func (s *DictionarySpec) Field(name string) (*FieldSpec, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Fields returns every field in a fixed order.
func (s *DictionarySpec) Fields() []*FieldSpec {
	return []*FieldSpec{s.Surface, s.POS, s.SubPOS, s.BaseForm}
}
