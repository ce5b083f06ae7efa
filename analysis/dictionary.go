package analysis

import "unicode"

// DictEntry is one dictionary-backed candidate reading for a surface
// span: its interned tag ids plus the derived flags templates read.
type DictEntry struct {
	Surface    string
	SurfaceID  uint32
	POS        uint32
	SubPOS     uint32
	BaseForm   uint32
	FormType   uint32
	Functional bool
	Numeric    bool
}

// Dictionary is an in-memory surface-string lookup table standing in for
// the out-of-scope on-disk dictionary format: PrepareNodeSeeds queries it
// by exact substring, and an entry filed under the literal surface "UNK"
// (if any) supplies the tag values used for unknown-word fallback nodes.
type Dictionary struct {
	spec      *DictionarySpec
	bySurface map[string][]DictEntry
	unkPOS    uint32
}

// NewDictionary returns an empty dictionary bound to the given field spec.
func NewDictionary(spec *DictionarySpec) *Dictionary {
	return &Dictionary{
		spec:      spec,
		bySurface: map[string][]DictEntry{},
		unkPOS:    spec.POS.Intern("UNK"),
	}
}

// Spec returns the field spec this dictionary interns tag values against.
func (d *Dictionary) Spec() *DictionarySpec { return d.spec }

// Add interns pos/subPos/baseForm against the dictionary's field spec and
// files a new entry under surface.
func (d *Dictionary) Add(surface, pos, subPos, baseForm string) DictEntry {
	e := DictEntry{
		Surface:    surface,
		SurfaceID:  d.spec.Surface.Intern(surface),
		POS:        d.spec.POS.Intern(pos),
		SubPOS:     d.spec.SubPOS.Intern(subPos),
		BaseForm:   d.spec.BaseForm.Intern(baseForm),
		FormType:   formTypeOf(surface),
		Functional: isFunctionalPOS(pos),
		Numeric:    isNumericString(surface),
	}
	d.bySurface[surface] = append(d.bySurface[surface], e)
	return e
}

// Lookup returns every entry filed under the exact surface string.
func (d *Dictionary) Lookup(surface string) []DictEntry { return d.bySurface[surface] }

// UnkEntries returns the unknown-word fallback entries for a surface span
// that matched nothing in the dictionary: one per entry filed under the
// literal surface "UNK" (using that template's tags), or a single
// built-in default if none was registered.
func (d *Dictionary) UnkEntries(surface string) []DictEntry {
	templates := d.bySurface["UNK"]
	if len(templates) == 0 {
		return []DictEntry{{
			Surface:   surface,
			SurfaceID: HashUnkString(surface),
			POS:       d.unkPOS,
			FormType:  formTypeOf(surface),
			Numeric:   isNumericString(surface),
		}}
	}
	out := make([]DictEntry, len(templates))
	for i, tmpl := range templates {
		out[i] = DictEntry{
			Surface:    surface,
			SurfaceID:  HashUnkString(surface),
			POS:        tmpl.POS,
			SubPOS:     tmpl.SubPOS,
			BaseForm:   tmpl.BaseForm,
			FormType:   formTypeOf(surface),
			Functional: tmpl.Functional,
			Numeric:    isNumericString(surface),
		}
	}
	return out
}

func formTypeOf(s string) uint32 {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	switch {
	case unicode.IsDigit(r[0]):
		return 2
	case unicode.IsUpper(r[0]):
		return 1
	default:
		return 0
	}
}

func isFunctionalPOS(pos string) bool {
	switch pos {
	case "PRT", "AUX", "CONJ", "PP":
		return true
	default:
		return false
	}
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
