package feature

// Field indices into a lattice.EntryRow. The dictionary and reader
// packages agree on this layout when building entries and resolving tag
// constraints against them.
const (
	FieldSurface = iota
	FieldPOS
	FieldSubPOS
	FieldBaseForm
	FieldFormType
	FieldFunctional
	FieldNumeric
	FieldFirstCP
	FieldLastCP
	FieldFirstCPClass
	FieldLastCPClass
	FieldPrefix
	FieldSuffix
	FieldLonger
	// NumFields is the fixed width of every EntryRow.
	NumFields
)
