package lattice

// BeamEntry is one ranked back-pointer in a node's beam: a reference to
// the connection that reaches this node plus the cumulative path score
// that earned it that rank.
type BeamEntry struct {
	Ref   ConnRef
	Score float32
}

// fakeRef marks a beam slot that has never been filled.
const fakeRef ConnRef = ^ConnRef(0)

// FakeEntry returns the sentinel value used to fill unused beam slots.
func FakeEntry() BeamEntry { return BeamEntry{Ref: fakeRef} }

// IsFake reports whether a beam entry is the unfilled sentinel. Beam rows
// are always filled front-to-back, so the first fake entry in a row marks
// the end of the real ones.
func IsFake(e BeamEntry) bool { return e.Ref == fakeRef }
