// Package lattice implements the boundary/node/beam data structures that
// back a lattice-based beam search: a codepoint-indexed sequence of
// boundaries, each holding the candidate morpheme occurrences that start
// or end there, plus a fixed-width top-k beam per node.
//
// Boundary index doubles as codepoint position. Indices 0 and 1 are
// reserved for a two-hop BOS chain (so a trigram is always well-defined
// at the first content node); real content starts at boundary 2; the
// final boundary holds a single EOS node.
package lattice

// LatticeNodePtr identifies a node by the boundary it starts at and its
// position within that boundary's StartsSide arrays.
type LatticeNodePtr struct {
	Boundary uint16
	Position uint16
}

// NodeInfo carries per-node metadata that isn't itself a tagged field.
type NodeInfo struct {
	NumCodepoints int32
}

// EntryRow is one node's tagged field values (surface id, POS id, ...);
// field indices are defined by the feature package.
type EntryRow []int32

// StartsSide holds every node that starts at one boundary: parallel rows
// of node info, entry data, and beam data, indexed by position.
type StartsSide struct {
	infos     []NodeInfo
	entries   []EntryRow
	beams     [][]BeamEntry
	beamWidth int
}

// AddNode appends a node to this side, allocating a beam row of the
// given width filled with FAKE entries, and returns its position.
func (s *StartsSide) AddNode(info NodeInfo, entry EntryRow, beamWidth int) int {
	s.infos = append(s.infos, info)
	s.entries = append(s.entries, entry)
	row := make([]BeamEntry, beamWidth)
	for i := range row {
		row[i] = FakeEntry()
	}
	s.beams = append(s.beams, row)
	s.beamWidth = beamWidth
	return len(s.infos) - 1
}

// NumEntries returns the number of nodes starting at this boundary.
func (s *StartsSide) NumEntries() int { return len(s.infos) }

// NodeInfo returns the node-info table for this side.
func (s *StartsSide) NodeInfo() NodeInfoTable { return NodeInfoTable(s.infos) }

// EntryData returns the tagged-field table for this side.
func (s *StartsSide) EntryData() EntryTable { return EntryTable(s.entries) }

// BeamData returns the beam table for this side.
func (s *StartsSide) BeamData() BeamTable { return BeamTable{rows: s.beams, width: s.beamWidth} }

// NodeInfoTable is a row-indexed table of NodeInfo.
type NodeInfoTable []NodeInfo

// At returns the node info at the given position.
func (t NodeInfoTable) At(pos int) NodeInfo { return t[pos] }

// EntryTable is a row-indexed table of EntryRow.
type EntryTable []EntryRow

// Row returns the entry row at the given position.
func (t EntryTable) Row(pos int) EntryRow { return t[pos] }

// BeamTable is a row-indexed table of fixed-width beam rows.
type BeamTable struct {
	rows  [][]BeamEntry
	width int
}

// Row returns the beam row at the given position.
func (t BeamTable) Row(pos int) []BeamEntry { return t.rows[pos] }

// At returns the top-ranked beam entry at the given position.
func (t BeamTable) At(pos int) BeamEntry { return t.rows[pos][0] }

// RowSize returns the fixed beam width shared by every row on this side.
func (t BeamTable) RowSize() int { return t.width }

// EndsSide holds pointers to every node (identified by its start) that
// ends at this boundary.
type EndsSide struct {
	ptrs []LatticeNodePtr
}

// NodePtrs returns the nodes ending at this boundary.
func (e *EndsSide) NodePtrs() []LatticeNodePtr { return e.ptrs }

func (e *EndsSide) add(p LatticeNodePtr) { e.ptrs = append(e.ptrs, p) }

// Boundary is one codepoint position in the lattice, with both a starts
// side (nodes beginning here) and an ends side (nodes finishing here).
type Boundary struct {
	starts StartsSide
	ends   EndsSide
}

// Starts returns the nodes starting at this boundary.
func (b *Boundary) Starts() *StartsSide { return &b.starts }

// Ends returns the nodes ending at this boundary.
func (b *Boundary) Ends() *EndsSide { return &b.ends }

// Lattice is the full boundary array plus the connection arena shared by
// every node's beam entries.
type Lattice struct {
	boundaries []*Boundary
	arena      *Arena
}

// New allocates a lattice with the given number of boundaries and a
// fresh connection arena seeded with the BOS self-loop.
func New(boundaryCount int) *Lattice {
	l := &Lattice{
		boundaries: make([]*Boundary, boundaryCount),
		arena:      NewArena(),
	}
	for i := range l.boundaries {
		l.boundaries[i] = &Boundary{}
	}
	return l
}

// CreatedBoundaryCount returns the number of boundaries in the lattice.
func (l *Lattice) CreatedBoundaryCount() int { return len(l.boundaries) }

// Boundary returns the boundary at index i.
func (l *Lattice) Boundary(i int) *Boundary { return l.boundaries[i] }

// Arena returns the connection arena backing every beam entry.
func (l *Lattice) Arena() *Arena { return l.arena }

// LinkEnd records that the node starting at start ends at endBoundary.
func (l *Lattice) LinkEnd(start LatticeNodePtr, endBoundary int) {
	l.boundaries[endBoundary].ends.add(start)
}

// EntryAt returns the tagged fields of the node identified by p.
func (l *Lattice) EntryAt(p LatticeNodePtr) EntryRow {
	return l.boundaries[p.Boundary].starts.entries[p.Position]
}

// NodeInfoAt returns the node info of the node identified by p.
func (l *Lattice) NodeInfoAt(p LatticeNodePtr) NodeInfo {
	return l.boundaries[p.Boundary].starts.infos[p.Position]
}
