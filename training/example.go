// Package training implements the partial (weakly-supervised) trainer: it
// compares an analyzer's beam-decoded lattice against a partial gold
// annotation and produces a signed sparse feature gradient plus a scalar
// loss for an external online learner to apply.
package training

import (
	"sort"

	"github.com/agglutrain/latticecore/lattice"
)

// TagConstraint pins one tagged field of a constrained node to a value.
type TagConstraint struct {
	Field int
	Value uint32
}

// NodeConstraint names a fully-specified gold node: it must start at
// Boundary, span exactly Length codepoints, and match every tag in Tags.
type NodeConstraint struct {
	Boundary int
	Length   int
	Tags     []TagConstraint
}

// PartialExample is one weakly-supervised training record: a surface
// string, the codepoints it normalized to, the boundary cuts the
// annotator committed to (a superset of any constrained node's edges),
// and the fully-specified node constraints among them.
type PartialExample struct {
	Surface    string
	Codepoints []rune
	Boundaries []int
	Nodes      []NodeConstraint
	Comment    string
	File       string
	Line       int
}

// DoesNodeMatch reports whether the node at (boundary, position) in lat
// is compatible with this example's constraints: it must not straddle a
// committed boundary cut, and if a NodeConstraint pins that boundary it
// must match it exactly (length and every tag).
func (e *PartialExample) DoesNodeMatch(lat *lattice.Lattice, boundary, position int) bool {
	starts := lat.Boundary(boundary).Starts()
	length := int(starts.NodeInfo().At(position).NumCodepoints)

	idx := sort.SearchInts(e.Boundaries, boundary)
	if idx == len(e.Boundaries) {
		return false
	}
	// The annotator's first committed boundary is often the end of the
	// first chunk, not the literal start of content (2); a node that
	// starts exactly at 2 is exempt from needing an exact boundary hit.
	if e.Boundaries[idx] != boundary && boundary != 2 {
		return false
	}

	var nc *NodeConstraint
	for i := range e.Nodes {
		if e.Nodes[i].Boundary == boundary {
			nc = &e.Nodes[i]
			break
		}
	}

	if nc == nil {
		// No fully-specified constraint here: any length that doesn't
		// cross the next committed boundary is compatible. Under the
		// boundary-2 exemption that is Boundaries[idx] itself.
		next := idx + 1
		if e.Boundaries[idx] != boundary {
			next = idx
		}
		if next < len(e.Boundaries) {
			return length <= e.Boundaries[next]-boundary
		}
		return true
	}

	if length != nc.Length {
		return false
	}
	row := starts.EntryData().Row(position)
	for _, tag := range nc.Tags {
		if row[tag.Field] != int32(tag.Value) {
			return false
		}
	}
	return true
}
