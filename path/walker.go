// Package path walks the top-1 decoded path of a scored lattice: the
// chain of ConnectionPtr back-pointers starting from the EOS node's best
// beam entry and following .Previous back to the BOS sentinel.
package path

import (
	"fmt"

	"github.com/agglutrain/latticecore/lattice"
)

// Walker is a stateful iterator over one lattice's top-1 path. It is
// filled in once per lattice via FillIn, then can be repositioned to any
// boundary on the path and stepped forward from there.
type Walker struct {
	lat  *lattice.Lattice
	head lattice.ConnectionPtr
	cur  lattice.ConnectionPtr
	done bool
}

// New returns an empty walker; call FillIn before using it.
func New() *Walker { return &Walker{} }

// FillIn adopts lat and positions the walker at the EOS node's top-ranked
// beam entry.
func (w *Walker) FillIn(lat *lattice.Lattice) error {
	eosB := lat.CreatedBoundaryCount() - 1
	beam := lat.Boundary(eosB).Starts().BeamData()
	if beam.RowSize() == 0 {
		return fmt.Errorf("path: eos beam is empty")
	}
	top := beam.At(0)
	if lattice.IsFake(top) {
		return fmt.Errorf("path: eos top-1 beam entry is fake")
	}
	w.lat = lat
	w.head = lat.Arena().Get(top.Ref)
	w.Reset()
	return nil
}

// Reset repositions the cursor at the head of the path (the EOS node).
func (w *Walker) Reset() {
	w.cur = w.head
	w.done = false
}

// Head returns the EOS node's own connection.
func (w *Walker) Head() lattice.ConnectionPtr { return w.head }

// Lattice returns the lattice this walker was filled in from.
func (w *Walker) Lattice() *lattice.Lattice { return w.lat }

// MoveToBoundary walks backward from the head until it reaches the node
// starting at boundary b, positioning the cursor there. It reports
// whether such a node was found before the walk ran into the BOS
// sentinel (boundary <= 1).
func (w *Walker) MoveToBoundary(b int) bool {
	cur := w.head
	for {
		if int(cur.Boundary) == b {
			w.cur = cur
			w.done = false
			return true
		}
		if cur.Boundary <= 1 {
			return false
		}
		cur = w.lat.Arena().Get(cur.Previous)
	}
}

// NextNode yields the node at the cursor's current position, then
// advances past it; there is at most one node per boundary on the top-1
// path, so a second call after the first returns false until Reset or
// MoveToBoundary repositions the cursor.
func (w *Walker) NextNode(out *lattice.ConnectionPtr) bool {
	if w.done {
		return false
	}
	*out = w.cur
	w.done = true
	return true
}

// TotalNodes counts the non-sentinel nodes on the top-1 path (boundary >
// 1), i.e. every real content node plus the EOS node itself.
func (w *Walker) TotalNodes() int {
	n := 0
	cur := w.head
	for cur.Boundary > 1 {
		n++
		cur = w.lat.Arena().Get(cur.Previous)
	}
	return n
}
