package path_test

import (
	"testing"

	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/path"
)

// buildChain constructs a lattice whose only path is BOS0(0) -> BOS1(1) ->
// content(2) -> content(4) -> EOS(6), each node spanning to the next.
func buildChain(t *testing.T) *lattice.Lattice {
	t.Helper()
	l := lattice.New(7)
	arena := l.Arena()

	bos0 := l.Boundary(0).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 1}, nil, 1)
	l.Boundary(0).Starts().BeamData().Row(bos0)[0] = lattice.BeamEntry{Ref: arena.BOS(), Score: 0}

	bos1 := l.Boundary(1).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 1}, nil, 1)
	bos1Ref := arena.Add(lattice.ConnectionPtr{Boundary: 1, Right: uint16(bos1), Previous: arena.BOS()})
	l.Boundary(1).Starts().BeamData().Row(bos1)[0] = lattice.BeamEntry{Ref: bos1Ref, Score: 0}

	n2 := l.Boundary(2).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 2}, nil, 1)
	n2Ref := arena.Add(lattice.ConnectionPtr{Boundary: 2, Right: uint16(n2), Previous: bos1Ref})
	l.Boundary(2).Starts().BeamData().Row(n2)[0] = lattice.BeamEntry{Ref: n2Ref, Score: 1}

	n4 := l.Boundary(4).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 2}, nil, 1)
	n4Ref := arena.Add(lattice.ConnectionPtr{Boundary: 4, Right: uint16(n4), Previous: n2Ref})
	l.Boundary(4).Starts().BeamData().Row(n4)[0] = lattice.BeamEntry{Ref: n4Ref, Score: 2}

	eos := l.Boundary(6).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 0}, nil, 1)
	eosRef := arena.Add(lattice.ConnectionPtr{Boundary: 6, Right: uint16(eos), Previous: n4Ref})
	l.Boundary(6).Starts().BeamData().Row(eos)[0] = lattice.BeamEntry{Ref: eosRef, Score: 2}

	return l
}

func TestWalkerTotalNodes(t *testing.T) {
	l := buildChain(t)
	w := path.New()
	if err := w.FillIn(l); err != nil {
		t.Fatalf("FillIn: %v", err)
	}
	// content(2), content(4), EOS(6): 3 nodes with boundary > 1.
	if got := w.TotalNodes(); got != 3 {
		t.Fatalf("TotalNodes() = %d, want 3", got)
	}
}

func TestWalkerMoveToBoundaryAndNextNode(t *testing.T) {
	l := buildChain(t)
	w := path.New()
	if err := w.FillIn(l); err != nil {
		t.Fatalf("FillIn: %v", err)
	}

	if !w.MoveToBoundary(4) {
		t.Fatalf("MoveToBoundary(4) = false, want true")
	}
	var ptr lattice.ConnectionPtr
	if !w.NextNode(&ptr) {
		t.Fatalf("NextNode() = false after MoveToBoundary, want true")
	}
	if ptr.Boundary != 4 {
		t.Fatalf("NextNode() boundary = %d, want 4", ptr.Boundary)
	}
	if w.NextNode(&ptr) {
		t.Fatalf("second NextNode() call returned true, want false (one node per boundary)")
	}
}

func TestWalkerMoveToBoundaryPastBOSFails(t *testing.T) {
	l := buildChain(t)
	w := path.New()
	if err := w.FillIn(l); err != nil {
		t.Fatalf("FillIn: %v", err)
	}
	if w.MoveToBoundary(3) {
		t.Fatalf("MoveToBoundary(3) = true, want false (no node starts at boundary 3 on this path)")
	}
}

func TestWalkerFillInRejectsFakeEOSBeam(t *testing.T) {
	l := lattice.New(3)
	l.Boundary(2).Starts().AddNode(lattice.NodeInfo{}, nil, 1)
	w := path.New()
	if err := w.FillIn(l); err == nil {
		t.Fatalf("FillIn did not reject a lattice whose EOS beam was never computed")
	}
}
