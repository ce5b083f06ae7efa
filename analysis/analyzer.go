package analysis

import (
	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/score"
)

// Analyzer is the external contract a partial trainer drives to turn one
// input surface into a scored lattice. Calls happen in exactly this
// order for a given input: ResetForInput, PrepareNodeSeeds, BuildLattice,
// BootstrapAnalysis, ComputeScores.
type Analyzer interface {
	// ResetForInput discards any lattice from a previous call and adopts
	// a new input surface.
	ResetForInput(surface string) error
	// PrepareNodeSeeds decides which candidate nodes exist for the
	// current input, including unknown-word fallbacks, without yet
	// allocating the lattice structure.
	PrepareNodeSeeds() error
	// BuildLattice allocates the boundary/node graph from the prepared
	// seeds and links each node's end boundary. Every beam is fake.
	BuildLattice() error
	// BootstrapAnalysis installs the BOS sentinel beam entries so real
	// content nodes have a well-defined trigram from their first step.
	BootstrapAnalysis() error
	// ComputeScores runs the beam search proper, filling every node's
	// beam using the given scorer/calculator pairing.
	ComputeScores(sdef *score.Def) error
	// Lattice returns the lattice built by the calls above.
	Lattice() *lattice.Lattice
	// SetGlobalBeam configures (or reconfigures) pruning knobs applied
	// during ComputeScores, returning whether the configuration changed.
	SetGlobalBeam(left, rightCheck, right int) bool
}
