package score

import (
	"errors"
	"fmt"

	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/lattice"
)

// ErrLoadNotImplemented is returned by scorers that don't support loading
// a persisted weight table. The on-disk model format is out of scope.
var ErrLoadNotImplemented = errors.New("score: loading a persisted weight table is not implemented")

// Scorer computes edge scores for a batch of trigram references against
// whatever lattice they were drawn from, and can (in principle) load a
// persisted weight table from disk.
type Scorer interface {
	Compute(out []float32, calc *feature.Calculator, lat *lattice.Lattice, refs []feature.NgramFeatureRef) error
	Load(path string) error
}

// Def bundles a scorer with the feature calculator it should use, the
// pairing an analyzer needs to run ComputeScores.
type Def struct {
	Scorer     Scorer
	Calculator *feature.Calculator
}

// HashedPerceptron is a linear scorer over a hashed, masked feature
// table: an edge's score is the sum of the weights its feature hashes
// resolve to.
type HashedPerceptron struct {
	table *WeightTable
}

// NewHashedPerceptron returns a scorer backed by the given weight table.
func NewHashedPerceptron(table *WeightTable) *HashedPerceptron {
	return &HashedPerceptron{table: table}
}

// Table returns the weight table this scorer reads from.
func (s *HashedPerceptron) Table() *WeightTable { return s.table }

// Compute fills out with one score per ref: the sum of the weights each
// ref's feature hashes resolve to in the table. The feature-hash scratch
// buffer is allocated fresh per call so concurrent callers sharing one
// HashedPerceptron over an immutable table never race on it.
func (s *HashedPerceptron) Compute(out []float32, calc *feature.Calculator, lat *lattice.Lattice, refs []feature.NgramFeatureRef) error {
	if len(out) != len(refs) {
		return fmt.Errorf("score: out length %d does not match refs length %d", len(out), len(refs))
	}
	buf := make([]uint32, calc.NumTemplates())
	for i, ref := range refs {
		if err := calc.Calculate(lat, ref, buf); err != nil {
			return err
		}
		var sum float32
		for _, h := range buf {
			sum += s.table.At(h)
		}
		out[i] = sum
	}
	return nil
}

// Load is unsupported: the on-disk model format is out of scope for this
// module. Callers should treat ErrLoadNotImplemented as expected.
func (s *HashedPerceptron) Load(string) error { return ErrLoadNotImplemented }
