package training

import "github.com/agglutrain/latticecore/score"

// WeightUpdater applies a trainer's signed feature gradient to a weight
// table, scaled by the trainer's scalar loss.
type WeightUpdater interface {
	Update(table *score.WeightTable, features []ScoredFeature, loss float32) error
}

// SimpleUpdater is a plain additive perceptron update: each feature's
// weight moves by rate * loss * its signed score. It exists as a
// reference and test fixture, not the production learning rule; it
// ignores per-feature confidence entirely.
type SimpleUpdater struct {
	Rate float32
}

// NewSimpleUpdater returns an updater with the given learning rate.
func NewSimpleUpdater(rate float32) *SimpleUpdater {
	return &SimpleUpdater{Rate: rate}
}

// Update adds Rate*loss*Score to every feature's weight.
func (u *SimpleUpdater) Update(table *score.WeightTable, features []ScoredFeature, loss float32) error {
	step := u.Rate * loss
	for _, f := range features {
		table.AddAt(f.Feature, step*f.Score)
	}
	return nil
}

// SCWUpdater is a placeholder for the confidence-weighted online learner
// (soft-margin SCW-I with a per-feature variance estimate); computing the
// confidence update requires the second-moment weight statistics that
// this module's weight table doesn't persist, so it is left unimplemented
// rather than approximated.
type SCWUpdater struct{}

// NewSCWUpdater returns an unimplemented confidence-weighted updater.
func NewSCWUpdater() *SCWUpdater { return &SCWUpdater{} }

// Update always fails: see SCWUpdater's doc comment.
func (u *SCWUpdater) Update(table *score.WeightTable, features []ScoredFeature, loss float32) error {
	return &Error{Kind: NotImplemented, Err: ErrNotImplemented}
}
