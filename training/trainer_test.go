package training_test

import (
	"testing"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/score"
	"github.com/agglutrain/latticecore/training"
)

// newFixture builds a trainer over a two-codepoint surface "ab" with a
// single dictionary entry spanning the whole word, plus the unknown-word
// fallbacks PrepareNodeSeeds always adds. With a freshly zeroed weight
// table every edge scores 0, so ties break on insertion order and the
// decoded top-1 path is deterministic: BOS0, BOS1, "ab"(2..4), EOS(4).
func newFixture(t *testing.T) (*training.Trainer, *analysis.DictAnalyzer, *score.Def) {
	t.Helper()
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	dict.Add("ab", "N", "sg", "ab")

	calc := feature.NewCalculator(feature.DefaultTemplates())
	table := score.NewWeightTable(6)
	sdef := &score.Def{Scorer: score.NewHashedPerceptron(table), Calculator: calc}

	an := analysis.NewDictAnalyzer(dict, 4)
	tr := training.NewTrainer(an, calc, table.Mask())
	return tr, an, sdef
}

func computeFor(t *testing.T, tr *training.Trainer, sdef *score.Def, ex *training.PartialExample) {
	t.Helper()
	tr.SetExample(ex)
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := tr.Compute(sdef); err != nil {
		t.Fatalf("Compute: %v", err)
	}
}

func TestTrainerZeroLossWhenOnlyBoundaryIsWholeWord(t *testing.T) {
	tr, _, sdef := newFixture(t)
	// The only committed cut is the end of the whole input: it never
	// straddles any candidate node, so no constraint is violated.
	computeFor(t, tr, sdef, &training.PartialExample{Surface: "ab", Boundaries: []int{4}})
	if got := tr.LossValue(); got != 0 {
		t.Fatalf("LossValue() = %v, want 0", got)
	}
}

func TestTrainerPositiveLossWhenGoldSplitsTopChoice(t *testing.T) {
	tr, _, sdef := newFixture(t)
	// Boundary 3 falls strictly inside the top-1 "ab" node's span
	// (2..4), so the decoded path violates the annotator's cut.
	computeFor(t, tr, sdef, &training.PartialExample{Surface: "ab", Boundaries: []int{3}})
	if got := tr.LossValue(); got <= 0 {
		t.Fatalf("LossValue() = %v, want > 0", got)
	}
}

func TestTrainerFeatureDiffIsSortedMaskedAndDeduped(t *testing.T) {
	tr, _, sdef := newFixture(t)
	computeFor(t, tr, sdef, &training.PartialExample{Surface: "ab", Boundaries: []int{3}})

	diff := tr.FeatureDiff()
	if len(diff) == 0 {
		t.Fatalf("FeatureDiff() is empty, want at least one feature from the boundary violation")
	}
	for i := 1; i < len(diff); i++ {
		if diff[i-1].Feature >= diff[i].Feature {
			t.Fatalf("FeatureDiff not strictly increasing at index %d: %d >= %d", i, diff[i-1].Feature, diff[i].Feature)
		}
	}
	mask := uint32(63)
	for _, f := range diff {
		if f.Feature > mask {
			t.Fatalf("feature hash %d exceeds mask %d", f.Feature, mask)
		}
	}
}

// newTagFixture builds a trainer over the two-codepoint surface "ab" with
// two competing readings of "a" (POS N and POS V) and one reading of "b"
// (POS X), so the decoded path always has two separate one-codepoint
// content nodes instead of one whole-word node. With a freshly zeroed
// weight table the decoded top-1 path is deterministic: BOS0, BOS1,
// "a"/N(2..3), "b"/X(3..4), EOS(4).
func newTagFixture(t *testing.T) (*training.Trainer, *score.Def, *analysis.DictionarySpec) {
	t.Helper()
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	dict.Add("a", "N", "sg", "a")
	dict.Add("a", "V", "sg", "a")
	dict.Add("b", "X", "sg", "b")

	calc := feature.NewCalculator(feature.DefaultTemplates())
	table := score.NewWeightTable(6)
	sdef := &score.Def{Scorer: score.NewHashedPerceptron(table), Calculator: calc}

	an := analysis.NewDictAnalyzer(dict, 4)
	tr := training.NewTrainer(an, calc, table.Mask())
	return tr, sdef, spec
}

func TestTrainerTagMismatchPenalizesViaAddBadNode2(t *testing.T) {
	tr, sdef, spec := newTagFixture(t)
	vID, ok := spec.POS.Resolve("V")
	if !ok {
		t.Fatalf("POS %q was never interned", "V")
	}
	// The top-1 node at boundary 2 is "a"/N, so pinning POS to V here is a
	// mismatch: it should penalize the top-1 choice and credit "a"/V, the
	// one competing node that does satisfy the constraint.
	ex := &training.PartialExample{
		Surface:    "ab",
		Boundaries: []int{4},
		Nodes: []training.NodeConstraint{
			{Boundary: 2, Length: 1, Tags: []training.TagConstraint{{Field: feature.FieldPOS, Value: vID}}},
		},
	}
	computeFor(t, tr, sdef, ex)
	if got := tr.LossValue(); got <= 0 {
		t.Fatalf("LossValue() = %v, want > 0", got)
	}
	if len(tr.FeatureDiff()) == 0 {
		t.Fatalf("FeatureDiff() is empty, want credit/penalty features from the POS mismatch")
	}
}

func TestTrainerAddBadNode2ReturnsZeroWithNoCompetingNodes(t *testing.T) {
	tr, sdef, _ := newTagFixture(t)
	// No node starting at boundary 2 is ever 99 codepoints long, so the
	// constraint is unsatisfiable: addBadNode2 must find zero competing
	// nodes and contribute neither loss nor a feature.
	ex := &training.PartialExample{
		Surface:    "ab",
		Boundaries: []int{4},
		Nodes: []training.NodeConstraint{
			{Boundary: 2, Length: 99},
		},
	}
	computeFor(t, tr, sdef, ex)
	if got := tr.LossValue(); got != 0 {
		t.Fatalf("LossValue() = %v, want 0: an unsatisfiable node constraint must not manufacture loss", got)
	}
	if diff := tr.FeatureDiff(); len(diff) != 0 {
		t.Fatalf("FeatureDiff() = %v, want empty: addBadNode2 must not emit a penalty feature when it has no competing node to credit", diff)
	}
}

func TestTrainerEosMismatchPenalizesFinalNode(t *testing.T) {
	tr, sdef, spec := newTagFixture(t)
	unkID, ok := spec.POS.Resolve("UNK")
	if !ok {
		t.Fatalf("POS %q was never interned", "UNK")
	}
	// Boundary 3 is now a committed cut, so "b"/UNK (POS UNK) is a legal
	// alternative reading the annotator would have accepted; the top-1
	// choice "b"/X isn't, so handleEos should credit "b"/UNK and penalize
	// the EOS-adjacent top-1 node.
	ex := &training.PartialExample{
		Surface:    "ab",
		Boundaries: []int{3, 4},
		Nodes: []training.NodeConstraint{
			{Boundary: 3, Length: 1, Tags: []training.TagConstraint{{Field: feature.FieldPOS, Value: unkID}}},
		},
	}
	computeFor(t, tr, sdef, ex)
	if got := tr.LossValue(); got <= 0 {
		t.Fatalf("LossValue() = %v, want > 0", got)
	}
	if len(tr.FeatureDiff()) == 0 {
		t.Fatalf("FeatureDiff() is empty, want handleEos's credit/penalty features")
	}
}

func TestTrainerMarkGoldVisitsAtLeastOneNode(t *testing.T) {
	tr, an, sdef := newFixture(t)
	ex := &training.PartialExample{Surface: "ab", Boundaries: []int{4}}
	tr.SetExample(ex)
	if err := tr.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := tr.Compute(sdef); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	visited := 0
	tr.MarkGold(an.Lattice(), func(_ lattice.LatticeNodePtr) { visited++ })
	if visited == 0 {
		t.Fatalf("MarkGold visited no nodes, want at least the boundary-2 node")
	}
}
