package training_test

import (
	"context"
	"testing"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/score"
	"github.com/agglutrain/latticecore/training"
)

func TestMetricsStoreInsertAndRecentSteps(t *testing.T) {
	store, err := training.OpenMetricsStore(":memory:")
	if err != nil {
		t.Fatalf("OpenMetricsStore: %v", err)
	}
	defer store.Close()

	sess := training.NewSession(store)
	for i := 0; i < 3; i++ {
		if err := sess.RecordStep(0, i, float32(i)*0.1, 5+i); err != nil {
			t.Fatalf("RecordStep: %v", err)
		}
	}

	steps, err := store.RecentSteps(sess.ID, 10)
	if err != nil {
		t.Fatalf("RecentSteps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(steps))
	}
	if steps[0].Step != 2 {
		t.Fatalf("steps[0].Step = %d, want 2 (newest first)", steps[0].Step)
	}
}

func TestSessionRecordStepNoStoreIsNoop(t *testing.T) {
	sess := training.NewSession(nil)
	if err := sess.RecordStep(0, 0, 1.0, 1); err != nil {
		t.Fatalf("RecordStep with nil store: %v", err)
	}
}

func TestSessionEpochSummary(t *testing.T) {
	sess := training.NewSession(nil)
	mean, stddev := sess.EpochSummary([]float64{1, 2, 3})
	if mean != 2 {
		t.Fatalf("mean = %v, want 2", mean)
	}
	if stddev <= 0 {
		t.Fatalf("stddev = %v, want > 0", stddev)
	}
}

func TestRunWorkersProcessesAllExamplesAcrossConcurrentShards(t *testing.T) {
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	dict.Add("ab", "N", "sg", "ab")

	calc := feature.NewCalculator(feature.DefaultTemplates())
	table := score.NewWeightTable(6)
	sdef := &score.Def{Scorer: score.NewHashedPerceptron(table), Calculator: calc}

	const total = 12
	examples := make([]*training.PartialExample, total)
	for i := range examples {
		examples[i] = &training.PartialExample{Surface: "ab", Boundaries: []int{4}}
	}
	newAnalyzer := func() analysis.Analyzer { return analysis.NewDictAnalyzer(dict, 4) }

	// Every shard shares sdef's HashedPerceptron and calls Compute
	// concurrently; a scratch buffer race there would corrupt feature
	// hashes and could turn this deterministic zero loss into garbage.
	results, err := training.RunWorkers(context.Background(), 4, examples, newAnalyzer, calc, table.Mask(), sdef)
	if err != nil {
		t.Fatalf("RunWorkers: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}

	gotTotal := 0
	for i, r := range results {
		gotTotal += len(r.Examples)
		if got := r.Trainer.LossValue(); got != 0 {
			t.Fatalf("shard %d: LossValue() = %v, want 0", i, got)
		}
	}
	if gotTotal != total {
		t.Fatalf("total examples processed = %d, want %d", gotTotal, total)
	}
}

func TestSessionEpochSummaryEmpty(t *testing.T) {
	sess := training.NewSession(nil)
	mean, stddev := sess.EpochSummary(nil)
	if mean != 0 || stddev != 0 {
		t.Fatalf("EpochSummary(nil) = (%v, %v), want (0, 0)", mean, stddev)
	}
}
