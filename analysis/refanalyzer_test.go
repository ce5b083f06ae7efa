package analysis_test

import (
	"testing"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/score"
)

func newTestDef() *score.Def {
	calc := feature.NewCalculator(feature.DefaultTemplates())
	table := score.NewWeightTable(10)
	return &score.Def{Scorer: score.NewHashedPerceptron(table), Calculator: calc}
}

func runAnalyzer(t *testing.T, dict *analysis.Dictionary, surface string) *lattice.Lattice {
	t.Helper()
	a := analysis.NewDictAnalyzer(dict, 2)
	if err := a.ResetForInput(surface); err != nil {
		t.Fatalf("ResetForInput: %v", err)
	}
	if err := a.PrepareNodeSeeds(); err != nil {
		t.Fatalf("PrepareNodeSeeds: %v", err)
	}
	if err := a.BuildLattice(); err != nil {
		t.Fatalf("BuildLattice: %v", err)
	}
	if err := a.BootstrapAnalysis(); err != nil {
		t.Fatalf("BootstrapAnalysis: %v", err)
	}
	if err := a.ComputeScores(newTestDef()); err != nil {
		t.Fatalf("ComputeScores: %v", err)
	}
	return a.Lattice()
}

func TestBuildLatticeBoundaryCount(t *testing.T) {
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	dict.Add("もも", "N", "0", "もも")

	lat := runAnalyzer(t, dict, "もも")
	// 2 codepoints + BOS(2) + EOS(1) = 5 boundaries.
	if got := lat.CreatedBoundaryCount(); got != 5 {
		t.Fatalf("CreatedBoundaryCount() = %d, want 5", got)
	}
}

func TestEOSBeamHasNonFakeTopEntry(t *testing.T) {
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	dict.Add("もも", "N", "0", "もも")

	lat := runAnalyzer(t, dict, "もも")
	eosB := lat.CreatedBoundaryCount() - 1
	top := lat.Boundary(eosB).Starts().BeamData().At(0)
	if lattice.IsFake(top) {
		t.Fatalf("EOS top-1 beam entry is fake")
	}
}

func TestUnknownWordFallbackAlwaysPresent(t *testing.T) {
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	// No dictionary entries at all: every position must still get a
	// length-one UNK node so the lattice stays connected end to end.
	lat := runAnalyzer(t, dict, "xy")
	eosB := lat.CreatedBoundaryCount() - 1
	top := lat.Boundary(eosB).Starts().BeamData().At(0)
	if lattice.IsFake(top) {
		t.Fatalf("EOS beam is fake with no dictionary coverage; UNK fallback nodes did not connect the lattice")
	}
}

func TestDictionaryLookupAndUnkTemplate(t *testing.T) {
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	dict.Add("UNK", "N", "5", "")

	entries := dict.UnkEntries("z")
	if len(entries) != 1 {
		t.Fatalf("UnkEntries() returned %d entries, want 1", len(entries))
	}
	wantPOS, _ := spec.POS.Resolve("N")
	if entries[0].POS != wantPOS {
		t.Fatalf("UnkEntries()[0].POS = %d, want %d (interned \"N\")", entries[0].POS, wantPOS)
	}
}

func TestDictionaryLookupMiss(t *testing.T) {
	spec := analysis.NewDictionarySpec()
	dict := analysis.NewDictionary(spec)
	if got := dict.Lookup("nope"); got != nil {
		t.Fatalf("Lookup on unknown surface returned %v, want nil", got)
	}
}
