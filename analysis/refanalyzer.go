package analysis

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/internal/codepoint"
	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/score"
)

// GlobalBeam bounds how many predecessor nodes and how many sibling
// nodes ComputeScores considers per boundary, trading recall for speed.
// Zero means unbounded.
//
// RightCheck is accepted and stored for parity with spec.md §6's
// three-argument (leftBeam, rightCheck, rightBeam) config shape, but
// ComputeScores does not consume it — see DESIGN.md's Open Question
// decisions for why.
type GlobalBeam struct {
	Left       int
	RightCheck int
	Right      int
}

type seed struct {
	start  int
	length int
	entry  lattice.EntryRow
}

// DictAnalyzer is a reference Analyzer implementation over an in-memory
// Dictionary: it seeds nodes by exact substring lookup (plus, at every
// start position, one length-one unknown-word fallback per entry that
// Dictionary.UnkEntries returns), links the
// lattice, installs the BOS sentinels, and beam-decodes with a
// configurable global beam.
type DictAnalyzer struct {
	dict       *Dictionary
	beamSize   int
	maxNodeLen int
	beam       *GlobalBeam

	codepoints []rune
	seeds      []seed
	lat        *lattice.Lattice
}

// NewDictAnalyzer returns an analyzer backed by dict, keeping up to
// beamSize back-pointers per node.
func NewDictAnalyzer(dict *Dictionary, beamSize int) *DictAnalyzer {
	return &DictAnalyzer{dict: dict, beamSize: beamSize, maxNodeLen: 8}
}

// SetMaxNodeLen bounds how many codepoints a dictionary lookup may span.
func (a *DictAnalyzer) SetMaxNodeLen(n int) { a.maxNodeLen = n }

// SetGlobalBeam implements Analyzer.
func (a *DictAnalyzer) SetGlobalBeam(left, rightCheck, right int) bool {
	changed := a.beam == nil || a.beam.Left != left || a.beam.RightCheck != rightCheck || a.beam.Right != right
	a.beam = &GlobalBeam{Left: left, RightCheck: rightCheck, Right: right}
	return changed
}

// ResetForInput implements Analyzer.
func (a *DictAnalyzer) ResetForInput(surface string) error {
	cps, err := codepoint.Normalize(surface)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	a.codepoints = cps
	a.seeds = a.seeds[:0]
	a.lat = nil
	return nil
}

// PrepareNodeSeeds implements Analyzer.
func (a *DictAnalyzer) PrepareNodeSeeds() error {
	n := len(a.codepoints)
	for start := 0; start < n; start++ {
		boundary := start + 2
		maxLen := n - start
		if a.maxNodeLen > 0 && maxLen > a.maxNodeLen {
			maxLen = a.maxNodeLen
		}
		for length := 1; length <= maxLen; length++ {
			chunk := a.codepoints[start : start+length]
			for _, e := range a.dict.Lookup(string(chunk)) {
				a.seeds = append(a.seeds, seed{start: boundary, length: length, entry: entryRowFrom(e, chunk)})
			}
		}
		chunk := a.codepoints[start : start+1]
		for _, e := range a.dict.UnkEntries(string(chunk)) {
			a.seeds = append(a.seeds, seed{start: boundary, length: 1, entry: entryRowFrom(e, chunk)})
		}
	}
	return nil
}

// BuildLattice implements Analyzer.
func (a *DictAnalyzer) BuildLattice() error {
	n := len(a.codepoints)
	boundaryCount := n + 3
	l := lattice.New(boundaryCount)

	bos0 := l.Boundary(0).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 1}, make(lattice.EntryRow, feature.NumFields), a.beamSize)
	l.LinkEnd(lattice.LatticeNodePtr{Boundary: 0, Position: uint16(bos0)}, 1)

	bos1 := l.Boundary(1).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 1}, make(lattice.EntryRow, feature.NumFields), a.beamSize)
	l.LinkEnd(lattice.LatticeNodePtr{Boundary: 1, Position: uint16(bos1)}, 2)

	for _, s := range a.seeds {
		pos := l.Boundary(s.start).Starts().AddNode(lattice.NodeInfo{NumCodepoints: int32(s.length)}, s.entry, a.beamSize)
		end := s.start + s.length
		l.LinkEnd(lattice.LatticeNodePtr{Boundary: uint16(s.start), Position: uint16(pos)}, end)
	}

	eosB := boundaryCount - 1
	l.Boundary(eosB).Starts().AddNode(lattice.NodeInfo{NumCodepoints: 0}, make(lattice.EntryRow, feature.NumFields), a.beamSize)

	a.lat = l
	return nil
}

// BootstrapAnalysis implements Analyzer.
func (a *DictAnalyzer) BootstrapAnalysis() error {
	l := a.lat
	if l == nil {
		return fmt.Errorf("analysis: BootstrapAnalysis called before BuildLattice")
	}
	arena := l.Arena()

	row0 := l.Boundary(0).Starts().BeamData().Row(0)
	row0[0] = lattice.BeamEntry{Ref: arena.BOS(), Score: 0}

	bos1Ref := arena.Add(lattice.ConnectionPtr{Boundary: 1, Right: 0, Previous: arena.BOS()})
	row1 := l.Boundary(1).Starts().BeamData().Row(0)
	row1[0] = lattice.BeamEntry{Ref: bos1Ref, Score: 0}

	return nil
}

// ComputeScores implements Analyzer.
func (a *DictAnalyzer) ComputeScores(sdef *score.Def) error {
	l := a.lat
	if l == nil {
		return fmt.Errorf("analysis: ComputeScores called before BuildLattice")
	}
	total := l.CreatedBoundaryCount()

	type candidate struct {
		conn  lattice.ConnectionPtr
		score float32
	}

	for b := 2; b < total; b++ {
		preds := l.Boundary(b).Ends().NodePtrs()
		if len(preds) == 0 {
			continue
		}
		if a.beam != nil && a.beam.Left > 0 && len(preds) > a.beam.Left {
			preds = preds[:a.beam.Left]
		}

		starts := l.Boundary(b).Starts()
		numEntries := starts.NumEntries()
		if a.beam != nil && a.beam.Right > 0 && numEntries > a.beam.Right {
			numEntries = a.beam.Right
		}

		for pos := 0; pos < numEntries; pos++ {
			var cands []candidate
			for _, pred := range preds {
				predRow := l.Boundary(int(pred.Boundary)).Starts().BeamData().Row(int(pred.Position))
				for _, be := range predRow {
					if lattice.IsFake(be) {
						break
					}
					t1 := l.Arena().Get(be.Ref)
					t2 := l.Arena().Get(t1.Previous)
					ref := feature.NgramFeatureRef{
						T2: t2.LatticeNodePtr(),
						T1: t1.LatticeNodePtr(),
						T0: lattice.LatticeNodePtr{Boundary: uint16(b), Position: uint16(pos)},
					}
					var edge [1]float32
					if err := sdef.Scorer.Compute(edge[:], sdef.Calculator, l, []feature.NgramFeatureRef{ref}); err != nil {
						return err
					}
					conn := lattice.ConnectionPtr{Boundary: uint16(b), Right: uint16(pos), Previous: be.Ref}
					cands = append(cands, candidate{conn: conn, score: be.Score + edge[0]})
				}
			}
			if len(cands) == 0 {
				continue
			}
			sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

			beamRow := starts.BeamData().Row(pos)
			for i := range beamRow {
				if i < len(cands) {
					ref := l.Arena().Add(cands[i].conn)
					beamRow[i] = lattice.BeamEntry{Ref: ref, Score: cands[i].score}
				} else {
					beamRow[i] = lattice.FakeEntry()
				}
			}
		}
	}
	return nil
}

// Lattice implements Analyzer.
func (a *DictAnalyzer) Lattice() *lattice.Lattice { return a.lat }

func entryRowFrom(e DictEntry, chunk []rune) lattice.EntryRow {
	row := make(lattice.EntryRow, feature.NumFields)
	row[feature.FieldSurface] = int32(e.SurfaceID)
	row[feature.FieldPOS] = int32(e.POS)
	row[feature.FieldSubPOS] = int32(e.SubPOS)
	row[feature.FieldBaseForm] = int32(e.BaseForm)
	row[feature.FieldFormType] = int32(e.FormType)
	if e.Functional {
		row[feature.FieldFunctional] = 1
	}
	if e.Numeric {
		row[feature.FieldNumeric] = 1
	}
	if n := len(chunk); n > 0 {
		row[feature.FieldFirstCP] = int32(chunk[0])
		row[feature.FieldLastCP] = int32(chunk[n-1])
		row[feature.FieldFirstCPClass] = int32(charClass(chunk[0]))
		row[feature.FieldLastCPClass] = int32(charClass(chunk[n-1]))
		row[feature.FieldPrefix] = int32(HashUnkString(string(chunk[0])))
		row[feature.FieldSuffix] = int32(HashUnkString(string(chunk[n-1])))
	}
	if len(chunk) > 1 {
		row[feature.FieldLonger] = 1
	}
	return row
}

func charClass(r rune) int32 {
	switch {
	case unicode.IsDigit(r):
		return 1
	case unicode.IsUpper(r):
		return 2
	case unicode.IsLower(r):
		return 3
	default:
		return 0
	}
}
