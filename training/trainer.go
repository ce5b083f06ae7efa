package training

import (
	"sort"

	"github.com/agglutrain/latticecore/analysis"
	"github.com/agglutrain/latticecore/feature"
	"github.com/agglutrain/latticecore/lattice"
	"github.com/agglutrain/latticecore/path"
	"github.com/agglutrain/latticecore/score"
)

// ScoredFeature is one signed entry in a trainer's feature gradient: a
// masked feature hash and the (possibly negative) weight it should be
// nudged by.
type ScoredFeature struct {
	Feature uint32
	Score   float32
}

// Trainer runs one partial example through an Analyzer and compares the
// resulting top-1 path against the example's constraints, accumulating a
// signed feature gradient and a scalar loss.
type Trainer struct {
	analyzer analysis.Analyzer
	calc     *feature.Calculator
	mask     uint32
	top1     *path.Walker

	example    *PartialExample
	features   []ScoredFeature
	loss       float32
	featureBuf []uint32
}

// NewTrainer returns a trainer driving analyzer, hashing features with
// calc, masking every feature hash to the given weight-table size.
func NewTrainer(analyzer analysis.Analyzer, calc *feature.Calculator, mask uint32) *Trainer {
	return &Trainer{analyzer: analyzer, calc: calc, mask: mask, top1: path.New()}
}

// SetExample adopts the example the next Prepare/Compute pair will run.
func (t *Trainer) SetExample(ex *PartialExample) { t.example = ex }

// Prepare resets the analyzer for the current example's surface and
// drives it through seed preparation, lattice construction, and BOS
// bootstrap, but does not yet score anything.
func (t *Trainer) Prepare() error {
	if err := t.analyzer.ResetForInput(t.example.Surface); err != nil {
		return wrapAnalyzer(err)
	}
	if err := t.analyzer.PrepareNodeSeeds(); err != nil {
		return wrapAnalyzer(err)
	}
	if err := t.analyzer.BuildLattice(); err != nil {
		return wrapAnalyzer(err)
	}
	if err := t.analyzer.BootstrapAnalysis(); err != nil {
		return wrapAnalyzer(err)
	}
	return nil
}

// Compute runs the beam search, then compares the resulting top-1 path
// against the current example's constraints, filling FeatureDiff and
// LossValue.
func (t *Trainer) Compute(sdef *score.Def) error {
	if err := t.analyzer.ComputeScores(sdef); err != nil {
		return wrapAnalyzer(err)
	}
	lat := t.analyzer.Lattice()
	if err := t.top1.FillIn(lat); err != nil {
		return &Error{Kind: InvariantViolation, Err: err}
	}

	t.features = t.features[:0]
	t.loss = 0

	t.handleBoundaryConstraints(lat)
	t.handleTagConstraints(lat)
	t.handleEos(lat)
	t.finalizeFeatures()
	return nil
}

// Lattice returns the analyzer's lattice built by the last Prepare call.
func (t *Trainer) Lattice() *lattice.Lattice { return t.analyzer.Lattice() }

// LossValue returns the scalar loss accumulated by the last Compute.
func (t *Trainer) LossValue() float32 { return t.loss }

// FeatureDiff returns the signed sparse feature gradient accumulated by
// the last Compute, coalesced and sorted by masked feature hash.
func (t *Trainer) FeatureDiff() []ScoredFeature { return t.features }

// MarkGold invokes cb once for every node in the lattice that is
// compatible with the current example's constraints.
func (t *Trainer) MarkGold(lat *lattice.Lattice, cb func(lattice.LatticeNodePtr)) {
	for b := 0; b < lat.CreatedBoundaryCount(); b++ {
		starts := lat.Boundary(b).Starts()
		for pos := 0; pos < starts.NumEntries(); pos++ {
			if t.example.DoesNodeMatch(lat, b, pos) {
				cb(lattice.LatticeNodePtr{Boundary: uint16(b), Position: uint16(pos)})
			}
		}
	}
}

func (t *Trainer) featBuf() []uint32 {
	n := t.calc.NumTemplates()
	if cap(t.featureBuf) < n {
		t.featureBuf = make([]uint32, n)
	}
	return t.featureBuf[:n]
}

// handleBoundaryConstraints walks the top-1 path backward from EOS,
// comparing each node's span against the example's committed boundary
// cuts, and penalizes any node that straddles one.
func (t *Trainer) handleBoundaryConstraints(lat *lattice.Lattice) {
	eosB := lat.CreatedBoundaryCount() - 1
	top1Entry := lat.Boundary(eosB).Starts().BeamData().At(0)
	nodeEnd := lat.Arena().Get(top1Entry.Ref)
	nodeStart := lat.Arena().Get(nodeEnd.Previous)

	bnds := t.example.Boundaries
	bi := len(bnds) - 1
	total := t.top1.TotalNodes()

	for nodeStart.Boundary > 1 && bi >= 0 {
		bndary := bnds[bi]
		switch {
		case int(nodeStart.Boundary) == bndary:
			bi--
			nodeEnd = nodeStart
			nodeStart = lat.Arena().Get(nodeEnd.Previous)
		case int(nodeStart.Boundary) < bndary && bndary < int(nodeEnd.Boundary):
			nextBoundary := 2
			if bi-1 >= 0 {
				nextBoundary = bnds[bi-1]
			}
			t.addBadNode(lat, nodeStart, bndary, nextBoundary)
			if total > 0 {
				t.loss += 1.0 / float32(total)
			}
			bi--
		case bndary >= int(nodeEnd.Boundary):
			bi--
		default:
			nodeEnd = nodeStart
			nodeStart = lat.Arena().Get(nodeEnd.Previous)
		}
	}
}

// addBadNode penalizes node (which straddles the gold cut at boundary)
// against every node that legally ends at boundary and starts no earlier
// than prevBoundary, spreading positive credit across those alternatives
// and canceling it with a matching negative credit on node itself.
func (t *Trainer) addBadNode(lat *lattice.Lattice, node lattice.ConnectionPtr, boundary, prevBoundary int) {
	goodBnd := lat.Boundary(boundary)
	endingNodes := goodBnd.Ends().NodePtrs()
	rowSize := goodBnd.Starts().BeamData().RowSize()
	if len(endingNodes) == 0 || rowSize == 0 {
		return
	}
	posScore := 1.0 / float32(len(endingNodes)*rowSize)
	buf := t.featBuf()

	count := 0
	for _, end := range endingNodes {
		if int(end.Boundary) < prevBoundary {
			continue
		}
		beam := lat.Boundary(int(end.Boundary)).Starts().BeamData().Row(int(end.Position))
		for _, be := range beam {
			if lattice.IsFake(be) {
				break
			}
			t0 := lat.Arena().Get(be.Ref)
			if t0 == node {
				continue
			}
			t1 := lat.Arena().Get(t0.Previous)
			t2 := lat.Arena().Get(t1.Previous)
			ref := feature.NgramFeatureRef{T2: t2.LatticeNodePtr(), T1: t1.LatticeNodePtr(), T0: t0.LatticeNodePtr()}
			if err := t.calc.Calculate(lat, ref, buf); err != nil {
				continue
			}
			count++
			for _, f := range buf {
				t.features = append(t.features, ScoredFeature{Feature: f, Score: posScore})
			}
		}
	}

	t1 := lat.Arena().Get(node.Previous)
	t2 := lat.Arena().Get(t1.Previous)
	ref := feature.NgramFeatureRef{T2: t2.LatticeNodePtr(), T1: t1.LatticeNodePtr(), T0: node.LatticeNodePtr()}
	if err := t.calc.Calculate(lat, ref, buf); err == nil {
		neg := -float32(count) * posScore
		for _, f := range buf {
			t.features = append(t.features, ScoredFeature{Feature: f, Score: neg})
		}
	}
}

// handleTagConstraints checks every fully-specified node constraint
// against the node at that boundary on the top-1 path, penalizing a
// length or tag mismatch.
func (t *Trainer) handleTagConstraints(lat *lattice.Lattice) {
	t.top1.Reset()
	total := t.top1.TotalNodes()
	var nodeRatio float32
	if total > 0 {
		nodeRatio = 1.0 / float32(total)
	}

	for _, nc := range t.example.Nodes {
		if !t.top1.MoveToBoundary(nc.Boundary) {
			continue
		}
		var ptr lattice.ConnectionPtr
		if !t.top1.NextNode(&ptr) {
			continue
		}

		info := lat.Boundary(int(ptr.Boundary)).Starts().NodeInfo().At(int(ptr.Right))
		if int(info.NumCodepoints) != nc.Length {
			t.loss += nodeRatio * t.addBadNode2(lat, &ptr, int(ptr.Boundary), nc.Length, nc.Tags)
			continue
		}

		row := lat.Boundary(int(ptr.Boundary)).Starts().EntryData().Row(int(ptr.Right))
		mismatched := false
		for _, tag := range nc.Tags {
			if row[tag.Field] != int32(tag.Value) {
				mismatched = true
				break
			}
		}
		if mismatched {
			t.loss += nodeRatio * t.addBadNode2(lat, &ptr, int(ptr.Boundary), nc.Length, nc.Tags)
		}
	}
}

// addBadNode2 penalizes node against every sibling node at the same
// boundary that matches the constraint (length + tags) node itself
// violated, and returns the fraction of that boundary's nodes which did
// match, for use as a node-level loss weight.
func (t *Trainer) addBadNode2(lat *lattice.Lattice, node *lattice.ConnectionPtr, boundary, length int, tags []TagConstraint) float32 {
	bndNodes := lat.Boundary(boundary).Starts()
	numEntries := bndNodes.NumEntries()

	matchesConstraint := func(pos int) bool {
		if int(bndNodes.NodeInfo().At(pos).NumCodepoints) != length {
			return false
		}
		row := bndNodes.EntryData().Row(pos)
		for _, tag := range tags {
			if row[tag.Field] != int32(tag.Value) {
				return false
			}
		}
		return true
	}

	count := 0
	nodes := 0
	for i := 0; i < numEntries; i++ {
		if !matchesConstraint(i) {
			continue
		}
		nodes++
		for _, be := range bndNodes.BeamData().Row(i) {
			if lattice.IsFake(be) {
				break
			}
			t0 := lat.Arena().Get(be.Ref)
			if t0 == *node {
				continue
			}
			count++
		}
	}

	if count == 0 {
		return 0
	}

	posScore := 1.0 / float32(count)
	buf := t.featBuf()
	for i := 0; i < numEntries; i++ {
		if !matchesConstraint(i) {
			continue
		}
		for _, be := range bndNodes.BeamData().Row(i) {
			if lattice.IsFake(be) {
				break
			}
			t0 := lat.Arena().Get(be.Ref)
			if t0 == *node {
				continue
			}
			t1 := lat.Arena().Get(t0.Previous)
			t2 := lat.Arena().Get(t1.Previous)
			ref := feature.NgramFeatureRef{T2: t2.LatticeNodePtr(), T1: t1.LatticeNodePtr(), T0: t0.LatticeNodePtr()}
			if err := t.calc.Calculate(lat, ref, buf); err != nil {
				continue
			}
			for _, f := range buf {
				t.features = append(t.features, ScoredFeature{Feature: f, Score: posScore})
			}
		}
	}

	t1 := lat.Arena().Get(node.Previous)
	t2 := lat.Arena().Get(t1.Previous)
	ref := feature.NgramFeatureRef{T2: t2.LatticeNodePtr(), T1: t1.LatticeNodePtr(), T0: node.LatticeNodePtr()}
	if err := t.calc.Calculate(lat, ref, buf); err == nil {
		for _, f := range buf {
			t.features = append(t.features, ScoredFeature{Feature: f, Score: -1})
		}
	}

	if numEntries == 0 {
		return 0
	}
	return float32(nodes) / float32(numEntries)
}

// handleEos checks whether the top-1 path's final content node is
// compatible with the example's constraints; if it is, EOS needs no
// correction. If it isn't, every legally EOS-adjacent node that does
// match the constraints gets positive credit, canceled by a matching
// negative credit on the top-1 choice.
func (t *Trainer) handleEos(lat *lattice.Lattice) {
	eosB := lat.CreatedBoundaryCount() - 1
	eos := lat.Boundary(eosB)
	top1Entry := eos.Starts().BeamData().At(0)
	top1Ptr := lat.Arena().Get(top1Entry.Ref)
	prev := lat.Arena().Get(top1Ptr.Previous)

	prevPos := int(prev.Right)
	prevBoundary := int(prev.Boundary)
	prevInfo := lat.Boundary(prevBoundary).Starts().NodeInfo().At(prevPos)
	prevLen := int(prevInfo.NumCodepoints)
	prevStart := prevBoundary
	prevEnd := prevStart + prevLen

	invalid := false
	for _, b := range t.example.Boundaries {
		if prevStart < b && b < prevEnd {
			invalid = true
			break
		}
	}

	if !invalid {
		prevRow := lat.Boundary(prevBoundary).Starts().EntryData().Row(prevPos)
		for _, nc := range t.example.Nodes {
			if nc.Boundary != prevStart {
				continue
			}
			if nc.Length != prevLen {
				invalid = true
				break
			}
			for _, tag := range nc.Tags {
				if prevRow[tag.Field] != int32(tag.Value) {
					invalid = true
					break
				}
			}
			break
		}
	}

	if !invalid {
		return
	}

	endingAtEos := eos.Ends().NodePtrs()

	nodes := 0
	beams := 0
	for _, prevPtr := range endingAtEos {
		if !t.example.DoesNodeMatch(lat, int(prevPtr.Boundary), int(prevPtr.Position)) {
			continue
		}
		if prev.LatticeNodePtr() == prevPtr {
			return
		}
		nodes++
		starts := lat.Boundary(int(prevPtr.Boundary)).Starts()
		for _, be := range starts.BeamData().Row(int(prevPtr.Position)) {
			if lattice.IsFake(be) {
				break
			}
			beams++
		}
	}

	if nodes == 0 {
		return
	}

	total := lat.CreatedBoundaryCount()
	t.loss += float32(nodes) / float32(len(endingAtEos)) / float32(total)

	buf := t.featBuf()
	eosPtr := lattice.LatticeNodePtr{Boundary: uint16(eosB), Position: 0}

	for _, prevPtr := range endingAtEos {
		if !t.example.DoesNodeMatch(lat, int(prevPtr.Boundary), int(prevPtr.Position)) {
			continue
		}
		starts := lat.Boundary(int(prevPtr.Boundary)).Starts()
		for _, be := range starts.BeamData().Row(int(prevPtr.Position)) {
			if lattice.IsFake(be) {
				break
			}
			cand := lat.Arena().Get(be.Ref)
			prev2 := lat.Arena().Get(cand.Previous)
			ref := feature.NgramFeatureRef{T2: prev2.LatticeNodePtr(), T1: cand.LatticeNodePtr(), T0: eosPtr}
			if err := t.calc.Calculate(lat, ref, buf); err != nil {
				continue
			}
			s := 1.0 / float32(beams)
			for _, f := range buf {
				t.features = append(t.features, ScoredFeature{Feature: f, Score: s})
			}
		}
	}

	top1Prev2 := lat.Arena().Get(prev.Previous)
	ref := feature.NgramFeatureRef{T2: top1Prev2.LatticeNodePtr(), T1: prev.LatticeNodePtr(), T0: top1Ptr.LatticeNodePtr()}
	if err := t.calc.Calculate(lat, ref, buf); err == nil {
		for _, f := range buf {
			t.features = append(t.features, ScoredFeature{Feature: f, Score: -1})
		}
	}
}

// finalizeFeatures masks every feature hash to the weight table's size,
// stably sorts by masked hash, then coalesces equal hashes by summing
// their scores. Masking before sorting means two features that only
// differ outside the mask can legitimately merge; that is intentional,
// matching how the scorer itself will read them.
func (t *Trainer) finalizeFeatures() {
	for i := range t.features {
		t.features[i].Feature &= t.mask
	}
	sort.SliceStable(t.features, func(i, j int) bool {
		return t.features[i].Feature < t.features[j].Feature
	})
	if len(t.features) <= 1 {
		return
	}
	prev := 0
	for cur := 1; cur < len(t.features); cur++ {
		if t.features[prev].Feature == t.features[cur].Feature {
			t.features[prev].Score += t.features[cur].Score
		} else {
			prev++
			if prev != cur {
				t.features[prev] = t.features[cur]
			}
		}
	}
	t.features = t.features[:prev+1]
}
