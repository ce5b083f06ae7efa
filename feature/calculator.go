// Package feature turns a scored trigram of lattice nodes into a fixed
// set of hashed feature identifiers, one per configured template.
package feature

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/agglutrain/latticecore/lattice"
)

// NgramFeatureRef names the trigram of lattice nodes a Calculator scores
// together: t-2, t-1, and the node under consideration.
type NgramFeatureRef struct {
	T2, T1, T0 lattice.LatticeNodePtr
}

// Calculator computes one hash per configured template for a given
// trigram. It holds no lattice state of its own so a single instance can
// be reused across resets of the lattice it's called against.
type Calculator struct {
	templates []Template
}

// NewCalculator returns a calculator over the given template set.
func NewCalculator(templates []Template) *Calculator {
	return &Calculator{templates: templates}
}

// NumTemplates returns the number of templates this calculator computes,
// i.e. the required length of Calculate's output buffer.
func (c *Calculator) NumTemplates() int { return len(c.templates) }

// Calculate fills buf with one hash per template for the given trigram.
// buf must have length NumTemplates(). Hashing is deterministic: the same
// (lattice contents, ref) always yields the same hashes.
func (c *Calculator) Calculate(lat *lattice.Lattice, ref NgramFeatureRef, buf []uint32) error {
	if len(buf) != len(c.templates) {
		return fmt.Errorf("feature: buffer length %d does not match %d templates", len(buf), len(c.templates))
	}

	var rows [3]lattice.EntryRow
	var infos [3]lattice.NodeInfo
	ptrs := [3]lattice.LatticeNodePtr{ref.T2, ref.T1, ref.T0}
	for i, p := range ptrs {
		rows[i] = lat.EntryAt(p)
		infos[i] = lat.NodeInfoAt(p)
	}

	var enc [4]byte
	for ti, tpl := range c.templates {
		h := xxhash.New()
		binary.LittleEndian.PutUint32(enc[:], tpl.ID)
		h.Write(enc[:])
		for _, part := range tpl.Parts {
			var row lattice.EntryRow
			var info lattice.NodeInfo
			switch part.Slot {
			case T2:
				row, info = rows[0], infos[0]
			case T1:
				row, info = rows[1], infos[1]
			default:
				row, info = rows[2], infos[2]
			}
			binary.LittleEndian.PutUint32(enc[:], part.Access(row, info))
			h.Write(enc[:])
		}
		buf[ti] = uint32(h.Sum64())
	}
	return nil
}
