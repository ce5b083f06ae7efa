package lattice

// ConnRef is an index into an Arena. It stands in for the pointer-chasing
// back-links of a pointer-based trigram chain.
type ConnRef uint32

// ConnectionPtr is one link of the reverse trigram chain: the node it
// names (Boundary, Right) plus a reference to the previous link.
type ConnectionPtr struct {
	Boundary uint16
	Right    uint16
	Previous ConnRef
}

// LatticeNodePtr returns the node identity this connection names.
func (c ConnectionPtr) LatticeNodePtr() LatticeNodePtr {
	return LatticeNodePtr{Boundary: c.Boundary, Position: c.Right}
}

// Arena owns every ConnectionPtr allocated while decoding one input. Index
// 0 is always the BOS self-loop: boundary 0, right 0, previous itself.
type Arena struct {
	entries []ConnectionPtr
}

// NewArena returns an arena pre-seeded with the BOS self-loop at index 0.
func NewArena() *Arena {
	a := &Arena{entries: make([]ConnectionPtr, 0, 64)}
	a.entries = append(a.entries, ConnectionPtr{Boundary: 0, Right: 0, Previous: 0})
	return a
}

// BOS returns the reference to the arena's self-looping root entry.
func (a *Arena) BOS() ConnRef { return 0 }

// Add appends a new connection and returns its reference.
func (a *Arena) Add(c ConnectionPtr) ConnRef {
	a.entries = append(a.entries, c)
	return ConnRef(len(a.entries) - 1)
}

// Get resolves a reference to its connection.
func (a *Arena) Get(r ConnRef) ConnectionPtr { return a.entries[r] }

// Previous resolves the reference one link further back the chain.
func (a *Arena) Previous(r ConnRef) ConnRef { return a.entries[r].Previous }

// Len reports how many connections have been allocated.
func (a *Arena) Len() int { return len(a.entries) }
