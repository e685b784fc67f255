package metta

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Space is an in-memory grounding atom space.
type Space struct {
	mu    sync.RWMutex
	atoms []Atom
	fresh atomic.Uint64
}

// NewSpace creates an empty space.
func NewSpace() *Space {
	return &Space{}
}

// Add appends an atom.
func (s *Space) Add(a Atom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atoms = append(s.atoms, a)
}

// Remove deletes the first atom equal to a, reporting whether one was found.
func (s *Space) Remove(a Atom) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.atoms {
		if Equal(x, a) {
			s.atoms = append(s.atoms[:i], s.atoms[i+1:]...)
			return true
		}
	}
	return false
}

// Atoms returns a snapshot of the space content.
func (s *Space) Atoms() []Atom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Atom, len(s.atoms))
	copy(out, s.atoms)
	return out
}

// Len returns the number of atoms.
func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.atoms)
}

// Query unifies pattern with every atom and returns the successful bindings
// in insertion order.
func (s *Space) Query(pattern Atom) []Bindings {
	var out []Bindings
	for _, a := range s.Atoms() {
		suffix := "#" + strconv.FormatUint(s.fresh.Add(1), 10)
		b := Bindings{}
		if Unify(pattern, renameVars(a, suffix), b) {
			out = append(out, b)
		}
	}
	return out
}
