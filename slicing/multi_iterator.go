package slicing

type iteratorEntry struct {
	it, end   *OperandSliceIterator
	suspended bool
}

// MultiOperandSliceIterator drives a master OperandSliceIterator plus any number of slave ones (e.g.
// sibling outputs of a bundle) so that none of them starts a new wide slice before all others are
// ready to.
//
// The iterator at the current index is advanced until it signals a new wide slice (or its end), at
// which point it is suspended and the next available iterator takes over. When all are suspended
// a new round begins for those not finished.
type MultiOperandSliceIterator struct {
	entries []iteratorEntry
	current int
}

// NewMultiOperandSliceIterator creates the composite iterator positioned at the beginning of every
// pattern. The first pattern is the master's.
func NewMultiOperandSliceIterator(master *TraversalPattern, slaves ...*TraversalPattern) *MultiOperandSliceIterator {
	m := &MultiOperandSliceIterator{entries: make([]iteratorEntry, 0, 1+len(slaves))}
	for _, p := range append([]*TraversalPattern{master}, slaves...) {
		it := p.Begin()
		m.entries = append(m.entries, iteratorEntry{it: it, end: it.EndIterator()})
	}
	return m
}

// Len returns the number of operands iterated.
func (m *MultiOperandSliceIterator) Len() int { return len(m.entries) }

// Index of the iterator that Current refers to.
func (m *MultiOperandSliceIterator) Index() int { return m.current }

// Current returns the index of the current operand iterator and its current slice.
func (m *MultiOperandSliceIterator) Current() (int, SliceRefCommonDimIdxPair) {
	return m.current, m.entries[m.current].it.Current()
}

// CurrentIterator returns the member iterator being advanced. It must not be modified.
func (m *MultiOperandSliceIterator) CurrentIterator() *OperandSliceIterator {
	return m.entries[m.current].it
}

// AtEnd returns whether every member iterator is at its end.
func (m *MultiOperandSliceIterator) AtEnd() bool {
	for _, e := range m.entries {
		if !e.it.AtEnd() {
			return false
		}
	}
	return true
}

// Advance moves to the next slice and returns false when all iterators reached their end.
// It panics if called at the end.
func (m *MultiOperandSliceIterator) Advance() bool {
	e := &m.entries[m.current]
	e.it.Advance()
	if e.it.InputSliceChanged() || e.it.AtEnd() {
		e.suspended = true
	}
	m.current = m.nextAvailableIterator()
	return !m.AtEnd()
}

// nextAvailableIterator scans cyclically from the current index for an iterator that is not suspended.
// If all are suspended, a new round starts from the first iterator not yet finished.
func (m *MultiOperandSliceIterator) nextAvailableIterator() int {
	n := len(m.entries)
	for i := range n {
		idx := (m.current + i) % n
		if !m.entries[idx].suspended {
			return idx
		}
	}
	if m.AtEnd() {
		return 0
	}
	first := -1
	for idx := range m.entries {
		e := &m.entries[idx]
		if e.it.AtEnd() {
			continue
		}
		e.suspended = false
		if first < 0 {
			first = idx
		}
	}
	return first
}

// Clone returns an independent copy.
func (m *MultiOperandSliceIterator) Clone() *MultiOperandSliceIterator {
	m2 := &MultiOperandSliceIterator{entries: make([]iteratorEntry, len(m.entries)), current: m.current}
	for i, e := range m.entries {
		m2.entries[i] = iteratorEntry{it: e.it.Clone(), end: e.end, suspended: e.suspended}
	}
	return m2
}

// End returns the composite past-the-end iterator.
func (m *MultiOperandSliceIterator) End() *MultiOperandSliceIterator {
	end := &MultiOperandSliceIterator{entries: make([]iteratorEntry, len(m.entries))}
	for i, e := range m.entries {
		end.entries[i] = iteratorEntry{it: e.end.Clone(), end: e.end, suspended: true}
	}
	return end
}

// Equal requires the same number of member iterators, pairwise equal. Unless all members are at their
// end, the current index must match too.
func (m *MultiOperandSliceIterator) Equal(other *MultiOperandSliceIterator) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	allAtEnd := true
	for i, e := range m.entries {
		if !e.it.Equal(other.entries[i].it) {
			return false
		}
		if !e.it.AtEnd() {
			allAtEnd = false
		}
	}
	return allAtEnd || m.current == other.current
}
