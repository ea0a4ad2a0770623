// Package shm implements the reference-counted table binding kernel shared
// memory handles to mapped pixel buffers (spec §3, §4.1). The mapping
// mechanics themselves belong to the kernel interface (kernel.Interface);
// this package only owns the refcounting and pointer-identity guarantees.
package shm

import (
	"errors"
	"sync"
)

// ErrMapFailed is returned when the kernel interface fails to map a handle.
var ErrMapFailed = errors.New("shm: map failed")

// Handle is the opaque integer a client supplies to identify a shared
// memory block.
type Handle uint32

// Mapper is the kernel primitive this table drives: map a handle to a byte
// slice, or unmap it. Implemented by kernel.Interface.
type Mapper interface {
	ShmMap(h Handle) ([]byte, error)
	ShmUnmap(h Handle)
}

type entry struct {
	buf      []byte
	refCount int
}

// Table is the process-wide handle -> mapped-buffer table. Zero value is
// usable once Mapper is set via NewTable.
type Table struct {
	mapper Mapper

	mu      sync.Mutex
	entries map[Handle]*entry
}

// NewTable creates a table backed by the given kernel mapper.
func NewTable(mapper Mapper) *Table {
	return &Table{mapper: mapper, entries: make(map[Handle]*entry)}
}

// Map increments the refcount for h, mapping it via the kernel the first
// time it is seen. Every call for a still-mapped handle returns the exact
// same []byte header (same pointer), satisfying the pointer-equality
// invariant in spec §4.1.
func (t *Table) Map(h Handle) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[h]; ok {
		e.refCount++
		return e.buf, nil
	}
	buf, err := t.mapper.ShmMap(h)
	if err != nil {
		return nil, ErrMapFailed
	}
	t.entries[h] = &entry{buf: buf, refCount: 1}
	return buf, nil
}

// Unmap decrements the refcount for h. At zero it unmaps via the kernel and
// removes the entry — per spec §3, refcount == 0 implies absent from the
// table.
func (t *Table) Unmap(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h]
	if !ok {
		return
	}
	e.refCount--
	if e.refCount <= 0 {
		delete(t.entries, h)
		t.mapper.ShmUnmap(h)
	}
}

// RefCount reports the current refcount for h, 0 if absent. Exposed for
// tests and diagnostics only.
func (t *Table) RefCount(h Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[h]; ok {
		return e.refCount
	}
	return 0
}

// Len reports how many distinct handles are currently mapped.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
