package shm

import "testing"

type fakeMapper struct {
	mapped map[Handle][]byte
	calls  int
}

func newFakeMapper() *fakeMapper {
	return &fakeMapper{mapped: make(map[Handle][]byte)}
}

func (f *fakeMapper) ShmMap(h Handle) ([]byte, error) {
	f.calls++
	buf, ok := f.mapped[h]
	if !ok {
		buf = make([]byte, 16)
		f.mapped[h] = buf
	}
	return buf, nil
}

func (f *fakeMapper) ShmUnmap(h Handle) {
	delete(f.mapped, h)
}

func TestMapReturnsSamePointerAcrossCalls(t *testing.T) {
	m := newFakeMapper()
	tbl := NewTable(m)

	a, err := tbl.Map(1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tbl.Map(1)
	if err != nil {
		t.Fatal(err)
	}
	if &a[0] != &b[0] {
		t.Fatal("Map must return pointer-identical buffer for the same handle")
	}
	if tbl.RefCount(1) != 2 {
		t.Fatalf("refcount = %d, want 2", tbl.RefCount(1))
	}
	if m.calls != 1 {
		t.Fatalf("kernel ShmMap should only be called once for a still-mapped handle, called %d times", m.calls)
	}
}

func TestUnmapToZeroRemovesEntry(t *testing.T) {
	m := newFakeMapper()
	tbl := NewTable(m)

	tbl.Map(5)
	tbl.Map(5)
	tbl.Unmap(5)
	if tbl.RefCount(5) != 1 {
		t.Fatalf("refcount after one unmap = %d, want 1", tbl.RefCount(5))
	}
	tbl.Unmap(5)
	if tbl.RefCount(5) != 0 {
		t.Fatal("refcount should be 0 after matching unmaps")
	}
	if tbl.Len() != 0 {
		t.Fatal("zero-refcount handle must not remain in the table")
	}
}

func TestUnmapUnknownHandleIsNoop(t *testing.T) {
	m := newFakeMapper()
	tbl := NewTable(m)
	tbl.Unmap(999) // must not panic
}
