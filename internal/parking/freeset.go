package parking

import "slices"

// freeSet keeps the unallocated identifiers of one class in ascending order
// so the smallest one is always at the front.
type freeSet struct {
	ids []int
}

func newFreeSet(r ClassRange) *freeSet {
	ids := make([]int, 0, r.Size())
	for id := r.First; !r.Empty() && id <= r.Last; id++ {
		ids = append(ids, id)
	}
	return &freeSet{ids: ids}
}

func (f *freeSet) len() int {
	return len(f.ids)
}

func (f *freeSet) min() (int, bool) {
	if len(f.ids) == 0 {
		return 0, false
	}
	return f.ids[0], true
}

func (f *freeSet) popMin() (int, bool) {
	id, ok := f.min()
	if !ok {
		return 0, false
	}
	f.ids = slices.Delete(f.ids, 0, 1)
	return id, true
}

// insert reports false if id was already present.
func (f *freeSet) insert(id int) bool {
	i, found := slices.BinarySearch(f.ids, id)
	if found {
		return false
	}
	f.ids = slices.Insert(f.ids, i, id)
	return true
}

func (f *freeSet) remove(id int) bool {
	i, found := slices.BinarySearch(f.ids, id)
	if !found {
		return false
	}
	f.ids = slices.Delete(f.ids, i, i+1)
	return true
}

func (f *freeSet) snapshot() []int {
	return slices.Clone(f.ids)
}
