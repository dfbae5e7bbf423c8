package smalloc

import (
	"github.com/replay/go-small-alloc/internal/rawmem"
	"github.com/willf/bitset"
)

// freeLists keeps one singly linked list of free blocks per size class.
// The heads are addresses of free blocks, each block stores the address
// of the next one in its first word. nonEmpty has a bit set for every
// class whose list holds at least one block
type freeLists struct {
	heads    [NumClasses]uintptr
	lengths  [NumClasses]int
	nonEmpty *bitset.BitSet
}

func newFreeLists() *freeLists {
	return &freeLists{
		nonEmpty: bitset.New(NumClasses),
	}
}

// push links the block at addr in as the new head of the list at idx
func (f *freeLists) push(idx int, addr uintptr) {
	rawmem.SetNext(addr, f.heads[idx])
	f.heads[idx] = addr
	f.lengths[idx]++
	f.nonEmpty.Set(uint(idx))
}

// pop unlinks the head of the list at idx
// the second returned value indicates whether the list had a block or not
func (f *freeLists) pop(idx int) (uintptr, bool) {
	addr := f.heads[idx]
	if addr == 0 {
		return 0, false
	}
	f.heads[idx] = rawmem.Next(addr)
	f.lengths[idx]--
	if f.heads[idx] == 0 {
		f.nonEmpty.Clear(uint(idx))
	}
	return addr, true
}

// nextNonEmpty returns the smallest class index above idx whose list holds a block
// the second returned value is false if all larger lists are empty
func (f *freeLists) nextNonEmpty(idx int) (int, bool) {
	next, ok := f.nonEmpty.NextSet(uint(idx + 1))
	if !ok || next >= NumClasses {
		return 0, false
	}
	return int(next), true
}

// threadRun pushes count consecutive blocks of the class at idx, starting at addr
// so that the block at the lowest address ends up at the head of the list
func (f *freeLists) threadRun(idx int, addr uintptr, count int) {
	size := uintptr(ClassSize(idx))
	for i := count - 1; i >= 0; i-- {
		f.push(idx, addr+uintptr(i)*size)
	}
}

func (f *freeLists) count(idx int) int {
	return f.lengths[idx]
}

func (f *freeLists) reset() {
	f.heads = [NumClasses]uintptr{}
	f.lengths = [NumClasses]int{}
	f.nonEmpty.ClearAll()
}
