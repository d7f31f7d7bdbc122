// Package staging holds the backing storage referenced by pointer fields of
// native descriptor structs. An Arena lives for exactly one native call: it is
// filled while the descriptor is assembled, read by the call, and released
// right after the call returns. Release poisons every allocation so a pointer
// kept past the call reads garbage instead of plausible stale data.
package staging

import (
	"fmt"
	"unsafe"
)

// PoisonByte fills released byte allocations.
const PoisonByte = 0xDB

type Arena struct {
	poisoners []func()
	size      int
	released  bool
}

func New() *Arena {
	return &Arena{}
}

// Call opens an arena, passes it to fn and releases it once fn returns. fn is
// expected to assemble one descriptor and issue the native call consuming it.
func Call[R any](fn func(a *Arena) R) R {
	a := New()
	defer a.Release()
	return fn(a)
}

// Alloc stages a single zero value of T.
func Alloc[T any](a *Arena) *T {
	a.check()
	p := new(T)
	a.track(int(unsafe.Sizeof(*p)), func() {
		var zero T
		*p = zero
	})
	return p
}

// Slice stages n zero values of T. It returns nil when n is zero.
func Slice[T any](a *Arena, n int) []T {
	a.check()
	if n <= 0 {
		return nil
	}
	s := make([]T, n)
	var zero T
	a.track(int(unsafe.Sizeof(zero))*n, func() { clear(s) })
	return s
}

// Copy stages a copy of src and returns a pointer to its first element, or
// nil for an empty src.
func Copy[T any](a *Arena, src []T) *T {
	s := Slice[T](a, len(src))
	if s == nil {
		return nil
	}
	copy(s, src)
	return &s[0]
}

// Bytes stages n bytes.
func (a *Arena) Bytes(n int) []byte {
	a.check()
	if n <= 0 {
		return nil
	}
	b := make([]byte, n)
	a.track(n, func() { fill(b, PoisonByte) })
	return b
}

// CString stages s as a NUL-terminated string. The terminator survives
// poisoning so stale readers stop at the original length.
func (a *Arena) CString(s string) *byte {
	a.check()
	b := make([]byte, len(s)+1)
	copy(b, s)
	a.track(len(b), func() { fill(b[:len(s)], PoisonByte) })
	return &b[0]
}

// CStrings stages an array of NUL-terminated strings and returns a pointer to
// its first entry, or nil when ss is empty.
func (a *Arena) CStrings(ss []string) **byte {
	ptrs := Slice[*byte](a, len(ss))
	if ptrs == nil {
		return nil
	}
	for i, s := range ss {
		ptrs[i] = a.CString(s)
	}
	return &ptrs[0]
}

// Size is the number of bytes staged so far.
func (a *Arena) Size() int {
	return a.size
}

// Allocs is the number of allocations staged so far.
func (a *Arena) Allocs() int {
	return len(a.poisoners)
}

func (a *Arena) Released() bool {
	return a.released
}

// Release poisons and drops every allocation. Releasing twice panics.
func (a *Arena) Release() {
	if a.released {
		panic("staging: arena released twice")
	}
	for _, p := range a.poisoners {
		p()
	}
	a.poisoners = nil
	a.released = true
}

func (a *Arena) check() {
	if a.released {
		panic(fmt.Sprintf("staging: allocation from released arena (%d bytes staged)", a.size))
	}
}

func (a *Arena) track(n int, poison func()) {
	a.size += n
	a.poisoners = append(a.poisoners, poison)
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
