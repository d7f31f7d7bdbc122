package vkdriver

import (
	"sync"

	"github.com/mxplusb/epsilon/src/native"
)

// table maps native handles to driver values and back. Values must be
// comparable; vulkan-go handles are pointers.
type table struct {
	mu      sync.Mutex
	next    native.Handle
	values  map[native.Handle]interface{}
	reverse map[interface{}]native.Handle
	owned   map[native.Handle][]native.Handle
}

func newTable() *table {
	return &table{
		values:  map[native.Handle]interface{}{},
		reverse: map[interface{}]native.Handle{},
		owned:   map[native.Handle][]native.Handle{},
	}
}

// put returns the handle for v, allocating one on first sight. A nil value
// maps to the null handle.
func (t *table) put(v interface{}) native.Handle {
	if v == nil {
		return native.NullHandle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.reverse[v]; ok {
		return h
	}
	t.next++
	t.values[t.next] = v
	t.reverse[v] = t.next
	return t.next
}

func (t *table) drop(h native.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.values[h]; ok {
		delete(t.reverse, v)
		delete(t.values, h)
	}
}

// own records h as belonging to owner, so dropOwned forgets it together with
// the owner. Enumerating twice yields the same handles and records them once.
func (t *table) own(owner, h native.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, have := range t.owned[owner] {
		if have == h {
			return
		}
	}
	t.owned[owner] = append(t.owned[owner], h)
}

// dropOwned drops owner and every handle recorded against it.
func (t *table) dropOwned(owner native.Handle) {
	t.mu.Lock()
	children := t.owned[owner]
	delete(t.owned, owner)
	t.mu.Unlock()
	for _, h := range children {
		t.drop(h)
	}
	t.drop(owner)
}

func (t *table) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}

func lookup[T any](t *table, h native.Handle) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, _ := t.values[h].(T)
	return v
}
