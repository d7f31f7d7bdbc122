package render

import (
	"fmt"
	"sort"
	"strings"
)

// Owner is anything a resource can hold a counted reference to.
type Owner interface {
	Retain()
	Release()
}

// object is the ownership core embedded by every wrapper around a native
// handle. It carries the handle, the configuration the handle was created
// from, and counted references to the resources it depends on.
//
// The last Release runs the native destroy for the handle first and only then
// releases the dependencies, newest first, so teardown always walks the
// dependency graph in reverse creation order. Objects are used from the single
// render thread and are not safe for concurrent use.
type object[H comparable, C any] struct {
	kind    string
	handle  H
	config  C
	deps    []Owner
	refs    int
	destroy func(H)
	reg     *registry
}

// init takes ownership of deps (retaining each) and sets the reference count
// to one. destroy may be nil for handles owned by another object.
func (o *object[H, C]) init(reg *registry, kind string, handle H, config C, destroy func(H), deps ...Owner) {
	var null H
	if handle == null {
		panic(fmt.Sprintf("render: %s created with a null handle", kind))
	}
	o.kind = kind
	o.handle = handle
	o.config = config
	o.destroy = destroy
	o.refs = 1
	o.reg = reg
	for _, d := range deps {
		if d == nil {
			continue
		}
		d.Retain()
		o.deps = append(o.deps, d)
	}
	reg.add(kind)
	Logger().Debug("resource created", "kind", kind, "handle", handle)
}

// Handle returns the native handle. Using a released object panics.
func (o *object[H, C]) Handle() H {
	if o.refs <= 0 {
		panic(fmt.Sprintf("render: use of released %s", o.kind))
	}
	return o.handle
}

// Config returns the configuration snapshot the object was created with.
func (o *object[H, C]) Config() C {
	return o.config
}

func (o *object[H, C]) Kind() string {
	return o.kind
}

func (o *object[H, C]) Alive() bool {
	return o.refs > 0
}

func (o *object[H, C]) Refs() int {
	return o.refs
}

func (o *object[H, C]) Retain() {
	if o.refs <= 0 {
		panic(fmt.Sprintf("render: retain of released %s", o.kind))
	}
	o.refs++
}

func (o *object[H, C]) Release() {
	if o.refs <= 0 {
		panic(fmt.Sprintf("render: %s released more often than retained", o.kind))
	}
	o.refs--
	if o.refs > 0 {
		return
	}
	if o.destroy != nil {
		o.destroy(o.handle)
	}
	o.reg.remove(o.kind)
	Logger().Debug("resource destroyed", "kind", o.kind, "handle", o.handle)
	for i := len(o.deps) - 1; i >= 0; i-- {
		o.deps[i].Release()
	}
	o.deps = nil
}

// registry counts live objects by kind for one instance and everything
// created under it.
type registry struct {
	live map[string]int
}

func newRegistry() *registry {
	return &registry{live: map[string]int{}}
}

func (r *registry) add(kind string) {
	r.live[kind]++
}

func (r *registry) remove(kind string) {
	r.live[kind]--
	if r.live[kind] == 0 {
		delete(r.live, kind)
	}
}

func (r *registry) snapshot() map[string]int {
	out := make(map[string]int, len(r.live))
	for k, v := range r.live {
		out[k] = v
	}
	return out
}

func (r *registry) String() string {
	kinds := make([]string, 0, len(r.live))
	for k := range r.live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, r.live[k])
	}
	return strings.Join(parts, " ")
}

// rollback collects undo steps of a multi-step factory. run undoes every
// recorded step, newest first, unless disarm was called after success.
type rollback []func()

func (r *rollback) push(undo func()) {
	*r = append(*r, undo)
}

func (r *rollback) disarm() {
	*r = nil
}

func (r *rollback) run() {
	for i := len(*r) - 1; i >= 0; i-- {
		(*r)[i]()
	}
	*r = nil
}

// releaseAll releases each non-nil owner in reverse order.
func releaseAll[T interface {
	comparable
	Owner
}](owners []T) {
	var null T
	for i := len(owners) - 1; i >= 0; i-- {
		if owners[i] != null {
			owners[i].Release()
		}
	}
}
