// Package subscription provides disposable listener handles and the
// registries that own them, so every connection made to the window system
// can be torn down deterministically.
package subscription

import (
	"slices"
	"sync"
)

// Handle is a live listener connection.
type Handle interface {
	Disconnect()
}

// Func adapts a plain function into a Handle. The function runs at most once.
func Func(fn func()) Handle {
	return &funcHandle{fn: fn}
}

type funcHandle struct {
	once sync.Once
	fn   func()
}

func (h *funcHandle) Disconnect() {
	h.once.Do(func() {
		if h.fn != nil {
			h.fn()
		}
	})
}

// Group owns a set of handles released together.
type Group struct {
	mu      sync.Mutex
	handles []Handle
}

// Add records handles for later release. Nil handles are ignored.
func (g *Group) Add(handles ...Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, h := range handles {
		if h != nil {
			g.handles = append(g.handles, h)
		}
	}
}

// Len returns the number of live handles.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Release disconnects every handle in reverse order of registration.
// Calling it again is a no-op until new handles are added.
func (g *Group) Release() {
	g.mu.Lock()
	handles := g.handles
	g.handles = nil
	g.mu.Unlock()

	for i := len(handles) - 1; i >= 0; i-- {
		handles[i].Disconnect()
	}
}

// Keyed associates groups of handles with a key, such as a window ID.
type Keyed[K comparable] struct {
	mu     sync.Mutex
	groups map[K]*Group
}

// Add appends handles to the group for key, creating it if needed.
func (k *Keyed[K]) Add(key K, handles ...Handle) {
	k.mu.Lock()
	if k.groups == nil {
		k.groups = make(map[K]*Group)
	}
	g, ok := k.groups[key]
	if !ok {
		g = &Group{}
		k.groups[key] = g
	}
	k.mu.Unlock()
	g.Add(handles...)
}

// Has reports whether key has a group.
func (k *Keyed[K]) Has(key K) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.groups[key]
	return ok
}

// Keys returns the tracked keys in no particular order.
func (k *Keyed[K]) Keys() []K {
	k.mu.Lock()
	defer k.mu.Unlock()
	keys := make([]K, 0, len(k.groups))
	for key := range k.groups {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of tracked keys.
func (k *Keyed[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.groups)
}

// Release disconnects and forgets the group for key.
func (k *Keyed[K]) Release(key K) {
	k.mu.Lock()
	g, ok := k.groups[key]
	delete(k.groups, key)
	k.mu.Unlock()
	if ok {
		g.Release()
	}
}

// ReleaseAll disconnects every group.
func (k *Keyed[K]) ReleaseAll() {
	k.mu.Lock()
	groups := k.groups
	k.groups = nil
	k.mu.Unlock()
	for _, g := range groups {
		g.Release()
	}
}

// Emitter fans values out to connected listeners. It is safe for concurrent use.
type Emitter[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(T)
}

// Connect registers fn and returns the handle that removes it.
func (e *Emitter[T]) Connect(fn func(T)) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[uint64]func(T))
	}
	e.nextID++
	id := e.nextID
	e.listeners[id] = fn
	return Func(func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	})
}

// Emit delivers v to every listener connected at the time of the call,
// in connection order.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	ids := make([]uint64, 0, len(e.listeners))
	fns := make(map[uint64]func(T), len(e.listeners))
	for id, fn := range e.listeners {
		ids = append(ids, id)
		fns[id] = fn
	}
	e.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		fns[id](v)
	}
}

// Listeners returns the number of connected listeners.
func (e *Emitter[T]) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

