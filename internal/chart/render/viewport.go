package render

import "sync"

// Viewport is a chart.Container whose size is reported by a remote
// client.
type Viewport struct {
	mu     sync.Mutex
	width  int
	height int
	subs   map[int]func(width, height int)
	next   int
}

func NewViewport(width, height int) *Viewport {
	return &Viewport{width: width, height: height, subs: make(map[int]func(int, int))}
}

func (v *Viewport) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

func (v *Viewport) OnResize(fn func(width, height int)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++
	v.subs[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subs, id)
	}
}

// Resize records a new size and notifies subscribers. Non-positive or
// unchanged sizes are ignored.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	if width <= 0 || height <= 0 || (width == v.width && height == v.height) {
		v.mu.Unlock()
		return
	}
	v.width, v.height = width, height
	fns := make([]func(int, int), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
}

// Subscriptions returns the number of live resize handlers.
func (v *Viewport) Subscriptions() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}
