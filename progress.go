package pdfprint

import "sync"

// progressHub fans progress events out to subscribers. It is hot: nothing
// is replayed, so a subscriber only sees events emitted after it subscribed.
// Subscribers are called synchronously, in subscription order, on the
// session goroutine.
type progressHub struct {
	mu   sync.Mutex
	next int
	subs []progressSub
}

type progressSub struct {
	id int
	fn func(ProgressEvent)
}

func (h *progressHub) subscribe(fn func(ProgressEvent)) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.next++
	id := h.next
	h.subs = append(h.subs, progressSub{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *progressHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *progressHub) emit(ev ProgressEvent) {
	h.mu.Lock()
	subs := make([]progressSub, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
