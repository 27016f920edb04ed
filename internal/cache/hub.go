package cache

import "sync"

// hub fans out per-table change signals to watchers. Sends never block: a
// watcher that hasn't drained its buffered signal simply coalesces.
type hub struct {
	mu       sync.RWMutex
	watchers map[string][]chan struct{}
}

func newHub() *hub {
	return &hub{watchers: make(map[string][]chan struct{})}
}

func (h *hub) watch(table string) chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.watchers[table] = append(h.watchers[table], ch)
	h.mu.Unlock()
	return ch
}

func (h *hub) unwatch(table string, ch <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers := h.watchers[table]
	for i, w := range watchers {
		if w == ch {
			h.watchers[table] = append(watchers[:i], watchers[i+1:]...)
			close(w)
			return
		}
	}
}

func (h *hub) notify(table string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, w := range h.watchers[table] {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}
