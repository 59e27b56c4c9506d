package avatar

import "sync"

// Ticket identifies one asynchronous load. Key is the identity of the item
// that issued it (a message ID, or the viewer slot); Gen is the tracker
// generation at issue time.
type Ticket struct {
	Key string
	URL string
	Gen uint64
}

// Tracker records image load outcomes and which requests are still live.
// A completion is applied only when its ticket is still the live one for
// its key, so a load that finishes after its item was replaced is dropped.
//
// Tracker is driven from a single update loop and is not safe for
// concurrent use.
type Tracker struct {
	gen    uint64
	live   map[string]Ticket
	states map[string]LoadState
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		live:   make(map[string]Ticket),
		states: make(map[string]LoadState),
	}
}

// State implements Probe.
func (t *Tracker) State(url string) LoadState {
	return t.states[url]
}

// Begin issues a ticket for loading url on behalf of key. It returns false
// when the outcome for url is already known or the same load is pending.
func (t *Tracker) Begin(key, url string) (Ticket, bool) {
	if url == "" {
		return Ticket{}, false
	}
	if s := t.states[url]; s != LoadUnknown {
		return Ticket{}, false
	}
	if cur, ok := t.live[key]; ok && cur.URL == url && cur.Gen == t.gen {
		return Ticket{}, false
	}
	tk := Ticket{Key: key, URL: url, Gen: t.gen}
	t.live[key] = tk
	return tk, true
}

// Complete applies the outcome of tk. It reports whether the result was
// applied; stale tickets are ignored.
func (t *Tracker) Complete(tk Ticket, loaded bool) bool {
	cur, ok := t.live[tk.Key]
	if !ok || cur != tk {
		return false
	}
	delete(t.live, tk.Key)
	if loaded {
		t.states[tk.URL] = LoadOK
	} else {
		t.states[tk.URL] = LoadFailed
	}
	return true
}

// Pending reports whether a live ticket exists for key.
func (t *Tracker) Pending(key string) bool {
	_, ok := t.live[key]
	return ok
}

// Retain drops live tickets whose key is no longer displayed.
func (t *Tracker) Retain(displayed func(key string) bool) {
	for k := range t.live {
		if !displayed(k) {
			delete(t.live, k)
		}
	}
}

// Invalidate makes every outstanding ticket stale. Known outcomes are kept.
func (t *Tracker) Invalidate() {
	t.gen++
	clear(t.live)
}

// Cache is a concurrency-safe Probe for callers that resolve loads from
// several goroutines, such as the preview server.
type Cache struct {
	mu     sync.RWMutex
	states map[string]LoadState
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{states: make(map[string]LoadState)}
}

// State implements Probe.
func (c *Cache) State(url string) LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[url]
}

// Set records the outcome for url.
func (c *Cache) Set(url string, s LoadState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[url] = s
}
