package httpclient

import (
	"net/url"
	"sync"
)

// HostSemaphore caps concurrent requests per host. The prober's global gate
// bounds total in-flight probes, but candidate lists cluster on a handful
// of CDN hosts; without a per-host cap one slow host can absorb the whole
// pool and its streams all read as packet loss. The cap is configured per
// probing run (STREAM_CATALOG_PROBE_HOST_CONCURRENCY), so one limiter is
// built per run rather than shared process-wide.
//
// Usage: acquire before sending a request, release when the response
// arrives.
//
//	release := sem.Acquire(rawURL)
//	defer release()
type HostSemaphore struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	limit int
}

// NewHostSemaphore returns a limiter allowing up to limit concurrent
// requests per host. limit < 1 is treated as 1.
func NewHostSemaphore(limit int) *HostSemaphore {
	if limit < 1 {
		limit = 1
	}
	return &HostSemaphore{
		slots: make(map[string]chan struct{}),
		limit: limit,
	}
}

// Acquire blocks until a slot for rawURL's host is free and returns the
// release func. Distinct hosts never contend with each other.
func (h *HostSemaphore) Acquire(rawURL string) func() {
	sem := h.slotFor(hostKey(rawURL))
	sem <- struct{}{}
	return func() { <-sem }
}

func (h *HostSemaphore) slotFor(key string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.slots[key]
	if !ok {
		s = make(chan struct{}, h.limit)
		h.slots[key] = s
	}
	return s
}

// hostKey reduces a URL to scheme+host so paths and queries on the same
// endpoint share one slot pool.
func hostKey(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return rawURL
}
