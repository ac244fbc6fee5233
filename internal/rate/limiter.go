package rate

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	last    time.Time
}

// LimiterMap provides per-client rate limiting. Idle clients are evicted
// after ttl.
type LimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLimiterMap allows rpm requests per minute per client with the given
// burst and starts the eviction goroutine. Call Stop to release it.
func NewLimiterMap(rpm, burst int, ttl time.Duration) *LimiterMap {
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Every(time.Minute / time.Duration(rpm))
	}
	lm := &LimiterMap{
		limiters: make(map[string]*entry),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go lm.reaper()
	return lm
}

func (l *LimiterMap) reaper() {
	t := time.NewTicker(l.ttl)
	defer t.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case now := <-t.C:
			l.evict(now)
		}
	}
}

func (l *LimiterMap) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.limiters {
		if now.Sub(e.last) > l.ttl {
			delete(l.limiters, ip)
		}
	}
}

func (l *LimiterMap) Stop() { l.stopOnce.Do(func() { close(l.stopCh) }) }

func (l *LimiterMap) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.limiters[ip]; ok {
		e.last = time.Now()
		return e.limiter
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters[ip] = &entry{limiter: lim, last: time.Now()}
	return lim
}

// Allow reports whether a request from ip may proceed.
func (l *LimiterMap) Allow(ip string) bool {
	return l.get(ip).Allow()
}

// Len returns the number of tracked clients.
func (l *LimiterMap) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// IPFromRequest returns the first X-Forwarded-For hop, or the remote host.
func IPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
