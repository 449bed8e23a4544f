// Package ratelimit throttles gateway ingress per remote host.
package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cmpt-474-edu-monitor/sdk/internal/server/rpc"
	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per host and periodically evicts idle
// entries. A nil Limiter allows everything.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*entry
	hits  uint64
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when rps or burst is not positive.
func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*entry),
	}
}

// Allow reports whether one token can be consumed for key at now.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}
	return allowed
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// Middleware answers limited requests with a rate limited JSON-RPC error
// instead of calling next.
func (l *Limiter) Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := remoteHost(r.RemoteAddr)
			if l.Allow(host, time.Now()) {
				next.ServeHTTP(w, r)
				return
			}
			log.Info("request rate limited", slog.String("host", host))
			_ = rpc.Write(w, rpc.NewError(rpc.ErrRateLimited, rpc.ErrRateLimitedS, nil, nil))
		})
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
