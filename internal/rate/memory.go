package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: sliding window en proceso. Guarda los timestamps de
// la ventana viva por clave y poda al consultar. Para una instancia;
// con varias instancias usar RedisLimiter.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time

	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// WithClock fija el reloj. Sólo para tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	cutoff := now.Add(-l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.hits[key]
	live := prev[:0]
	for _, t := range prev {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if int64(len(live)) >= l.Max {
		l.hits[key] = live
		res := Result{
			Allowed:     false,
			Remaining:   0,
			CurrentHits: int64(len(live)),
			WindowTTL:   l.Window,
		}
		// Retry after: cuando caduque el hit más viejo de la ventana.
		res.RetryAfter = live[0].Add(l.Window).Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
		return res, nil
	}

	live = append(live, now)
	l.hits[key] = live
	return Result{
		Allowed:     true,
		Remaining:   l.Max - int64(len(live)),
		CurrentHits: int64(len(live)),
		WindowTTL:   l.Window,
	}, nil
}
