package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter in-memory реализация лимитера.
// Поддерживает стратегии token_bucket и sliding_window.
type MemoryLimiter struct {
	mu     sync.Mutex
	states map[string]*clientState
	config *Config
	done   chan struct{}
	closed bool
}

type clientState struct {
	tokens   float64
	refilled time.Time
	hits     []time.Time // sliding window
}

// NewMemoryLimiter создаёт лимитер и запускает фоновую очистку
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &MemoryLimiter{
		states: make(map[string]*clientState),
		config: cfg,
		done:   make(chan struct{}),
	}

	go l.janitor()

	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *MemoryLimiter) AllowN(_ context.Context, key string, n int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLimiterClosed
	}

	s, ok := l.states[key]
	if !ok {
		s = &clientState{
			tokens:   float64(l.config.Requests + l.config.BurstSize),
			refilled: time.Now(),
		}
		l.states[key] = s
	}

	if l.config.Strategy == "token_bucket" {
		return l.takeTokens(s, n), nil
	}
	return l.recordInWindow(s, n), nil
}

func (l *MemoryLimiter) takeTokens(s *clientState, n int) bool {
	now := time.Now()
	elapsed := now.Sub(s.refilled)
	s.refilled = now

	rate := float64(l.config.Requests) / l.config.Window.Seconds()
	s.tokens += elapsed.Seconds() * rate

	if limit := float64(l.config.Requests + l.config.BurstSize); s.tokens > limit {
		s.tokens = limit
	}

	if s.tokens < float64(n) {
		return false
	}
	s.tokens -= float64(n)
	return true
}

func (l *MemoryLimiter) recordInWindow(s *clientState, n int) bool {
	now := time.Now()
	s.hits = pruneBefore(s.hits, now.Add(-l.config.Window))

	if len(s.hits)+n > l.config.Requests {
		return false
	}
	for i := 0; i < n; i++ {
		s.hits = append(s.hits, now)
	}
	return true
}

// pruneBefore отбрасывает отметки времени старше cutoff, сохраняя порядок
func pruneBefore(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (l *MemoryLimiter) Wait(ctx context.Context, key string) error {
	for {
		allowed, err := l.Allow(ctx, key)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.states, key)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLimiter) GetInfo(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: l.config.Requests,
		ResetAt:   time.Now().Add(l.config.Window),
	}

	s, ok := l.states[key]
	if !ok {
		return info, nil
	}

	if l.config.Strategy == "token_bucket" {
		info.Remaining = int(s.tokens)
	} else {
		windowStart := time.Now().Add(-l.config.Window)
		used := 0
		for _, t := range s.hits {
			if t.After(windowStart) {
				used++
			}
		}
		info.Remaining = l.config.Requests - used
	}

	if info.Remaining < 0 {
		info.Remaining = 0
	}

	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.done)
	l.states = nil

	return nil
}

func (l *MemoryLimiter) janitor() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *MemoryLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	// Записи старше двух окон больше не влияют на решения
	cutoff := time.Now().Add(-2 * l.config.Window)

	for key, s := range l.states {
		s.hits = pruneBefore(s.hits, cutoff)
		if len(s.hits) == 0 && s.refilled.Before(cutoff) {
			delete(l.states, key)
		}
	}
}
