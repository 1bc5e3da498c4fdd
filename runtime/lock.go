package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// lockYield is the cooperative retry interval in Acquire's wait loop. A
// real sleep (rather than runtime.Gosched) keeps a contended Acquire from
// pegging a CPU core while it waits.
const lockYield = time.Millisecond

// LockManager is a process-wide registry of named mutexes with
// all-or-nothing multi-acquire. It is an ordinary value, not a package
// global: the Host builds one and shares it with every engine through the
// processor registry, and tests can build fresh ones.
type LockManager struct {
	l    *slog.Logger
	mu   sync.Mutex
	held map[string]bool
}

func NewLockManager(l *slog.Logger) *LockManager {
	return &LockManager{l: l, held: make(map[string]bool)}
}

func normalizeLockNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Acquire blocks until every name is free, then marks all of them held in
// the same atomic moment under the meta-mutex. This is also what prevents
// the classic acquire-in-order deadlock between two contexts requesting
// overlapping lock sets.
func (m *LockManager) Acquire(ctx context.Context, c *Context, names []string) error {
	names = normalizeLockNames(names)
	if len(names) == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m.mu.Lock()
		free := true
		for _, n := range names {
			if m.held[n] {
				free = false
				break
			}
		}
		if free {
			for _, n := range names {
				m.held[n] = true
			}
			m.mu.Unlock()
			for _, n := range names {
				c.AddLock(n)
			}
			return nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockYield):
		}
	}
}

// Release releases the given names, or every lock the context currently
// holds when names is empty. Releasing an already-released or unknown
// name is logged and skipped, never fatal.
func (m *LockManager) Release(c *Context, names []string) {
	if len(names) == 0 {
		names = c.Locks()
	} else {
		names = normalizeLockNames(names)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		if !m.held[n] {
			if m.l != nil {
				m.l.Warn("lock_release: lock not held, skipping", "lock", n)
			}
			continue
		}
		delete(m.held, n)
		c.RemoveLock(n)
	}
}
