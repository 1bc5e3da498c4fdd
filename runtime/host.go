package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"nasagent/runtime/notify"
)

// sortingInstance bundles one sorting_agent manifest entry's live engine
// and watcher.
type sortingInstance struct {
	name    string
	engine  *Engine
	watcher *Watcher
	roots   []string
}

// Host owns the full agent lifecycle: load configuration, validate every
// step's type against the processor registry, start the watchers, run the
// initial scan, and block until the quit signal.
type Host struct {
	l          *slog.Logger
	manifest   *Manifest
	StatusAddr string

	locks    *LockManager
	registry *Registry
	sortings []*sortingInstance
	status   *StatusServer
}

// NewHost loads the manifest and every agent it names, wiring a shared
// LockManager and a read-only processor Registry.
func NewHost(l *slog.Logger, manifestPath string) (*Host, error) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	h := &Host{l: l, manifest: manifest, StatusAddr: ":8090"}

	doves, err := h.loadDoves()
	if err != nil {
		return nil, err
	}
	publisher := NewMultiDispatcher(doves)

	h.locks = NewLockManager(l)
	h.registry = NewRegistry(&Env{Locks: h.locks, Notify: publisher, Log: l})

	if err := h.loadSortingAgents(); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Host) loadDoves() (map[string]*notify.Dispatcher, error) {
	doves := make(map[string]*notify.Dispatcher)
	for _, entry := range h.manifest.Agents {
		if entry.Type != AgentTypeDove {
			continue
		}
		name := entry.Name
		if name == "" {
			name = uuid.New().String()
		}
		cfg, err := LoadDoveConfig(entry.Config)
		if err != nil {
			return nil, fmt.Errorf("dove agent %q: %w", name, err)
		}
		dispatcher, err := notify.NewDispatcher(h.l, cfg.Doves)
		if err != nil {
			return nil, fmt.Errorf("dove agent %q: %w", name, err)
		}
		doves[name] = dispatcher
	}
	return doves, nil
}

func (h *Host) loadSortingAgents() error {
	for _, entry := range h.manifest.Agents {
		if entry.Type != AgentTypeSorting {
			continue
		}
		cfg, err := LoadSortingConfig(entry.Config, h.registry)
		if err != nil {
			return fmt.Errorf("sorting agent %q: %w", entry.Name, err)
		}

		engine := NewEngine(h.l, h.registry, cfg.Pipelines)
		engine.DebounceDelay = cfg.Debounce

		roots := uniqueRoots(cfg.Pipelines)
		watcher, err := NewWatcher(h.l, engine, roots)
		if err != nil {
			return fmt.Errorf("sorting agent %q: %w", entry.Name, err)
		}

		h.sortings = append(h.sortings, &sortingInstance{
			name:    entry.Name,
			engine:  engine,
			watcher: watcher,
			roots:   roots,
		})
	}
	return nil
}

func uniqueRoots(pipelines []Pipeline) []string {
	seen := make(map[string]struct{}, len(pipelines))
	out := make([]string, 0, len(pipelines))
	for _, p := range pipelines {
		if _, ok := seen[p.Input]; ok {
			continue
		}
		seen[p.Input] = struct{}{}
		out = append(out, p.Input)
	}
	return out
}

// Run starts every watcher, performs each watcher's initial scan, serves
// the status endpoint, and blocks until ctx is cancelled (typically by
// SIGINT). On return it drains in-flight engine handlers before exiting.
func (h *Host) Run(ctx context.Context) error {
	allPipelines := make([]Pipeline, 0)
	for _, s := range h.sortings {
		allPipelines = append(allPipelines, s.engine.pipelines...)
	}
	h.status = NewStatusServer(h.StatusAddr, allPipelines)
	statusErrs := make(chan error, 1)
	h.status.Start(statusErrs)

	for _, s := range h.sortings {
		if err := s.watcher.InitialScan(ctx, s.roots); err != nil {
			return fmt.Errorf("sorting agent %q: initial scan: %w", s.name, err)
		}
		go s.watcher.Run(ctx)
	}

	select {
	case <-ctx.Done():
	case err := <-statusErrs:
		h.l.Error("status server failed", "error", err)
	}

	h.l.Info("shutting down, draining in-flight events")
	for _, s := range h.sortings {
		s.watcher.Close()
		s.engine.Wait()
	}
	if h.status != nil {
		_ = h.status.Shutdown(context.Background())
	}
	return nil
}
