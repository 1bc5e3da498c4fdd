package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// debounceDelay coalesces bursts from the watch adapter. Tests override it
// via Engine.DebounceDelay so debounce behavior can be exercised in
// milliseconds instead of real time.
const debounceDelay = time.Second

// Engine is the pipeline engine: event debouncer, pipeline matcher,
// processor executor, and failure chain. An Engine works through the
// Registry it is given (whose processors are bound to a LockManager)
// rather than through package globals, so tests can instantiate fresh
// engines.
type Engine struct {
	l         *slog.Logger
	registry  *Registry
	pipelines []Pipeline

	DebounceDelay time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
	counter  int64

	wg sync.WaitGroup
}

// NewEngine builds an engine over a frozen pipeline list.
func NewEngine(l *slog.Logger, registry *Registry, pipelines []Pipeline) *Engine {
	return &Engine{
		l:             l,
		registry:      registry,
		pipelines:     pipelines,
		DebounceDelay: debounceDelay,
		inFlight:      make(map[string]struct{}),
	}
}

// Push is the event-ingestion entry point: under a short synchronous
// critical section, it debounce-collapses events already in_flight for
// the same source, otherwise stamps timestamp/original and spawns handle
// as a goroutine.
func (e *Engine) Push(ctx context.Context, c *Context) {
	source := c.Source()

	e.mu.Lock()
	if _, busy := e.inFlight[source]; busy {
		e.mu.Unlock()
		e.l.Debug("debounce: dropping event", "source", source)
		return
	}
	e.inFlight[source] = struct{}{}
	e.mu.Unlock()

	c.Set(FieldTimestamp, time.Now().UnixNano())
	c.Set(FieldOriginal, source)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.inFlight, source)
			e.mu.Unlock()
		}()
		e.handle(ctx, c)
	}()
}

// Wait blocks until every in-flight handler has completed, used by the
// agent host's SIGINT drain.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// handle runs the debounce sleep and then tries every pipeline in
// declaration order. A panic anywhere in this call tree that escapes
// runSteps/runFailureSteps's own recovery is caught here and logged as
// critical rather than crashing the host.
func (e *Engine) handle(ctx context.Context, ingest *Context) {
	defer func() {
		if r := recover(); r != nil {
			e.l.Error("panic in handle", "source", ingest.Source(), "panic", r)
		}
	}()

	select {
	case <-ctx.Done():
		return
	case <-time.After(e.DebounceDelay):
	}

	cnt := atomic.AddInt64(&e.counter, 1)
	source := ingest.Source()

	for i := range e.pipelines {
		p := &e.pipelines[i]
		t := ingest.Clone()

		if t.Source() == p.Input {
			continue
		}
		relative, ok := relativeTo(p.Input, t.Source())
		if !ok {
			continue
		}
		t.SetRelativePath(relative)

		if !p.Matches(relative) {
			continue
		}

		t.Merge(p.Context)
		t.Set(FieldName, p.Name)
		t.SetOK(true)

		e.runSteps(ctx, t, p.Process, cnt, p.Name)

		if t.OK() {
			e.l.Info("pipeline succeeded", "cnt", cnt, "pipeline", p.Name, "source", source)
			return
		}

		e.runFailureSteps(ctx, t, p.Failure, cnt, p.Name)
	}

	e.l.Warn("no pipeline matched", "cnt", cnt, "source", source)
}

// relativeTo reports source's path relative to root, or false if source
// is not a descendant of root.
func relativeTo(root, source string) (string, bool) {
	rel, err := filepath.Rel(root, source)
	if err != nil {
		return "", false
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}

// runSteps executes the success chain: each step resolves its processor,
// deep-copies its arg, expands it against the context, and is awaited. A
// processor error, panic, or explicit _ok=false stops the chain.
func (e *Engine) runSteps(ctx context.Context, t *Context, steps []Step, cnt int64, pipeline string) {
	for _, step := range steps {
		proc, ok := e.registry.Get(step.Type)
		if !ok {
			e.l.Error("unknown processor at runtime", "cnt", cnt, "pipeline", pipeline, "type", step.Type)
			t.SetOK(false)
			return
		}

		arg := ExpandAny(deepCopyValue(step.Arg), t.All())
		if err := e.callProcessor(ctx, proc, t, arg, pipeline, step.Type); err != nil {
			e.l.Error("processor failed", "cnt", cnt, "pipeline", pipeline, "type", step.Type, "error", err)
			t.SetOK(false)
		}
		if !t.OK() {
			return
		}
	}
}

// callProcessor invokes proc and converts a panic into a *ProcessorError.
func (e *Engine) callProcessor(ctx context.Context, proc Processor, t *Context, arg any, pipeline, step string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newProcessorError(pipeline, step, "panic", fmt.Errorf("%v", r))
		}
	}()
	return proc(ctx, t, arg)
}

// runFailureSteps runs the cleanup chain; exceptions inside it are logged
// and swallowed so cleanup always completes.
func (e *Engine) runFailureSteps(ctx context.Context, t *Context, steps []Step, cnt int64, pipeline string) {
	for _, step := range steps {
		proc, ok := e.registry.Get(step.Type)
		if !ok {
			e.l.Error("unknown processor at runtime in failure chain", "cnt", cnt, "pipeline", pipeline, "type", step.Type)
			continue
		}
		arg := ExpandAny(deepCopyValue(step.Arg), t.All())
		if err := e.callProcessor(ctx, proc, t, arg, pipeline, step.Type); err != nil {
			e.l.Error("failure step error", "cnt", cnt, "pipeline", pipeline, "type", step.Type, "error", err)
		}
	}
}
