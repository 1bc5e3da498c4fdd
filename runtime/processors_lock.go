package runtime

import "context"

// namesFromArg accepts either a single lock name string or a list of
// names, the shared arg contract for both lock processors.
func namesFromArg(arg any) []string {
	switch v := arg.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// lockAcquireProcessor returns a processor delegating to locks.Acquire
// with the requested name or names.
func lockAcquireProcessor(locks *LockManager) Processor {
	return func(ctx context.Context, c *Context, arg any) error {
		names := namesFromArg(arg)
		if len(names) == 0 {
			c.SetOK(false)
			return newProcessorError(c.Name(), "lock_acquire", "no lock names given", nil)
		}
		if err := locks.Acquire(ctx, c, names); err != nil {
			c.SetOK(false)
			return newProcessorError(c.Name(), "lock_acquire", "acquire", err)
		}
		return nil
	}
}

// lockReleaseProcessor returns a processor delegating to locks.Release. A
// nil/absent arg releases every lock the context currently holds.
func lockReleaseProcessor(locks *LockManager) Processor {
	return func(_ context.Context, c *Context, arg any) error {
		names := namesFromArg(arg)
		locks.Release(c, names)
		return nil
	}
}
