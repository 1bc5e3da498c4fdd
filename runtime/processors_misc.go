package runtime

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// delayProcessor parses arg as a decimal number of seconds and suspends the
// calling goroutine that long, or until ctx is cancelled.
func delayProcessor(ctx context.Context, c *Context, arg any) error {
	var seconds float64
	switch v := arg.(type) {
	case float64:
		seconds = v
	case int:
		seconds = float64(v)
	case int64:
		seconds = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			c.SetOK(false)
			return newProcessorError(c.Name(), "delay", "parse seconds", err)
		}
		seconds = f
	default:
		c.SetOK(false)
		return newProcessorError(c.Name(), "delay", "arg is not a number", nil)
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// shortIDAlphabet excludes visually similar characters (0, O, I, l, 1) so a
// generated id reads unambiguously out loud or off a screen.
const shortIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// generateUUIDProcessor returns a processor that sets ctx.uuid to a random
// short id of the requested length, drawn from shortIDAlphabet using
// crypto/rand for entropy.
func generateUUIDProcessor() Processor {
	return func(_ context.Context, c *Context, arg any) error {
		var length int
		switch v := arg.(type) {
		case float64:
			length = int(v)
		case int:
			length = v
		case int64:
			length = int(v)
		default:
			length = 8
		}
		if length <= 0 {
			c.SetOK(false)
			return newProcessorError(c.Name(), "generate_uuid", "length must be positive", nil)
		}

		alphabetSize := big.NewInt(int64(len(shortIDAlphabet)))
		out := make([]byte, length)
		for i := range out {
			n, err := rand.Int(rand.Reader, alphabetSize)
			if err != nil {
				c.SetOK(false)
				return newProcessorError(c.Name(), "generate_uuid", "read entropy", err)
			}
			out[i] = shortIDAlphabet[n.Int64()]
		}
		c.Set(FieldUUID, string(out))
		return nil
	}
}

// getDatetimeProcessor interprets ctx.timestamp (nanoseconds since the
// epoch) as a local-time moment and formats it with arg, a strftime-style
// pattern, into ctx.datetime. Go's time package has no strftime directive
// support of its own, so formatting goes through ncruces/go-strftime
// rather than hand-rolling a %-directive translator.
func getDatetimeProcessor(_ context.Context, c *Context, arg any) error {
	pattern, ok := arg.(string)
	if !ok {
		c.SetOK(false)
		return newProcessorError(c.Name(), "get_datetime", "arg is not a string pattern", nil)
	}
	moment := time.Unix(0, c.Timestamp()).Local()
	formatted, err := strftime.Format(pattern, moment)
	if err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "get_datetime", "invalid pattern", err)
	}
	c.Set(FieldDatetime, formatted)
	return nil
}

// copyFieldProcessor deep-copies ctx[src] into ctx[dst]; arg must be a
// two-element [src, dst] list.
func copyFieldProcessor(_ context.Context, c *Context, arg any) error {
	pair, ok := arg.([]any)
	if !ok || len(pair) != 2 {
		c.SetOK(false)
		return nil
	}
	src, srcOK := pair[0].(string)
	dst, dstOK := pair[1].(string)
	if !srcOK || !dstOK {
		c.SetOK(false)
		return nil
	}
	v, ok := c.Get(src)
	if !ok {
		c.SetOK(false)
		return nil
	}
	c.Set(dst, deepCopyValue(v))
	return nil
}

// debugInfoProcessor returns a processor that logs every field currently
// in the context, as a full field dump rather than a bare log line.
func debugInfoProcessor(l *slog.Logger) Processor {
	return func(_ context.Context, c *Context, _ any) error {
		args := make([]any, 0, len(c.All())*2)
		for k, v := range c.All() {
			args = append(args, k, v)
		}
		l.Debug("context snapshot", args...)
		return nil
	}
}

// skipDirectoryProcessor sets _ok = !is_dir.
func skipDirectoryProcessor(_ context.Context, c *Context, _ any) error {
	c.SetOK(!c.IsDir())
	return nil
}

// failureProcessor unconditionally sets _ok = false.
func failureProcessor(_ context.Context, c *Context, _ any) error {
	c.SetOK(false)
	return nil
}

// errorProcessor raises a fatal error, aborting the success chain and
// triggering the failure chain.
func errorProcessor(_ context.Context, c *Context, _ any) error {
	c.SetOK(false)
	return newProcessorError(c.Name(), "error", "error processor invoked", nil)
}
