// Package runtime implements the pipeline engine, processor registry,
// named-lock manager and agent host described for the file-sorting agent.
package runtime

import (
	"github.com/Jeffail/gabs/v2"
)

// Well-known context fields. User-declared pipeline `context` constants
// and processor-specific fields share the same bag under arbitrary keys.
const (
	FieldSource         = "source"
	FieldOriginal       = "original"
	FieldRelativePath   = "relative_path"
	FieldDestination    = "destination"
	FieldEvent          = "event"
	FieldIsDir          = "is_dir"
	FieldTimestamp      = "timestamp"
	FieldDatetime       = "datetime"
	FieldFilename       = "filename"
	FieldParent         = "parent"
	FieldRelativeParent = "relative_parent"
	FieldSuffix         = "suffix"
	FieldStem           = "stem"
	FieldDigest         = "digest"
	FieldUUID           = "uuid"
	FieldOK             = "_ok"
	FieldLocks          = "locks"
	FieldName           = "name"
)

// Event names carried by FieldEvent.
const (
	EventModified   = "modified"
	EventMoved      = "moved"
	EventInitialize = "initialize"
)

// Context is the mutable per-event field bag that flows through one
// pipeline execution. It is backed by a gabs.Container: a dynamic,
// string-keyed tree of variant values, giving typed accessors for the
// well-known fields while still allowing arbitrary user-declared ones.
type Context struct {
	data *gabs.Container
}

// NewContext returns an empty context bag.
func NewContext() *Context {
	return &Context{data: gabs.New()}
}

// Get returns the raw value stored at key, if any.
func (c *Context) Get(key string) (any, bool) {
	child := c.data.Search(key)
	if child == nil {
		return nil, false
	}
	return child.Data(), true
}

// Set stores value under key, overwriting any existing value.
func (c *Context) Set(key string, value any) {
	c.data.Set(value, key)
}

// Delete removes key if present; absence is not an error.
func (c *Context) Delete(key string) {
	_ = c.data.Delete(key)
}

// GetString returns the string value at key, or ("", false) if absent or
// not a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the string at key, or def if absent or not a string.
func (c *Context) StringOr(key, def string) string {
	if s, ok := c.GetString(key); ok {
		return s
	}
	return def
}

// BoolOr returns the bool at key, or def if absent or not a bool.
func (c *Context) BoolOr(key string, def bool) bool {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Int64Or returns the int64 at key, or def if absent or not an int64.
func (c *Context) Int64Or(key string, def int64) int64 {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	n, ok := v.(int64)
	if !ok {
		return def
	}
	return n
}

// Merge copies every entry of m into the context, overwriting existing keys.
func (c *Context) Merge(m map[string]any) {
	for k, v := range m {
		c.Set(k, deepCopyValue(v))
	}
}

// All returns the full field map, for template expansion and logging.
// The returned map shares no storage with the context (see deepCopyValue).
func (c *Context) All() map[string]any {
	root, ok := c.data.Data().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(root))
	for k, v := range root {
		out[k] = deepCopyValue(v)
	}
	return out
}

// Clone returns a deep copy of the context, used at the start of each
// pipeline's evaluation.
//
// This walks the value tree by hand rather than round-tripping through
// gabs's JSON encoder: encoding/json decodes numbers into float64, which
// would silently truncate the nanosecond int64 timestamp set at ingestion.
func (c *Context) Clone() *Context {
	cloned := gabs.New()
	if root, ok := c.data.Data().(map[string]any); ok {
		for k, v := range root {
			cloned.Set(deepCopyValue(v), k)
		}
	}
	return &Context{data: cloned}
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = deepCopyValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = deepCopyValue(vv)
		}
		return s
	case []string:
		s := make([]string, len(t))
		copy(s, t)
		return s
	default:
		return v
	}
}

// --- Well-known field accessors ---

func (c *Context) Source() string { return c.StringOr(FieldSource, "") }
func (c *Context) SetSource(v string) { c.Set(FieldSource, v) }
func (c *Context) Original() string { return c.StringOr(FieldOriginal, "") }
func (c *Context) RelativePath() string {
	return c.StringOr(FieldRelativePath, "")
}
func (c *Context) SetRelativePath(v string) { c.Set(FieldRelativePath, v) }
func (c *Context) Destination() string { return c.StringOr(FieldDestination, "") }
func (c *Context) SetDestination(v string) { c.Set(FieldDestination, v) }
func (c *Context) Event() string { return c.StringOr(FieldEvent, "") }
func (c *Context) IsDir() bool { return c.BoolOr(FieldIsDir, false) }
func (c *Context) Timestamp() int64 { return c.Int64Or(FieldTimestamp, 0) }
func (c *Context) Name() string { return c.StringOr(FieldName, "") }

// OK reports the success flag, defaulting to true: a context that has not
// yet entered a pipeline match (and so never had _ok initialized) should
// not be mistaken for a failed one.
func (c *Context) OK() bool { return c.BoolOr(FieldOK, true) }
func (c *Context) SetOK(ok bool) { c.Set(FieldOK, ok) }

// Locks returns the set of lock names currently held on behalf of this
// context.
func (c *Context) Locks() []string {
	v, ok := c.Get(FieldLocks)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (c *Context) AddLock(name string) {
	locks := c.Locks()
	for _, l := range locks {
		if l == name {
			return
		}
	}
	c.Set(FieldLocks, append(locks, name))
}

func (c *Context) RemoveLock(name string) {
	locks := c.Locks()
	out := locks[:0]
	for _, l := range locks {
		if l != name {
			out = append(out, l)
		}
	}
	c.Set(FieldLocks, out)
}
