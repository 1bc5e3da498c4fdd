package runtime

import "testing"

func TestContextSetGet(t *testing.T) {
	c := NewContext()
	c.SetSource("/tmp/a.txt")
	if got := c.Source(); got != "/tmp/a.txt" {
		t.Errorf("Source() = %q, want %q", got, "/tmp/a.txt")
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestContextOKDefaultsTrue(t *testing.T) {
	c := NewContext()
	if !c.OK() {
		t.Error("a fresh context's OK() should default to true")
	}
	c.SetOK(false)
	if c.OK() {
		t.Error("SetOK(false) did not stick")
	}
}

func TestContextCloneIsIndependent(t *testing.T) {
	c := NewContext()
	c.Set(FieldTimestamp, int64(1700000000123456789))
	c.Set("nested", map[string]any{"k": "v"})

	clone := c.Clone()
	cloneNested, _ := clone.Get("nested")
	cloneNested.(map[string]any)["k"] = "changed"

	orig, _ := c.Get("nested")
	origMap := orig.(map[string]any)
	if origMap["k"] != "v" {
		t.Errorf("mutating the clone's nested map leaked into the original: got %v", origMap["k"])
	}

	if got := clone.Timestamp(); got != 1700000000123456789 {
		t.Errorf("Clone() truncated the int64 timestamp: got %d", got)
	}
}

func TestContextLocks(t *testing.T) {
	c := NewContext()
	c.AddLock("a")
	c.AddLock("b")
	c.AddLock("a") // duplicate, no-op

	locks := c.Locks()
	if len(locks) != 2 {
		t.Fatalf("Locks() = %v, want 2 entries", locks)
	}

	c.RemoveLock("a")
	locks = c.Locks()
	if len(locks) != 1 || locks[0] != "b" {
		t.Errorf("after RemoveLock(a), Locks() = %v, want [b]", locks)
	}
}
