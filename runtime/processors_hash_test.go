package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDigestProcessorKnownVector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zeros.bin")
	if err := os.WriteFile(path, make([]byte, 32), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := NewContext()
	c.SetSource(path)
	if err := digestProcessor(context.Background(), c, "sha256"); err != nil {
		t.Fatalf("digest: %v", err)
	}

	const want = "66687aadf862bd776c8fc18b8e9f8e20089714856ee233b3902a591d0d5f2925"
	got := c.StringOr(FieldDigest, "")
	if got != want {
		t.Errorf("digest(32 zero bytes, sha256) = %q, want %q", got, want)
	}
	if got2 := c.StringOr("sha256", ""); got2 != got {
		t.Errorf("ctx[sha256] = %q, want it to equal ctx.digest = %q", got2, got)
	}
}

func TestDigestProcessorDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("some file contents"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c1 := NewContext()
	c1.SetSource(path)
	if err := digestProcessor(context.Background(), c1, "md5"); err != nil {
		t.Fatalf("digest: %v", err)
	}

	c2 := NewContext()
	c2.SetSource(path)
	if err := digestProcessor(context.Background(), c2, "md5"); err != nil {
		t.Fatalf("digest: %v", err)
	}

	if c1.StringOr(FieldDigest, "") != c2.StringOr(FieldDigest, "") {
		t.Error("digest of an unchanged file should be deterministic")
	}
}

func TestDigestProcessorUnknownAlgorithm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	os.WriteFile(path, []byte("x"), 0o644)

	c := NewContext()
	c.SetSource(path)
	if err := digestProcessor(context.Background(), c, "sha512"); err == nil {
		t.Error("digest with an unsupported algorithm should error")
	}
	if c.OK() {
		t.Error("digest with an unsupported algorithm should set _ok=false")
	}
}
