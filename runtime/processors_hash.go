package runtime

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"
)

// hashChunkSize is the streaming read size for digest.
const hashChunkSize = 16 * 1024 * 1024

func newHasher(algo string) (hash.Hash, bool) {
	switch strings.ToLower(algo) {
	case "md5":
		return md5.New(), true
	case "sha1":
		return sha1.New(), true
	case "sha256":
		return sha256.New(), true
	default:
		return nil, false
	}
}

// digestProcessor streams source through the requested hash algorithm and
// writes the hex digest to both ctx.digest and ctx[algo]. An unknown
// algorithm is a fatal per-event configuration error.
func digestProcessor(_ context.Context, c *Context, arg any) error {
	algoRaw, _ := arg.(string)
	algo := strings.ToLower(algoRaw)

	h, ok := newHasher(algo)
	if !ok {
		c.SetOK(false)
		return newProcessorError(c.Name(), "digest", "unknown algorithm "+algoRaw, nil)
	}

	f, err := os.Open(c.Source())
	if err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "digest", "open source", err)
	}
	defer f.Close()

	// Hide *os.File's WriterTo so CopyBuffer really reads through buf.
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "digest", "read source", err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	c.Set(FieldDigest, sum)
	c.Set(algo, sum)
	return nil
}
