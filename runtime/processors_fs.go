package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// dirMode is the mode newly created ancestor directories are chmod'd to —
// non-world-writable.
const dirMode = 0o774

func ownerOf(info os.FileInfo) (uid, gid int, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return int(st.Uid), int(st.Gid), true
}

// chownToParentProcessor sets source's owner uid/gid to that of its
// parent directory.
func chownToParentProcessor(_ context.Context, c *Context, _ any) error {
	source := c.Source()
	parentInfo, err := os.Stat(filepath.Dir(source))
	if err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "chown_to_parent", "stat parent", err)
	}
	uid, gid, ok := ownerOf(parentInfo)
	if !ok {
		return nil
	}
	if err := os.Chown(source, uid, gid); err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "chown_to_parent", "chown", err)
	}
	return nil
}

// createPath recursively creates path and any missing ancestors, chmod'ing
// each newly created directory to dirMode and giving it its parent's
// uid/gid. Reaching the filesystem root without finding an existing
// ancestor is reported as an error.
func createPath(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	parent := filepath.Dir(path)
	if parent == path {
		return fmt.Errorf("reached filesystem root without an existing ancestor of %s", path)
	}
	if err := createPath(parent); err != nil {
		return err
	}

	parentInfo, err := os.Stat(parent)
	if err != nil {
		return err
	}

	if err := os.Mkdir(path, dirMode); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if uid, gid, ok := ownerOf(parentInfo); ok {
		if err := os.Chown(path, uid, gid); err != nil {
			return err
		}
	}
	return os.Chmod(path, dirMode)
}

// mkpathProcessor expands template against the context and creates it as
// a directory tree.
func mkpathProcessor(_ context.Context, c *Context, arg any) error {
	tmpl, ok := arg.(string)
	if !ok {
		c.SetOK(false)
		return nil
	}
	path := ExpandTemplate(tmpl, c.All())
	if err := createPath(path); err != nil {
		c.SetOK(false)
		return nil
	}
	return nil
}

// moveProcessor expands template into destination, creates destination's
// parent directory tree, and atomically renames source onto it.
func moveProcessor(ctx context.Context, c *Context, arg any) error {
	tmpl, ok := arg.(string)
	if !ok {
		c.SetOK(false)
		return nil
	}

	dest := ExpandTemplate(tmpl, c.All())
	abs, err := filepath.Abs(dest)
	if err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "move", "resolve destination", err)
	}
	c.SetDestination(abs)

	if err := createPath(filepath.Dir(abs)); err != nil {
		c.SetOK(false)
		return nil
	}

	if err := os.Rename(c.Source(), abs); err != nil {
		c.SetOK(false)
		return newProcessorError(c.Name(), "move", "rename", err)
	}

	c.SetSource(abs)
	if err := chownToParentProcessor(ctx, c, nil); err != nil {
		return err
	}
	return parseFilenameProcessor(ctx, c, nil)
}

// allSuffixes returns the concatenation of every dotted suffix in name
// (e.g. "archive.tar.gz" -> ".tar.gz"), treating a leading dot with no
// further dot as "no suffix" so dotfiles like ".bashrc" are left whole.
func allSuffixes(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	idx := strings.Index(trimmed, ".")
	if idx <= 0 {
		return ""
	}
	return trimmed[idx:]
}

// parseFilenameProcessor populates filename/parent/relative_parent/
// suffix/stem from source and relative_path.
func parseFilenameProcessor(_ context.Context, c *Context, _ any) error {
	source := c.Source()
	base := filepath.Base(source)
	suffix := allSuffixes(base)

	relParent := filepath.Dir(c.RelativePath())
	if relParent == "." {
		relParent = ""
	}

	c.Set(FieldFilename, base)
	c.Set(FieldParent, filepath.Dir(source))
	c.Set(FieldRelativeParent, relParent)
	c.Set(FieldSuffix, suffix)
	c.Set(FieldStem, strings.TrimSuffix(base, suffix))
	return nil
}
