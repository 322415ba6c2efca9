package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/aellingwood/cardforge/internal/config"
)

// outputTree is the build output directory. It remembers every file it
// wrote so the build can report sizes without walking the tree again, and
// so static files cannot replace generated pages.
type outputTree struct {
	dir   string
	files map[string]int64 // slash path -> size
	order []string
}

func newOutputTree(dir string) *outputTree {
	return &outputTree{dir: dir, files: make(map[string]int64)}
}

// write stores data at the slash path name. The file is written under a
// temporary name first so the preview server never serves half a page.
func (o *outputTree) write(name string, data []byte) error {
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return fmt.Errorf("output path %q escapes the output directory", name)
	}
	dst := filepath.Join(o.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".cardforge-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	o.record(name, int64(len(data)))
	return nil
}

func (o *outputTree) record(name string, size int64) {
	if _, seen := o.files[name]; !seen {
		o.order = append(o.order, name)
	}
	o.files[name] = size
}

// has reports whether name was already written by this build.
func (o *outputTree) has(name string) bool {
	_, ok := o.files[name]
	return ok
}

// copyStatic copies the static directory into the tree. Hidden files are
// skipped, and so is any file whose path is already taken by a generated
// page; those paths are returned as shadowed.
func (o *outputTree) copyStatic(src string) (copied int, shadowed []string, err error) {
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == src {
			return nil
		}
		if d.Name()[0] == '.' {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if o.has(name) {
			shadowed = append(shadowed, name)
			return nil
		}
		n, err := copyInto(p, filepath.Join(o.dir, rel))
		if err != nil {
			return fmt.Errorf("copying %s: %w", name, err)
		}
		o.record(name, n)
		copied++
		return nil
	})
	return copied, shadowed, err
}

// size is the total number of bytes written or copied.
func (o *outputTree) size() int64 {
	var total int64
	for _, n := range o.files {
		total += n
	}
	return total
}

// copyInto copies the file src to dst and returns the bytes copied.
func copyInto(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// CleanDir empties dir, creating it when missing. It refuses to clean a
// directory that holds a catalog configuration file, which happens when
// output_dir points at the project itself.
func CleanDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if filepath.Dir(abs) == abs {
		return fmt.Errorf("refusing to clean filesystem root %s", abs)
	}
	if cfgPath, err := config.Find(abs); err == nil {
		return fmt.Errorf("refusing to clean %s: it contains %s", dir, filepath.Base(cfgPath))
	}
	if err := os.RemoveAll(abs); err != nil {
		return err
	}
	return os.MkdirAll(abs, 0o755)
}
