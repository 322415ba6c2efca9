package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ChangeKind classifies what part of a catalog a file belongs to. Kinds
// combine as bit flags.
type ChangeKind uint8

const (
	ChangePages ChangeKind = 1 << iota
	ChangeTemplates
	ChangeStatic
	ChangeConfig
)

func (k ChangeKind) String() string {
	var names []string
	for _, n := range []struct {
		kind ChangeKind
		name string
	}{
		{ChangePages, "pages"},
		{ChangeTemplates, "templates"},
		{ChangeStatic, "static"},
		{ChangeConfig, "config"},
	} {
		if k&n.kind != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// Root is a watched file or directory and the kind of change it reports.
type Root struct {
	Path string
	Kind ChangeKind
}

// Change is one settled burst of file events.
type Change struct {
	Kinds ChangeKind
	// Paths lists every touched file, sorted and without duplicates.
	Paths []string
}

// Has reports whether the change touched any of the kinds in k.
func (c Change) Has(k ChangeKind) bool { return c.Kinds&k != 0 }

// Watcher monitors catalog roots and reports a Change once events have
// stopped arriving for the debounce period.
type Watcher struct {
	roots    []Root
	debounce time.Duration
	onChange func(Change)
	log      zerolog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	pending map[string]ChangeKind
	timer   *time.Timer
}

// NewWatcher creates a Watcher over roots. Roots that do not exist when
// Start runs are skipped.
func NewWatcher(roots []Root, debounce time.Duration, onChange func(Change), log zerolog.Logger) *Watcher {
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		done:     make(chan struct{}),
		pending:  make(map[string]ChangeKind),
	}
}

// Start watches the roots until Stop is called. It blocks.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw

	for _, root := range w.roots {
		info, err := os.Stat(root.Path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			err = w.watchTree(root.Path)
		} else {
			// Watch the parent so editors that replace the file by rename
			// keep being noticed.
			err = fsw.Add(filepath.Dir(root.Path))
		}
		if err != nil {
			w.log.Warn().Err(err).Str("path", root.Path).Msg("cannot watch")
		}
	}

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		case <-w.done:
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return fsw.Close()
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if ignoredFile(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.watchTree(ev.Name)
		}
	}
	kind := w.classify(ev.Name)
	if kind == 0 {
		return
	}
	w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Stringer("kind", kind).Msg("change")

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[ev.Name] |= kind
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// flush hands the pending events to onChange as one Change.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	var c Change
	for path, kind := range w.pending {
		c.Kinds |= kind
		c.Paths = append(c.Paths, path)
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.Sort(c.Paths)
	w.onChange(c)
}

// classify returns the kind of the most specific root containing path, or
// zero for files outside every root, such as siblings of a watched file.
func (w *Watcher) classify(path string) ChangeKind {
	var kind ChangeKind
	best := -1
	for _, root := range w.roots {
		if path == root.Path {
			return root.Kind
		}
		rel, err := filepath.Rel(root.Path, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if n := len(root.Path); n > best {
			best, kind = n, root.Kind
		}
	}
	return kind
}

// watchTree adds dir and every directory below it. fsnotify does not
// recurse on its own.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// ignoredFile reports editor swap and backup files and OS metadata.
func ignoredFile(name string) bool {
	base := filepath.Base(name)
	switch {
	case base == ".DS_Store", base == "4913":
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	default:
		return strings.HasPrefix(base, ".#")
	}
}
