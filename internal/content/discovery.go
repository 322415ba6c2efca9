package content

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverOptions filters which page files are picked up. Patterns are
// doublestar globs matched against the slash-separated path relative to
// the content directory (e.g. "products/**/*.yaml").
type DiscoverOptions struct {
	Include []string
	Exclude []string
}

// Discover walks the content directory and loads every page file that
// passes the include/exclude filters. Hidden entries and entries whose
// name starts with "_" are skipped. Pages without an explicit id get one
// derived from their relative path. The result is sorted by order, then id.
func Discover(contentDir string, opts DiscoverOptions) ([]*Page, error) {
	for _, pattern := range slices.Concat(opts.Include, opts.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	var pages []*Page
	sources := make(map[string]string)

	err := filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != contentDir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !slices.Contains(PageExtensions, strings.ToLower(filepath.Ext(name))) {
			return nil
		}

		relPath, err := filepath.Rel(contentDir, path)
		if err != nil {
			return fmt.Errorf("computing relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)
		if !selected(relPath, opts) {
			return nil
		}

		page, err := LoadPageFile(path)
		if err != nil {
			return err
		}
		page.SourcePath = relPath
		if page.ID == "" {
			page.ID = Slugify(strings.TrimSuffix(relPath, filepath.Ext(relPath)))
		}
		if prev, dup := sources[page.ID]; dup {
			return fmt.Errorf("duplicate page id %q (%s and %s)", page.ID, prev, relPath)
		}
		sources[page.ID] = relPath

		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking content directory: %w", err)
	}

	SortByOrder(pages)
	return pages, nil
}

// selected reports whether relPath passes the include and exclude filters.
// Patterns were validated up front, so match errors cannot occur.
func selected(relPath string, opts DiscoverOptions) bool {
	if len(opts.Include) > 0 {
		included := false
		for _, pattern := range opts.Include {
			if ok, _ := doublestar.Match(pattern, relPath); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, pattern := range opts.Exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	return true
}
