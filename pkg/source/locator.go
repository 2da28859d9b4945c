/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: locator.go
Description: Maps a fully-qualified class name to its Java or Kotlin source file. Each project
root is scanned once per run and the resulting index is kept in an LRU cache, so the many
components of one manifest share a single directory walk.
*/

package source

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ErrSourceNotFound signals that no source file matched; enrichment is skipped
var ErrSourceNotFound = errors.New("source file not found")

// Extensions lists the source file extensions tried, in preference order
var Extensions = []string{".java", ".kt"}

// DefaultIndexCacheSize bounds how many project roots keep an index
const DefaultIndexCacheSize = 64

// skipDirs are never descended while indexing
var skipDirs = map[string]bool{
	".git":         true,
	".gradle":      true,
	".idea":        true,
	"build":        true,
	"node_modules": true,
}

// index maps a file's base name without extension to its paths relative to the root
type index map[string][]string

// Locator finds source files for component classes
type Locator struct {
	cache *lru.Cache[string, index]
	group singleflight.Group
}

// NewLocator creates a locator caching up to size project indexes
func NewLocator(size int) (*Locator, error) {
	if size <= 0 {
		size = DefaultIndexCacheSize
	}
	cache, err := lru.New[string, index](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create source index cache: %w", err)
	}
	return &Locator{cache: cache}, nil
}

// RelativePaths returns the candidate paths for a class, relative to a source root.
// Inner classes ("Outer$Inner") live in the outer class's file.
func RelativePaths(className string) []string {
	className = strings.TrimSpace(className)
	if i := strings.Index(className, "$"); i >= 0 {
		className = className[:i]
	}
	if className == "" {
		return nil
	}
	base := filepath.Join(strings.Split(className, ".")...)
	out := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		out = append(out, base+ext)
	}
	return out
}

// Find returns the source file for className under projectRoot, or ErrSourceNotFound.
// A file matches when its path ends with the package directories and class name,
// so any source set layout (java/, kotlin/, src/) is accepted. Ties resolve to the
// lexically smallest path.
func (l *Locator) Find(className, projectRoot string) (string, error) {
	candidates := RelativePaths(className)
	if len(candidates) == 0 {
		return "", ErrSourceNotFound
	}

	idx, err := l.index(projectRoot)
	if err != nil {
		return "", err
	}

	for _, rel := range candidates {
		stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		var matches []string
		for _, p := range idx[stem] {
			if p == rel || strings.HasSuffix(p, string(filepath.Separator)+rel) {
				matches = append(matches, p)
			}
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return filepath.Join(projectRoot, matches[0]), nil
		}
	}

	// Kotlin does not require the directory layout to follow the package, so a
	// class name that is unique in the tree is accepted as is
	stem := strings.TrimSuffix(filepath.Base(candidates[0]), filepath.Ext(candidates[0]))
	if paths := idx[stem]; len(paths) == 1 {
		return filepath.Join(projectRoot, paths[0]), nil
	}
	return "", ErrSourceNotFound
}

// index returns the cached index for root, building it once even under concurrent callers
func (l *Locator) index(root string) (index, error) {
	root = filepath.Clean(root)
	if idx, ok := l.cache.Get(root); ok {
		return idx, nil
	}

	v, err, _ := l.group.Do(root, func() (interface{}, error) {
		if idx, ok := l.cache.Get(root); ok {
			return idx, nil
		}
		idx, err := buildIndex(root)
		if err != nil {
			return nil, err
		}
		l.cache.Add(root, idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(index), nil
}

func buildIndex(root string) (index, error) {
	idx := make(index)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees simply contribute nothing
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		if !isSourceExt(ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), ext)
		idx[stem] = append(idx[stem], rel)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("failed to index sources under %s: %w", root, err)
	}
	return idx, nil
}

func isSourceExt(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
