/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: locator.go
Description: Manifest discovery. Walks a project tree and yields every AndroidManifest.xml as a
lazy sequence. Test source sets are skipped unless requested, and unreadable entries are reported
to a callback instead of aborting the walk.
*/

package manifest

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ManifestFileName is the file the locator looks for
const ManifestFileName = "AndroidManifest.xml"

// LocateOptions controls manifest discovery
type LocateOptions struct {
	// IncludeTests descends into test source sets such as src/test and src/androidTest
	IncludeTests bool
	// OnSkip is called for every entry the walk could not read
	OnSkip func(path string, err error)
}

// Locate checks that root is a directory and returns the manifests beneath it.
// The sequence walks the tree as it is consumed and can be ranged over once.
func Locate(root string, opts LocateOptions) (iter.Seq[string], error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &RootNotFoundError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &RootNotFoundError{Root: root}
	}

	used := false
	seq := func(yield func(string) bool) {
		if used {
			return
		}
		used = true

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if opts.OnSkip != nil {
					opts.OnSkip(path, err)
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && !opts.IncludeTests && IsTestDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() != ManifestFileName || !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
	return seq, nil
}

// IsTestDir reports whether a directory name looks like a test source set: test,
// tests, a camel-case test variant such as testFixtures or testDebug, or a name
// ending in Test or Tests such as androidTest. Words like testimonials do not match.
func IsTestDir(name string) bool {
	switch strings.ToLower(name) {
	case "test", "tests":
		return true
	}
	if rest, ok := strings.CutPrefix(name, "test"); ok && rest != "" && unicode.IsUpper(rune(rest[0])) {
		return true
	}
	return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests")
}
