/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: locator_test.go
Description: Tests for manifest discovery over temporary project trees.
*/

package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kleascm/intentscout/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func buildProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"app/src/main/AndroidManifest.xml",
		"app/src/debug/AndroidManifest.xml",
		"app/src/test/AndroidManifest.xml",
		"app/src/androidTest/AndroidManifest.xml",
		"lib/src/testFixtures/AndroidManifest.xml",
		"latest/src/main/AndroidManifest.xml",
		"testimonials/src/main/AndroidManifest.xml",
	} {
		writeFile(t, filepath.Join(root, rel), "<manifest package=\"a.b\"/>")
	}
	writeFile(t, filepath.Join(root, "app/src/main/res/values/strings.xml"), "<resources/>")
	return root
}

func collect(t *testing.T, root string, opts manifest.LocateOptions) []string {
	t.Helper()
	seq, err := manifest.Locate(root, opts)
	require.NoError(t, err)

	var out []string
	for path := range seq {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

// TestLocateSkipsTestSourceSets tests the default test directory filter
func TestLocateSkipsTestSourceSets(t *testing.T) {
	root := buildProject(t)

	found := collect(t, root, manifest.LocateOptions{})
	assert.Equal(t, []string{
		"app/src/debug/AndroidManifest.xml",
		"app/src/main/AndroidManifest.xml",
		"latest/src/main/AndroidManifest.xml",
		"testimonials/src/main/AndroidManifest.xml",
	}, found)
}

// TestLocateIncludeTests tests that test source sets are walked on request
func TestLocateIncludeTests(t *testing.T) {
	root := buildProject(t)

	found := collect(t, root, manifest.LocateOptions{IncludeTests: true})
	assert.Len(t, found, 7)
	assert.Contains(t, found, "app/src/androidTest/AndroidManifest.xml")
}

// TestLocateStopsEarly tests that breaking out of the sequence ends the walk
func TestLocateStopsEarly(t *testing.T) {
	root := buildProject(t)

	seq, err := manifest.Locate(root, manifest.LocateOptions{})
	require.NoError(t, err)

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)

	// The sequence is single use
	for range seq {
		t.Fatal("sequence yielded after being consumed")
	}
}

// TestLocateRootNotFound tests missing and non-directory roots
func TestLocateRootNotFound(t *testing.T) {
	_, err := manifest.Locate(filepath.Join(t.TempDir(), "missing"), manifest.LocateOptions{})
	var notFound *manifest.RootNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file, "x")
	_, err = manifest.Locate(file, manifest.LocateOptions{})
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, file, notFound.Root)
}

// TestLocateUnreadableDirectory tests that unreadable entries are reported and skipped
func TestLocateUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := buildProject(t)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "AndroidManifest.xml"), "<manifest/>")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	var skipped []string
	found := collect(t, root, manifest.LocateOptions{
		OnSkip: func(path string, err error) { skipped = append(skipped, path) },
	})
	assert.Len(t, found, 3)
	assert.Equal(t, []string{locked}, skipped)
}

// TestIsTestDir tests test directory name matching
func TestIsTestDir(t *testing.T) {
	for _, name := range []string{"test", "tests", "Test", "Tests", "testFixtures", "testDebug", "androidTest", "sharedTest", "UnitTests"} {
		assert.True(t, manifest.IsTestDir(name), name)
	}
	for _, name := range []string{"main", "latest", "contest", "debug", "attestation", "testimonials", "testapp", "testing_utils"} {
		assert.False(t, manifest.IsTestDir(name), name)
	}
}
