/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: context.go
Description: Source excerpting for the inference prompt. Keeps only the lines that touch the
incoming intent plus a few lines around each, so large activities fit in the model's context.
*/

package source

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// ContextRadius is the number of lines kept before and after each intent access
	ContextRadius = 5
	// MaxExcerptBytes caps the excerpt embedded in a prompt
	MaxExcerptBytes = 12 * 1024
	// MaxSourceBytes caps how much of a file is read
	MaxSourceBytes = 1 << 20
)

// intentMarkers identify lines that read from the incoming intent
var intentMarkers = []string{
	"getIntent(",
	"getExtras(",
	"getStringExtra(",
	"getIntExtra(",
	"getLongExtra(",
	"getFloatExtra(",
	"getDoubleExtra(",
	"getBooleanExtra(",
	"getParcelableExtra(",
	"getSerializableExtra(",
	"getStringArrayExtra(",
	"getStringArrayListExtra(",
	"getCharSequenceExtra(",
	"getBundleExtra(",
	"hasExtra(",
	"getData(",
	"getDataString(",
	"getAction(",
	"getQueryParameter(",
	"intent.extras",
	"intent.data",
	"intent.action",
	"onNewIntent(",
	"onReceive(",
	"onStartCommand(",
	"onBind(",
	"query(",
}

// ReadSource reads a source file up to MaxSourceBytes
func ReadSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read source %s: %w", path, err)
	}
	return string(data), nil
}

// IntentContext returns the intent-related lines of src with ContextRadius lines of
// surrounding context. Disjoint regions are separated by "...". When nothing matches
// the head of the file is returned so the model still sees the class.
func IntentContext(src string) string {
	lines := strings.Split(src, "\n")
	keep := make([]bool, len(lines))
	found := false

	for i, line := range lines {
		if !isIntentLine(line) {
			continue
		}
		found = true
		lo := max(0, i-ContextRadius)
		hi := min(len(lines)-1, i+ContextRadius)
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	if !found {
		return truncate(src, MaxExcerptBytes)
	}

	var b strings.Builder
	gap := false
	for i, line := range lines {
		if !keep[i] {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteString("...\n")
		}
		gap = false
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteString("\n")
		if b.Len() >= MaxExcerptBytes {
			break
		}
	}
	return truncate(b.String(), MaxExcerptBytes)
}

func isIntentLine(line string) bool {
	for _, m := range intentMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n bytes on a line boundary when one is available
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		cut = cut[:i+1]
	}
	return cut + "...\n"
}
