/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: table.go
Description: Permission protection level table. The platform table ships embedded as YAML and
can be extended or overridden from a file, so refreshing it for a new Android release does not
need a rebuild. Tables are read-only once loaded; With returns an extended copy.
*/

package permissions

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed permissions.yaml
var defaultTableYAML []byte

// Entry is one permission and its level
type Entry struct {
	Name  string `json:"name"`
	Level Level  `json:"level"`
}

// Table maps permission names to protection levels
type Table struct {
	levels map[string]Level
}

// DefaultTable returns the embedded platform table
func DefaultTable() *Table {
	table, err := LoadTable(bytes.NewReader(defaultTableYAML))
	if err != nil {
		// The embedded file is part of the build
		panic(fmt.Sprintf("embedded permission table is invalid: %v", err))
	}
	return table
}

// LoadTable decodes a table from YAML. The document maps level names to lists of
// permission names.
func LoadTable(r io.Reader) (*Table, error) {
	var doc map[string][]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode permission table: %w", err)
	}

	table := &Table{levels: make(map[string]Level)}
	// Apply levels in a fixed order so duplicates resolve deterministically
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		level, err := ParseLevel(key)
		if err != nil {
			return nil, fmt.Errorf("permission table: %w", err)
		}
		for _, name := range doc[key] {
			if prev, ok := table.levels[name]; ok && prev != level {
				return nil, fmt.Errorf("permission table: %s listed as both %s and %s", name, prev, level)
			}
			table.levels[name] = level
		}
	}
	return table, nil
}

// LoadTableFile decodes a table from a YAML file on disk
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open permission table: %w", err)
	}
	defer f.Close()
	return LoadTable(f)
}

// Lookup returns the level for a permission and whether the table knows it
func (t *Table) Lookup(name string) (Level, bool) {
	level, ok := t.levels[name]
	return level, ok
}

// Level returns the level for a permission, LevelUnknown when absent
func (t *Table) Level(name string) Level {
	if level, ok := t.levels[name]; ok {
		return level
	}
	return LevelUnknown
}

// Len returns the number of known permissions
func (t *Table) Len() int { return len(t.levels) }

// With returns a copy of t where the entries of other take precedence
func (t *Table) With(other *Table) *Table {
	merged := &Table{levels: make(map[string]Level, len(t.levels)+len(other.levels))}
	for k, v := range t.levels {
		merged.levels[k] = v
	}
	for k, v := range other.levels {
		merged.levels[k] = v
	}
	return merged
}

// WithDeclared returns a copy of t extended by permissions declared in manifests.
// Platform entries keep their level; an app cannot redefine android.permission.*.
func (t *Table) WithDeclared(decls map[string]string) *Table {
	merged := &Table{levels: make(map[string]Level, len(t.levels)+len(decls))}
	for k, v := range t.levels {
		merged.levels[k] = v
	}
	for name, protection := range decls {
		if _, ok := merged.levels[name]; ok {
			continue
		}
		merged.levels[name] = ParseProtectionLevel(protection)
	}
	return merged
}

// Entries lists the table sorted by level then name
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.levels))
	for name, level := range t.levels {
		out = append(out, Entry{Name: name, Level: level})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Name < out[j].Name
	})
	return out
}
