/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Component model extracted from AndroidManifest.xml files. Records are plain values
built once by the parser and never mutated afterwards; downstream stages read them and attach
their own results alongside.
*/

package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind enumerates the manifest elements that declare an entry point
type Kind int

const (
	KindActivity Kind = iota
	KindService
	KindReceiver
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindActivity:
		return "activity"
	case KindService:
		return "service"
	case KindReceiver:
		return "receiver"
	case KindProvider:
		return "provider"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText renders the kind by element name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindForElement maps a manifest element name to its Kind
func KindForElement(element string) (Kind, bool) {
	switch element {
	case "activity":
		return KindActivity, true
	case "service":
		return KindService, true
	case "receiver":
		return KindReceiver, true
	case "provider":
		return KindProvider, true
	default:
		return 0, false
	}
}

// Exported is the tri-state android:exported attribute
type Exported int

const (
	// ExportedUnspecified means the attribute is absent or not a boolean literal
	ExportedUnspecified Exported = iota
	ExportedTrue
	ExportedFalse
)

func (e Exported) String() string {
	switch e {
	case ExportedTrue:
		return "true"
	case ExportedFalse:
		return "false"
	default:
		return "unspecified"
	}
}

// MarshalText renders the tri-state by name
func (e Exported) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// DataSpec mirrors one <data> element of an intent filter
type DataSpec struct {
	Scheme      string `json:"scheme,omitempty"`
	Host        string `json:"host,omitempty"`
	Port        string `json:"port,omitempty"`
	Path        string `json:"path,omitempty"`
	PathPrefix  string `json:"path_prefix,omitempty"`
	PathPattern string `json:"path_pattern,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// IntentFilter is one <intent-filter> block in declaration order
type IntentFilter struct {
	Actions     []string   `json:"actions,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	Data        []DataSpec `json:"data,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Line        int        `json:"line"`
}

// HasAction reports whether the filter names at least one action
func (f IntentFilter) HasAction() bool {
	for _, a := range f.Actions {
		if a != "" {
			return true
		}
	}
	return false
}

// Merged folds the filter's <data> elements into one spec. Android combines the
// attributes of every <data> in a filter, so the first non-empty value wins per field.
func (f IntentFilter) Merged() DataSpec {
	var out DataSpec
	pick := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	for _, d := range f.Data {
		pick(&out.Scheme, d.Scheme)
		pick(&out.Host, d.Host)
		pick(&out.Port, d.Port)
		pick(&out.Path, d.Path)
		pick(&out.PathPrefix, d.PathPrefix)
		pick(&out.PathPattern, d.PathPattern)
		pick(&out.MimeType, d.MimeType)
	}
	return out
}

// URI builds a concrete URI from the spec, or "" when no scheme is declared
func (d DataSpec) URI() string {
	if d.Scheme == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(d.Scheme)
	b.WriteString("://")
	b.WriteString(d.Host)
	if d.Host != "" && d.Port != "" {
		b.WriteString(":")
		b.WriteString(d.Port)
	}
	path := d.Path
	if path == "" {
		path = d.PathPrefix
	}
	if path == "" && d.PathPattern != "" {
		path = strings.NewReplacer(".*", "x", "\\", "", "*", "").Replace(d.PathPattern)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		b.WriteString("/")
	}
	b.WriteString(path)
	return b.String()
}

// PermissionDecl is an app-defined <permission> declared at manifest level
type PermissionDecl struct {
	Name            string `json:"name"`
	ProtectionLevel string `json:"protection_level,omitempty"`
}

// ComponentRecord is one declared entry point
type ComponentRecord struct {
	Kind         Kind           `json:"kind"`
	Name         string         `json:"name"`
	Package      string         `json:"package"`
	Exported     Exported       `json:"exported"`
	Permission   string         `json:"permission,omitempty"`
	Enabled      bool           `json:"enabled"`
	Authorities  []string       `json:"authorities,omitempty"`
	Filters      []IntentFilter `json:"filters,omitempty"`
	SharedUserID string         `json:"shared_user_id,omitempty"`
	ManifestPath string         `json:"manifest_path"`
	Line         int            `json:"line"`
	Column       int            `json:"column"`
	Declaration  string         `json:"declaration,omitempty"`
}

// IsExported resolves the tri-state: an explicit value wins, otherwise a component
// with any intent filter is reachable from outside the app.
func (c ComponentRecord) IsExported() bool {
	switch c.Exported {
	case ExportedTrue:
		return true
	case ExportedFalse:
		return false
	default:
		return len(c.Filters) > 0
	}
}

// ManifestDir is the directory holding the declaring manifest
func (c ComponentRecord) ManifestDir() string {
	return filepath.Dir(c.ManifestPath)
}

// Target is the package/class pair accepted by am -n
func (c ComponentRecord) Target() string {
	return c.Package + "/" + c.Name
}

// SimpleName is the class name without its package
func (c ComponentRecord) SimpleName() string {
	name := c.Name
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Permissions lists every permission guarding the component, component level first
func (c ComponentRecord) Permissions() []string {
	var out []string
	if c.Permission != "" {
		out = append(out, c.Permission)
	}
	for _, f := range c.Filters {
		out = append(out, f.Permissions...)
	}
	return out
}

// ManifestRecord is the parse result for one manifest file
type ManifestRecord struct {
	Path         string            `json:"path"`
	Package      string            `json:"package"`
	SharedUserID string            `json:"shared_user_id,omitempty"`
	Components   []ComponentRecord `json:"components"`
	Permissions  []PermissionDecl  `json:"permissions,omitempty"`
}

// Exported returns the components reachable from outside the app
func (m ManifestRecord) Exported() []ComponentRecord {
	var out []ComponentRecord
	for _, c := range m.Components {
		if c.IsExported() {
			out = append(out, c)
		}
	}
	return out
}

// ResolveClassName expands a manifest class reference against the package.
// ".Main" and bare "Main" both resolve to "<pkg>.Main"; dotted names are kept.
func ResolveClassName(pkg, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "."):
		return pkg + name
	case !strings.Contains(name, "."):
		return pkg + "." + name
	default:
		return name
	}
}
