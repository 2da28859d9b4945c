/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extra.go
Description: Intent extra model shared by the inference client, the static source scanner and the
command synthesizer. An ExtraParameter is a typed key/value pair proposed for an invocation, tagged
with where it came from so reports can tell inferred values from heuristic ones.
*/

package intent

import (
	"fmt"
	"strings"
)

// ExtraType is the value type of an intent extra
type ExtraType int

const (
	ExtraString ExtraType = iota
	ExtraInt
	ExtraLong
	ExtraFloat
	ExtraDouble
	ExtraBool
	ExtraURI
	ExtraComponent
)

var extraTypeNames = map[ExtraType]string{
	ExtraString:    "string",
	ExtraInt:       "int",
	ExtraLong:      "long",
	ExtraFloat:     "float",
	ExtraDouble:    "double",
	ExtraBool:      "bool",
	ExtraURI:       "uri",
	ExtraComponent: "component",
}

// extraTypeAliases maps the spellings models and source code use onto ExtraType
var extraTypeAliases = map[string]ExtraType{
	"string":        ExtraString,
	"str":           ExtraString,
	"charsequence":  ExtraString,
	"text":          ExtraString,
	"int":           ExtraInt,
	"integer":       ExtraInt,
	"short":         ExtraInt,
	"byte":          ExtraInt,
	"long":          ExtraLong,
	"float":         ExtraFloat,
	"double":        ExtraDouble,
	"bool":          ExtraBool,
	"boolean":       ExtraBool,
	"uri":           ExtraURI,
	"url":           ExtraURI,
	"component":     ExtraComponent,
	"componentname": ExtraComponent,
}

func (t ExtraType) String() string {
	if name, ok := extraTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ExtraType(%d)", int(t))
}

// MarshalText renders the type by name for JSON reports
func (t ExtraType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseExtraType normalizes a type name. Unknown names report ok=false.
func ParseExtraType(s string) (ExtraType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "java.lang.")
	key = strings.TrimPrefix(key, "android.net.")
	key = strings.TrimPrefix(key, "android.content.")
	t, ok := extraTypeAliases[key]
	return t, ok
}

// Flag returns the am(1) flag used to pass an extra of this type
func (t ExtraType) Flag() string {
	switch t {
	case ExtraInt:
		return "--ei"
	case ExtraLong:
		return "--el"
	case ExtraFloat, ExtraDouble:
		return "--ef"
	case ExtraBool:
		return "--ez"
	case ExtraURI:
		return "--eu"
	case ExtraComponent:
		return "--ecn"
	default:
		return "--es"
	}
}

// ExtraSource records who proposed an extra
type ExtraSource int

const (
	// SourceInferred marks extras proposed by the language model
	SourceInferred ExtraSource = iota
	// SourceHeuristic marks extras recovered by scanning the component's source code
	SourceHeuristic
)

func (s ExtraSource) String() string {
	switch s {
	case SourceInferred:
		return "inferred"
	case SourceHeuristic:
		return "heuristic"
	default:
		return fmt.Sprintf("ExtraSource(%d)", int(s))
	}
}

// MarshalText renders the source by name for JSON reports
func (s ExtraSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ExtraParameter is one proposed intent extra
type ExtraParameter struct {
	Key     string      `json:"key"`
	Type    ExtraType   `json:"type"`
	Example string      `json:"example"`
	Source  ExtraSource `json:"source"`
}

// Value returns the example normalized for its type. Booleans are lowered to
// true/false and empty numeric examples become zero so the rendered command stays valid.
func (e ExtraParameter) Value() string {
	v := strings.TrimSpace(e.Example)
	switch e.Type {
	case ExtraBool:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return "true"
		default:
			return "false"
		}
	case ExtraInt, ExtraLong:
		if v == "" {
			return "0"
		}
		return strings.TrimSuffix(strings.TrimSuffix(v, "L"), "l")
	case ExtraFloat, ExtraDouble:
		if v == "" {
			return "0"
		}
		return strings.TrimRight(v, "fFdD")
	default:
		return e.Example
	}
}

// Dedupe drops later extras that repeat an earlier key, keeping order
func Dedupe(extras []ExtraParameter) []ExtraParameter {
	if len(extras) == 0 {
		return extras
	}
	seen := make(map[string]struct{}, len(extras))
	out := make([]ExtraParameter, 0, len(extras))
	for _, e := range extras {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		out = append(out, e)
	}
	return out
}
