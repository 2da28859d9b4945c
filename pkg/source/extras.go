/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: extras.go
Description: Static extras extraction. Parses Java sources with tree-sitter and collects the keys
passed to Intent getters such as getStringExtra("key", default), resolving string constants declared
in the same file. Kotlin sources are scanned with a pattern over the same getter names.
*/

package source

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kleascm/intentscout/pkg/intent"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// StaticExtractor recovers intent extras from source code without a model
type StaticExtractor struct{}

// NewStaticExtractor creates an extractor
func NewStaticExtractor() *StaticExtractor {
	return &StaticExtractor{}
}

// Extract returns the extras read by the source file at path. Results keep first
// appearance order and are deduplicated by key and type.
func (e *StaticExtractor) Extract(ctx context.Context, path, src string) ([]intent.ExtraParameter, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return e.extractJava(ctx, []byte(src))
	case ".kt":
		return extractKotlin(src), nil
	default:
		return nil, nil
	}
}

// UsesData reports whether the source reads the intent data URI
func UsesData(src string) bool {
	return strings.Contains(src, "getData()") || strings.Contains(src, "getDataString()") ||
		strings.Contains(src, "intent.data") || strings.Contains(src, "intent?.data")
}

func (e *StaticExtractor) extractJava(ctx context.Context, content []byte) ([]intent.ExtraParameter, error) {
	// Parsers are not safe for concurrent use, so each call gets its own
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse java source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	constants := make(map[string]string)
	collectConstants(root, content, constants)

	var out []intent.ExtraParameter
	seen := make(map[string]bool)
	walkInvocations(root, content, func(name string, args []*sitter.Node) {
		typ, ok := getterType(name)
		if !ok || len(args) == 0 {
			return
		}
		key, ok := stringValue(args[0], content, constants)
		if !ok || key == "" {
			return
		}
		id := key + ":" + typ.String()
		if seen[id] {
			return
		}
		seen[id] = true

		example := zeroValue(typ)
		if len(args) > 1 {
			if v, ok := literalValue(args[1], content); ok {
				example = v
			}
		}
		out = append(out, intent.ExtraParameter{Key: key, Type: typ, Example: example, Source: intent.SourceHeuristic})
	})
	return out, nil
}

// collectConstants records identifier = "literal" declarations anywhere in the file
func collectConstants(n *sitter.Node, content []byte, out map[string]string) {
	if n.Type() == "variable_declarator" {
		name := n.ChildByFieldName("name")
		value := n.ChildByFieldName("value")
		if name != nil && value != nil && value.Type() == "string_literal" {
			if s, ok := unquote(value.Content(content)); ok {
				out[name.Content(content)] = s
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectConstants(n.NamedChild(i), content, out)
	}
}

// walkInvocations calls fn for every method_invocation with its name and arguments
func walkInvocations(n *sitter.Node, content []byte, fn func(name string, args []*sitter.Node)) {
	if n.Type() == "method_invocation" {
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			var args []*sitter.Node
			if argList := n.ChildByFieldName("arguments"); argList != nil {
				for i := 0; i < int(argList.NamedChildCount()); i++ {
					args = append(args, argList.NamedChild(i))
				}
			}
			fn(nameNode.Content(content), args)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkInvocations(n.NamedChild(i), content, fn)
	}
}

// stringValue resolves a key argument that is a literal or a known constant.
// Qualified references such as Keys.EXTRA_ID resolve by their last segment.
func stringValue(n *sitter.Node, content []byte, constants map[string]string) (string, bool) {
	switch n.Type() {
	case "string_literal":
		return unquote(n.Content(content))
	case "identifier", "field_access":
		ref := n.Content(content)
		if i := strings.LastIndex(ref, "."); i >= 0 {
			ref = ref[i+1:]
		}
		v, ok := constants[ref]
		return v, ok
	}
	return "", false
}

// literalValue renders a default argument when it is a plain literal
func literalValue(n *sitter.Node, content []byte) (string, bool) {
	switch n.Type() {
	case "string_literal":
		return unquote(n.Content(content))
	case "decimal_integer_literal", "hex_integer_literal", "decimal_floating_point_literal", "true", "false":
		return n.Content(content), true
	case "unary_expression":
		text := strings.ReplaceAll(n.Content(content), " ", "")
		if strings.HasPrefix(text, "-") {
			return text, true
		}
	}
	return "", false
}

func unquote(lit string) (string, bool) {
	if s, err := strconv.Unquote(lit); err == nil {
		return s, true
	}
	if len(lit) >= 2 && strings.HasPrefix(lit, `"`) && strings.HasSuffix(lit, `"`) {
		return lit[1 : len(lit)-1], true
	}
	return "", false
}

// getterPattern matches Intent and Bundle getters: getStringExtra, getIntExtra, hasExtra...
var getterPattern = regexp.MustCompile(`^(?:get(\w*)Extra|hasExtra)$`)

// getterType maps an Intent getter name to the extra type it reads
func getterType(method string) (intent.ExtraType, bool) {
	m := getterPattern.FindStringSubmatch(method)
	if m == nil {
		return 0, false
	}
	name := m[1]
	switch {
	case name == "" || name == "String" || name == "CharSequence":
		return intent.ExtraString, true
	case name == "Int" || name == "Short" || name == "Byte":
		return intent.ExtraInt, true
	case name == "Long":
		return intent.ExtraLong, true
	case name == "Float":
		return intent.ExtraFloat, true
	case name == "Double":
		return intent.ExtraDouble, true
	case name == "Boolean":
		return intent.ExtraBool, true
	default:
		// Parcelable, Serializable and array getters cannot be fed from am flags
		// with a typed value; a string at least exercises the key lookup
		return intent.ExtraString, true
	}
}

func zeroValue(t intent.ExtraType) string {
	switch t {
	case intent.ExtraInt, intent.ExtraLong, intent.ExtraFloat, intent.ExtraDouble:
		return "0"
	case intent.ExtraBool:
		return "false"
	default:
		return ""
	}
}

// kotlinGetter matches getXxxExtra("key" or getXxxExtra(CONST in Kotlin sources
var kotlinGetter = regexp.MustCompile(`\b(get\w*Extra|hasExtra)\(\s*(?:"([^"]*)"|([A-Za-z_][\w.]*))\s*(?:,\s*(-?[\w.]+|"[^"]*"))?`)

// kotlinConst matches const val NAME = "value"
var kotlinConst = regexp.MustCompile(`\bval\s+([A-Za-z_]\w*)\s*(?::\s*String\s*)?=\s*"([^"]*)"`)

func extractKotlin(src string) []intent.ExtraParameter {
	constants := make(map[string]string)
	for _, m := range kotlinConst.FindAllStringSubmatch(src, -1) {
		constants[m[1]] = m[2]
	}

	var out []intent.ExtraParameter
	seen := make(map[string]bool)
	for _, m := range kotlinGetter.FindAllStringSubmatch(src, -1) {
		typ, ok := getterType(m[1])
		if !ok {
			continue
		}
		key := m[2]
		if key == "" && m[3] != "" {
			ref := m[3]
			if i := strings.LastIndex(ref, "."); i >= 0 {
				ref = ref[i+1:]
			}
			key = constants[ref]
		}
		if key == "" {
			continue
		}
		id := key + ":" + typ.String()
		if seen[id] {
			continue
		}
		seen[id] = true

		example := zeroValue(typ)
		if m[4] != "" {
			example = strings.Trim(m[4], `"`)
		}
		out = append(out, intent.ExtraParameter{Key: key, Type: typ, Example: example, Source: intent.SourceHeuristic})
	}
	return out
}
