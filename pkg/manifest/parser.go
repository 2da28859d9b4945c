/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parser.go
Description: AndroidManifest.xml parser. Builds the element arena, reads the package attributes
from <manifest>, and extracts one ComponentRecord per activity, service, receiver and provider
with its intent filters in declaration order.
*/

package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxManifestBytes caps how much of a manifest file is read
const MaxManifestBytes = 4 << 20

// ParseFile reads and parses a manifest from disk. Files over MaxManifestBytes are rejected.
func ParseFile(path string) (ManifestRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return ManifestRecord{}, &MalformedManifestError{Path: path, Reason: fmt.Sprintf("read failed: %v", err)}
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxManifestBytes+1))
	if err != nil {
		return ManifestRecord{}, &MalformedManifestError{Path: path, Reason: fmt.Sprintf("read failed: %v", err)}
	}
	if len(content) > MaxManifestBytes {
		return ManifestRecord{}, &MalformedManifestError{Path: path, Reason: fmt.Sprintf("file exceeds %d bytes", MaxManifestBytes)}
	}
	return Parse(path, content)
}

// Parse extracts the manifest record from XML content. path is used for error
// reporting and stamped on every component.
func Parse(path string, content []byte) (ManifestRecord, error) {
	doc, err := buildDocument(content)
	if err != nil {
		var synErr *syntaxError
		if errors.As(err, &synErr) {
			return ManifestRecord{}, &MalformedManifestError{Path: path, Line: synErr.line, Column: synErr.column, Reason: synErr.msg}
		}
		return ManifestRecord{}, &MalformedManifestError{Path: path, Reason: err.Error()}
	}

	root := doc.node(doc.root())
	if root.name != "manifest" {
		return ManifestRecord{}, &MalformedManifestError{
			Path: path, Line: root.line, Column: root.column,
			Reason: fmt.Sprintf("root element is <%s>, expected <manifest>", root.name),
		}
	}

	pkg := doc.attrOr(doc.root(), "package")
	if pkg == "" {
		return ManifestRecord{}, &MalformedManifestError{
			Path: path, Line: root.line, Column: root.column,
			Reason: "missing package attribute on <manifest>",
		}
	}

	record := ManifestRecord{
		Path:         path,
		Package:      pkg,
		SharedUserID: doc.attrOr(doc.root(), "sharedUserId"),
	}

	for _, id := range doc.children(doc.root(), "permission") {
		name := doc.attrOr(id, "name")
		if name == "" {
			continue
		}
		record.Permissions = append(record.Permissions, PermissionDecl{
			Name:            ResolveClassName(pkg, name),
			ProtectionLevel: doc.attrOr(id, "protectionLevel"),
		})
	}

	doc.walk(doc.root(), func(id nodeID) bool {
		n := doc.node(id)
		kind, ok := KindForElement(n.name)
		if !ok {
			return true
		}
		if comp, ok := parseComponent(doc, id, kind, record); ok {
			record.Components = append(record.Components, comp)
		}
		// Components do not nest
		return false
	})

	return record, nil
}

func parseComponent(doc *document, id nodeID, kind Kind, m ManifestRecord) (ComponentRecord, bool) {
	n := doc.node(id)
	name := ResolveClassName(m.Package, doc.attrOr(id, "name"))
	if name == "" {
		return ComponentRecord{}, false
	}

	comp := ComponentRecord{
		Kind:         kind,
		Name:         name,
		Package:      m.Package,
		Exported:     parseExported(doc, id),
		Permission:   doc.attrOr(id, "permission"),
		Enabled:      doc.attrOr(id, "enabled") != "false",
		SharedUserID: m.SharedUserID,
		ManifestPath: m.Path,
		Line:         n.line,
		Column:       n.column,
		Declaration:  strings.Join(strings.Fields(n.raw), " "),
	}

	if kind == KindProvider {
		for _, a := range strings.Split(doc.attrOr(id, "authorities"), ";") {
			if a = strings.TrimSpace(a); a != "" {
				comp.Authorities = append(comp.Authorities, a)
			}
		}
		// A provider's read permission gates the query we synthesize
		if comp.Permission == "" {
			comp.Permission = doc.attrOr(id, "readPermission")
		}
	}

	for _, fid := range doc.children(id, "intent-filter") {
		comp.Filters = append(comp.Filters, parseFilter(doc, fid))
	}
	return comp, true
}

func parseExported(doc *document, id nodeID) Exported {
	v, ok := doc.attr(id, "exported")
	if !ok {
		return ExportedUnspecified
	}
	switch strings.ToLower(v) {
	case "true":
		return ExportedTrue
	case "false":
		return ExportedFalse
	default:
		// Resource references such as @bool/x cannot be resolved from source
		return ExportedUnspecified
	}
}

func parseFilter(doc *document, id nodeID) IntentFilter {
	filter := IntentFilter{
		Line:     doc.node(id).line,
		Priority: doc.attrOr(id, "priority"),
	}
	doc.walk(id, func(cid nodeID) bool {
		if cid == id {
			return true
		}
		switch doc.node(cid).name {
		case "action":
			if v := doc.attrOr(cid, "name"); v != "" {
				filter.Actions = append(filter.Actions, v)
			}
		case "category":
			if v := doc.attrOr(cid, "name"); v != "" {
				filter.Categories = append(filter.Categories, v)
			}
		case "data":
			filter.Data = append(filter.Data, DataSpec{
				Scheme:      doc.attrOr(cid, "scheme"),
				Host:        doc.attrOr(cid, "host"),
				Port:        doc.attrOr(cid, "port"),
				Path:        doc.attrOr(cid, "path"),
				PathPrefix:  doc.attrOr(cid, "pathPrefix"),
				PathPattern: doc.attrOr(cid, "pathPattern"),
				MimeType:    doc.attrOr(cid, "mimeType"),
			})
		case "permission":
			if v := doc.attrOr(cid, "name"); v != "" {
				filter.Permissions = append(filter.Permissions, v)
			}
		}
		return true
	})
	return filter
}
