/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tree.go
Description: Position-tracking XML element tree. Nodes live in a flat arena and refer to their
parent and children by index, so walking up to an enclosing <intent-filter> or <manifest> is a
slice lookup. Every node keeps the 1-based line and column of its start tag.
*/

package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type nodeID int

const noNode nodeID = -1

type node struct {
	name     string
	attrs    []xml.Attr
	line     int
	column   int
	raw      string
	parent   nodeID
	children []nodeID
}

// document is an arena of element nodes. Node 0 is the root element.
type document struct {
	nodes []node
}

// syntaxError carries the decoder position of a tokenizer failure
type syntaxError struct {
	line   int
	column int
	msg    string
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.line, e.column, e.msg)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// buildDocument tokenizes content into an element arena
func buildDocument(content []byte) (*document, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.Strict = true
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "utf-8", "utf8", "us-ascii", "ascii":
			return input, nil
		}
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}

	doc := &document{}
	current := noNode

	for {
		// The decoder sits just before '<' here, which is where the next start tag begins
		line, column := dec.InputPos()
		start := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errLine, errColumn := dec.InputPos()
			var synErr *xml.SyntaxError
			if errors.As(err, &synErr) {
				return nil, &syntaxError{line: synErr.Line, column: errColumn, msg: synErr.Msg}
			}
			return nil, &syntaxError{line: errLine, column: errColumn, msg: err.Error()}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if current == noNode && len(doc.nodes) > 0 {
				return nil, &syntaxError{line: line, column: column, msg: "multiple root elements"}
			}
			id := nodeID(len(doc.nodes))
			doc.nodes = append(doc.nodes, node{
				name:   t.Name.Local,
				attrs:  append([]xml.Attr(nil), t.Attr...),
				line:   line,
				column: column,
				raw:    string(content[start:dec.InputOffset()]),
				parent: current,
			})
			if current != noNode {
				doc.nodes[current].children = append(doc.nodes[current].children, id)
			}
			current = id
		case xml.EndElement:
			if current != noNode {
				current = doc.nodes[current].parent
			}
		}
	}

	if len(doc.nodes) == 0 {
		return nil, &syntaxError{line: 1, column: 1, msg: "document has no root element"}
	}
	return doc, nil
}

func (d *document) root() nodeID { return 0 }

func (d *document) node(id nodeID) *node { return &d.nodes[id] }

// attr looks up an attribute by local name, ignoring the namespace prefix.
// Android manifests use android:name but tools occasionally emit it unprefixed.
func (d *document) attr(id nodeID, local string) (string, bool) {
	for _, a := range d.nodes[id].attrs {
		if a.Name.Local == local {
			return strings.TrimSpace(a.Value), true
		}
	}
	return "", false
}

func (d *document) attrOr(id nodeID, local string) string {
	v, _ := d.attr(id, local)
	return v
}

// children returns the direct children with the given element name
func (d *document) children(id nodeID, name string) []nodeID {
	var out []nodeID
	for _, c := range d.nodes[id].children {
		if d.nodes[c].name == name {
			out = append(out, c)
		}
	}
	return out
}

// walk visits the subtree rooted at id in document order. Returning false from
// fn skips the node's descendants.
func (d *document) walk(id nodeID, fn func(nodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range d.nodes[id].children {
		d.walk(c, fn)
	}
}
