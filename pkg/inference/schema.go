/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: schema.go
Description: Strict reader for the extras payload. Models wrap JSON in prose or code fences, so
the reply is scanned for the first object carrying an "extras" member, and every item must then
have a non-empty key, a known type and a scalar example. Anything else rejects the whole reply.
*/

package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kleascm/intentscout/pkg/intent"
)

// MaxExtras bounds how many extras one reply may propose
const MaxExtras = 64

// ParseReply extracts and validates the extras payload from a model reply
func ParseReply(content string) ([]intent.ExtraParameter, error) {
	payload, ok := locatePayload(content)
	if !ok {
		return nil, &SchemaError{Reason: "no JSON object with an extras member", Raw: clip(content)}
	}

	raw := bytes.TrimSpace(payload["extras"])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &SchemaError{Reason: "extras is not an array", Raw: clip(content)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("extras array: %v", err), Raw: clip(content)}
	}
	if len(items) > MaxExtras {
		return nil, &SchemaError{Reason: fmt.Sprintf("%d extras exceeds the limit of %d", len(items), MaxExtras), Raw: clip(content)}
	}

	extras := make([]intent.ExtraParameter, 0, len(items))
	for i, item := range items {
		extra, err := parseItem(item)
		if err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("extras[%d]: %v", i, err), Raw: clip(content)}
		}
		extras = append(extras, extra)
	}
	return intent.Dedupe(extras), nil
}

func parseItem(item json.RawMessage) (intent.ExtraParameter, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return intent.ExtraParameter{}, fmt.Errorf("not an object")
	}

	key, err := stringField(fields, "key")
	if err != nil {
		return intent.ExtraParameter{}, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return intent.ExtraParameter{}, fmt.Errorf("empty key")
	}
	if strings.ContainsAny(key, "\n\r\x00") {
		return intent.ExtraParameter{}, fmt.Errorf("key %q contains control characters", key)
	}

	typeName, err := stringField(fields, "type")
	if err != nil {
		return intent.ExtraParameter{}, err
	}
	typ, ok := intent.ParseExtraType(typeName)
	if !ok {
		return intent.ExtraParameter{}, fmt.Errorf("unknown type %q", typeName)
	}

	example, err := scalarField(fields, "example")
	if err != nil {
		return intent.ExtraParameter{}, err
	}

	return intent.ExtraParameter{Key: key, Type: typ, Example: example, Source: intent.SourceInferred}, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("missing %s", name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s is not a string", name)
	}
	return s, nil
}

// scalarField accepts a string, or a number or boolean which is kept as its literal text
func scalarField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("missing %s", name)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", fmt.Errorf("missing %s", name)
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%s: %v", name, err)
		}
		return s, nil
	case 't', 'f':
		return string(raw), nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw), nil
	default:
		return "", fmt.Errorf("%s must be a scalar", name)
	}
}

// locatePayload finds the first JSON object in content that has an extras member
func locatePayload(content string) (map[string]json.RawMessage, bool) {
	for i := 0; i < len(content); i++ {
		if content[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(content[i:]))
		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			continue
		}
		if _, ok := obj["extras"]; ok {
			return obj, true
		}
		// Skip past the decoded object; nested objects cannot be the payload
		i += int(dec.InputOffset()) - 1
	}
	return nil, false
}

func clip(s string) string {
	const max = 2048
	if len(s) > max {
		return s[:max]
	}
	return s
}
