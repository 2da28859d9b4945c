/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: schema_test.go
Description: Tests for locating and validating the extras payload inside model replies.
*/

package inference_test

import (
	"errors"
	"testing"

	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseReplyAccepts tests conforming replies in different wrappings
func TestParseReplyAccepts(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []intent.ExtraParameter
	}{
		{
			name:    "bare object",
			content: `{"extras": [{"key": "id", "type": "long", "example": "42"}]}`,
			want:    []intent.ExtraParameter{{Key: "id", Type: intent.ExtraLong, Example: "42", Source: intent.SourceInferred}},
		},
		{
			name:    "prose and leading object",
			content: "Analysis {\"note\": 1} done.\n{\"extras\": [{\"key\": \"flag\", \"type\": \"boolean\", \"example\": true}]}",
			want:    []intent.ExtraParameter{{Key: "flag", Type: intent.ExtraBool, Example: "true", Source: intent.SourceInferred}},
		},
		{
			name:    "empty list",
			content: "```json\n{\"extras\": []}\n```",
			want:    []intent.ExtraParameter{},
		},
		{
			name:    "duplicates and extra fields",
			content: `{"extras": [{"key": "u", "type": "Uri", "example": "https://a.b", "why": "x"}, {"key": "u", "type": "string", "example": "dup"}]}`,
			want:    []intent.ExtraParameter{{Key: "u", Type: intent.ExtraURI, Example: "https://a.b", Source: intent.SourceInferred}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inference.ParseReply(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestParseReplyRejects tests non-conforming replies
func TestParseReplyRejects(t *testing.T) {
	for name, content := range map[string]string{
		"no json":         "The activity takes no parameters.",
		"truncated":       `{"extras": [{"key": "a", "type": "string"`,
		"extras object":   `{"extras": {"key": "a"}}`,
		"extras null":     `{"extras": null}`,
		"missing key":     `{"extras": [{"type": "string", "example": "x"}]}`,
		"empty key":       `{"extras": [{"key": " ", "type": "string", "example": "x"}]}`,
		"unknown type":    `{"extras": [{"key": "a", "type": "parcel", "example": "x"}]}`,
		"missing example": `{"extras": [{"key": "a", "type": "string"}]}`,
		"object example":  `{"extras": [{"key": "a", "type": "string", "example": {"v": 1}}]}`,
		"null example":    `{"extras": [{"key": "a", "type": "string", "example": null}]}`,
		"item not object": `{"extras": ["a"]}`,
		"nested payload":  `{"result": {"extras": []}}`,
	} {
		t.Run(name, func(t *testing.T) {
			extras, err := inference.ParseReply(content)
			assert.Nil(t, extras)
			var schemaErr *inference.SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %v", err)
			assert.NotEmpty(t, schemaErr.Reason)
		})
	}
}
