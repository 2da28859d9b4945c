/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: prompt.go
Description: Chat messages sent to the model. The system message fixes the reply schema; the
user message describes one component, the intent filter chosen for it, and an excerpt of its
source limited to the lines that read the intent.
*/

package inference

import (
	"fmt"
	"strings"

	"github.com/kleascm/intentscout/pkg/source"
)

const systemPrompt = `You analyze Android application components and propose the intent extras needed to invoke them with adb.
Reply with a single JSON object and nothing else, using exactly this schema:
{"extras": [{"key": "<extra name>", "type": "<string|int|long|float|double|bool|uri|component>", "example": "<example value>"}]}
Rules:
- Only list extras the component actually reads from its intent.
- "example" must be a plausible value for the type, written as a string.
- If the component reads no extras, reply {"extras": []}.`

// BuildMessages returns the system and user messages for a request
func BuildMessages(req Request) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(req)},
	}
}

func userPrompt(req Request) string {
	c := req.Component
	var b strings.Builder

	fmt.Fprintf(&b, "Component: %s\n", c.Name)
	fmt.Fprintf(&b, "Kind: %s\n", c.Kind)
	fmt.Fprintf(&b, "Package: %s\n", c.Package)
	fmt.Fprintf(&b, "Exported: %s\n", c.Exported)
	if c.Permission != "" {
		fmt.Fprintf(&b, "Permission: %s\n", c.Permission)
	}
	if len(c.Authorities) > 0 {
		fmt.Fprintf(&b, "Authorities: %s\n", strings.Join(c.Authorities, ";"))
	}

	if f := req.Filter; f != nil {
		b.WriteString("Intent filter:\n")
		if len(f.Actions) > 0 {
			fmt.Fprintf(&b, "  actions: %s\n", strings.Join(f.Actions, ", "))
		}
		if len(f.Categories) > 0 {
			fmt.Fprintf(&b, "  categories: %s\n", strings.Join(f.Categories, ", "))
		}
		for _, d := range f.Data {
			var parts []string
			for _, kv := range [][2]string{
				{"scheme", d.Scheme}, {"host", d.Host}, {"port", d.Port}, {"path", d.Path},
				{"pathPrefix", d.PathPrefix}, {"pathPattern", d.PathPattern}, {"mimeType", d.MimeType},
			} {
				if kv[1] != "" {
					parts = append(parts, kv[0]+"="+kv[1])
				}
			}
			if len(parts) > 0 {
				fmt.Fprintf(&b, "  data: %s\n", strings.Join(parts, " "))
			}
		}
	} else {
		b.WriteString("Intent filter: none\n")
	}

	if req.Source == "" {
		b.WriteString("\nSource: unavailable\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\nSource excerpt (%s):\n```\n", req.SourcePath)
	b.WriteString(source.IntentContext(req.Source))
	b.WriteString("```\n")
	return b.String()
}
