/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: command.go
Description: Command synthesis. Turns a component and its extras into an adb invocation: the verb
follows the component kind, the first intent filter with an action supplies action, categories,
data and type, and every extra becomes a typed am flag. Synthesize is pure; the rendered string
is a projection of the argument vector, quoted for the device shell and again for the host.
*/

package synth

import (
	"fmt"
	"strings"

	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/kleascm/intentscout/pkg/manifest"
	"mvdan.cc/sh/v3/syntax"
)

// Verb is the kind of invocation
type Verb int

const (
	VerbStartActivity Verb = iota
	VerbStartService
	VerbSendBroadcast
	VerbQueryProvider
)

func (v Verb) String() string {
	switch v {
	case VerbStartActivity:
		return "start-activity"
	case VerbStartService:
		return "start-service"
	case VerbSendBroadcast:
		return "send-broadcast"
	case VerbQueryProvider:
		return "query-provider"
	default:
		return fmt.Sprintf("Verb(%d)", int(v))
	}
}

// MarshalText renders the verb by name
func (v Verb) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// VerbFor maps a component kind to its verb
func VerbFor(kind manifest.Kind) Verb {
	switch kind {
	case manifest.KindService:
		return VerbStartService
	case manifest.KindReceiver:
		return VerbSendBroadcast
	case manifest.KindProvider:
		return VerbQueryProvider
	default:
		return VerbStartActivity
	}
}

// ComponentRef identifies the component a command targets
type ComponentRef struct {
	Kind    manifest.Kind `json:"kind"`
	Package string        `json:"package"`
	Name    string        `json:"name"`
}

// Command is a synthesized invocation. Values are never modified after Synthesize.
type Command struct {
	Component ComponentRef `json:"component"`
	Verb      Verb         `json:"verb"`
	// Target is package/class for intents, the content URI for providers
	Target     string                  `json:"target"`
	Action     string                  `json:"action,omitempty"`
	Categories []string                `json:"categories,omitempty"`
	DataURI    string                  `json:"data_uri,omitempty"`
	MimeType   string                  `json:"mime_type,omitempty"`
	Extras     []intent.ExtraParameter `json:"extras"`
	// FilterIndex is the position of the selected intent filter, -1 for a bare target
	FilterIndex int    `json:"filter_index"`
	Text        string `json:"command"`
}

// SelectFilter returns the index of the first filter that names an action, or -1
func SelectFilter(filters []manifest.IntentFilter) int {
	for i, f := range filters {
		if f.HasAction() {
			return i
		}
	}
	return -1
}

// Synthesize builds the command for a component
func Synthesize(comp manifest.ComponentRecord, extras []intent.ExtraParameter) Command {
	cmd := Command{
		Component:   ComponentRef{Kind: comp.Kind, Package: comp.Package, Name: comp.Name},
		Verb:        VerbFor(comp.Kind),
		Target:      comp.Target(),
		Extras:      append([]intent.ExtraParameter{}, extras...),
		FilterIndex: -1,
	}

	if cmd.Verb == VerbQueryProvider {
		authority := comp.Name
		if len(comp.Authorities) > 0 {
			authority = comp.Authorities[0]
		}
		cmd.Target = "content://" + authority
		cmd.Text = Render(cmd)
		return cmd
	}

	if i := SelectFilter(comp.Filters); i >= 0 {
		f := comp.Filters[i]
		cmd.FilterIndex = i
		for _, a := range f.Actions {
			if a != "" {
				cmd.Action = a
				break
			}
		}
		cmd.Categories = append([]string(nil), f.Categories...)
		data := f.Merged()
		cmd.DataURI = data.URI()
		cmd.MimeType = data.MimeType
	}

	cmd.Text = Render(cmd)
	return cmd
}

// Words returns the command run on the device, unquoted, starting with am or content
func (c Command) Words() []string {
	switch c.Verb {
	case VerbQueryProvider:
		return []string{"content", "query", "--uri", c.Target}
	}

	words := []string{"am"}
	switch c.Verb {
	case VerbStartService:
		words = append(words, "startservice")
	case VerbSendBroadcast:
		words = append(words, "broadcast")
	default:
		words = append(words, "start")
	}
	words = append(words, "-n", c.Target)

	if c.Action != "" {
		words = append(words, "-a", c.Action)
	}
	for _, cat := range c.Categories {
		words = append(words, "-c", cat)
	}
	if c.DataURI != "" {
		words = append(words, "-d", c.DataURI)
	}
	if c.MimeType != "" {
		words = append(words, "-t", c.MimeType)
	}
	for _, e := range c.Extras {
		words = append(words, e.Type.Flag(), e.Key, e.Value())
	}
	return words
}

// Args returns the host argument vector, starting with "adb". adb shell joins the
// words after "shell" with spaces and the device shell splits them again, so each
// word is already quoted for the device.
func (c Command) Args() []string {
	words := c.Words()
	args := make([]string, 0, len(words)+2)
	args = append(args, "adb", "shell")
	for _, w := range words {
		args = append(args, QuoteDevice(w))
	}
	return args
}

// Render joins the argument vector into one shell-safe line
func Render(c Command) string {
	args := c.Args()
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

// Quote quotes s for bash on the host when it contains shell syntax. Null bytes
// cannot be represented in a shell word and are dropped.
func Quote(s string) string {
	return quote(s, syntax.LangBash)
}

// QuoteDevice quotes s for the device shell, mksh on Android
func QuoteDevice(s string) string {
	return quote(s, syntax.LangMirBSDKorn)
}

func quote(s string, lang syntax.LangVariant) string {
	q, err := syntax.Quote(s, lang)
	if err == nil {
		return q
	}
	q, err = syntax.Quote(strings.ReplaceAll(s, "\x00", ""), lang)
	if err == nil {
		return q
	}
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, "\x00", ""), "'", `'\''`) + "'"
}
