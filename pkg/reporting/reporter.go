/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Report writers for scan results. The text report mirrors a terminal session, one
block per command with its manifest location, declaration, source file and warnings; the JSON
report is the result envelope for tooling; the HTML report is a standalone page.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kleascm/intentscout/pkg/pipeline"
)

// Version is stamped into JSON and HTML reports
const Version = "1.0.0"

// Format selects a report writer
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatHTML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or html)", s)
	}
}

// Reporter renders a scan result
type Reporter interface {
	Write(w io.Writer, res *pipeline.Result) error
}

// New returns the reporter for a format. Colors only affect the text report.
func New(format Format, colors bool) (Reporter, error) {
	switch format {
	case FormatText:
		return &TextReporter{Colors: colors}, nil
	case FormatJSON:
		return &JSONReporter{Indent: true}, nil
	case FormatHTML:
		return NewHTMLReporter(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// TextReporter writes the human readable report
type TextReporter struct {
	Colors bool
}

func (r *TextReporter) paint(code, s string) string {
	if !r.Colors {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Write renders every finding followed by run-level warnings and a summary line
func (r *TextReporter) Write(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder

	for _, f := range res.Findings {
		c := f.Component
		fmt.Fprintf(&b, "\n%s %s\n", r.paint("1;36", "["+c.Kind.String()+"]"), r.paint("1", c.Name))
		fmt.Fprintf(&b, "%s\n", r.paint("1;33", f.Command.Text))
		fmt.Fprintf(&b, "%s\n", r.paint("1;34", fmt.Sprintf("Manifest: %s:%d", c.ManifestPath, c.Line)))
		if c.Declaration != "" {
			fmt.Fprintf(&b, "%s\n%s\n", r.paint("1;35", "Component XML:"), c.Declaration)
		}
		if f.SourcePath != "" {
			fmt.Fprintf(&b, "%s\n", r.paint("1;32", "Source file: "+f.SourcePath))
		}
		if f.GuardPermission != "" {
			fmt.Fprintf(&b, "Permission: %s (%s)\n", f.GuardPermission, f.PermissionLevel)
		}
		if c.SharedUserID != "" {
			fmt.Fprintf(&b, "%s\n", r.paint("1;35", "Note: This component has sharedUserId: "+c.SharedUserID))
		}
		fmt.Fprintf(&b, "Extras: %s (%d)\n", f.ExtrasStatus, len(f.Command.Extras))
		for _, warn := range f.Warnings {
			fmt.Fprintf(&b, "%s\n", r.paint("33", "Warning: "+warn.Message))
		}
	}

	var runWarnings []pipeline.Warning
	for _, warn := range res.Warnings {
		if warn.Stage == pipeline.StageManifest || warn.Stage == pipeline.StageOracle || warn.Subject == "" {
			runWarnings = append(runWarnings, warn)
		}
	}
	if len(runWarnings) > 0 {
		fmt.Fprintf(&b, "\n%s\n", r.paint("1;33", "Warnings:"))
		for _, warn := range runWarnings {
			fmt.Fprintf(&b, "  %s\n", warn)
		}
	}

	status := ""
	if res.Partial {
		status = " (partial)"
	}
	fmt.Fprintf(&b, "\n%s\n", r.paint("1", fmt.Sprintf("%d command(s) from %d manifest(s), %d warning(s)%s",
		len(res.Findings), res.Stats.Manifests, len(res.Warnings), status)))

	_, err := io.WriteString(w, b.String())
	return err
}

// JSONReporter writes the result envelope
type JSONReporter struct {
	Indent bool
}

type jsonReport struct {
	Version string `json:"version"`
	*pipeline.Result
}

// Write encodes the result as one JSON document
func (r *JSONReporter) Write(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(jsonReport{Version: Version, Result: res}); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
