/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: html.go
Description: Standalone HTML report. Summary cards for the run statistics, one card per finding
with its command ready to copy, and the run-level warnings.
*/

package reporting

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kleascm/intentscout/pkg/pipeline"
)

// HTMLReporter renders the report page
type HTMLReporter struct {
	templates *template.Template
}

// pageData is the template input
type pageData struct {
	Title       string
	Version     string
	GeneratedAt time.Time
	Result      *pipeline.Result
	Duration    time.Duration
}

// NewHTMLReporter parses the page template
func NewHTMLReporter() *HTMLReporter {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"join":  strings.Join,
	}
	return &HTMLReporter{
		templates: template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate)),
	}
}

// Write executes the template for res
func (r *HTMLReporter) Write(w io.Writer, res *pipeline.Result) error {
	data := pageData{
		Title:       "intentscout report",
		Version:     Version,
		GeneratedAt: res.FinishedAt,
		Result:      res,
		Duration:    res.Duration().Round(time.Millisecond),
	}
	if err := r.templates.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// WriteFile renders a report into path, creating parent directories
func WriteFile(rep Reporter, path string, res *pipeline.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := rep.Write(file, res); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
