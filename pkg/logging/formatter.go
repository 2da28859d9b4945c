/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters. CustomFormatter renders timestamp, level, caller, message and
sorted fields on one line; ScanFormatter adds a stage tag taken from the entry's stage field so
a scan log reads as MANIFEST, FILTER, ORACLE, INFER and SYNTH phases.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter renders one readable line per entry
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, "", entry.Data)
}

func (f *CustomFormatter) format(entry *logrus.Entry, tag string, fields logrus.Fields) ([]byte, error) {
	var output strings.Builder

	if f.Timestamp {
		timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
		output.WriteString(f.paint(36, timestamp) + " ")
	}

	output.WriteString(f.paint(f.getLevelColor(entry.Level), levelTag(entry.Level)) + " ")

	if tag != "" {
		output.WriteString(f.paint(35, "["+tag+"]") + " ")
	}

	if f.Caller && entry.HasCaller() {
		caller := fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
		output.WriteString(f.paint(33, "["+caller+"]") + " ")
	}

	output.WriteString(entry.Message)

	if len(fields) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(fields))
	}

	output.WriteString("\n")
	return []byte(output.String()), nil
}

func (f *CustomFormatter) paint(color int, s string) string {
	if !f.Colors {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", color, s)
}

// levelTag is the upper-case level name; logrus spells warn as "warning"
func levelTag(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(level.String())
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	default:
		return 35 // Magenta
	}
}

// formatFields renders fields sorted by key so lines diff cleanly between runs
func (f *CustomFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := f.formatValue(fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, value))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}
	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.Round(time.Millisecond).String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 80 {
			return v[:80] + "..."
		}
		if strings.ContainsAny(v, " \t") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		return fmt.Sprintf("%q", v.Error())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ScanFormatter tags entries with their pipeline stage
type ScanFormatter struct {
	CustomFormatter
}

// Format formats an entry, lifting the stage field into the line prefix
func (f *ScanFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tag := ""
	fields := entry.Data
	if stage, ok := entry.Data[FieldStage].(string); ok && stage != "" {
		tag = strings.ToUpper(stage)
		fields = make(logrus.Fields, len(entry.Data)-1)
		for k, v := range entry.Data {
			if k != FieldStage {
				fields[k] = v
			}
		}
	}
	return f.format(entry, tag, fields)
}
