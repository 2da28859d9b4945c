/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file retention and scan logging helpers. LogManager keeps the newest log files
and removes the rest; the Log* helpers give every stage of a scan the same field names so the
ScanFormatter can tag them.
*/

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Field names shared by the scan helpers
const (
	FieldStage     = "stage"
	FieldPath      = "path"
	FieldPackage   = "package"
	FieldComponent = "component"
	FieldReason    = "reason"
	FieldRunID     = "run_id"
)

// Stage names used as the stage field
const (
	StageManifest = "manifest"
	StageFilter   = "filter"
	StageOracle   = "oracle"
	StageInfer    = "infer"
	StageSynth    = "synth"
)

// LogManager prunes old log files
type LogManager struct {
	logDir   string
	maxFiles int
}

// NewLogManager creates a new log manager
func NewLogManager(logDir string, maxFiles int) *LogManager {
	return &LogManager{logDir: logDir, maxFiles: maxFiles}
}

// LogFiles returns the log files in the directory, newest first
func (lm *LogManager) LogFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(lm.logDir, LogFilePrefix+"*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}

	type stamped struct {
		path string
		mod  time.Time
	}
	entries := make([]stamped, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		entries = append(entries, stamped{path: f, mod: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].mod.Equal(entries[j].mod) {
			return entries[i].path > entries[j].path
		}
		return entries[i].mod.After(entries[j].mod)
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out, nil
}

// Cleanup removes all but the newest maxFiles log files and returns what it removed
func (lm *LogManager) Cleanup() ([]string, error) {
	if lm.maxFiles <= 0 {
		return nil, nil
	}
	files, err := lm.LogFiles()
	if err != nil {
		return nil, err
	}
	if len(files) <= lm.maxFiles {
		return nil, nil
	}

	var removed []string
	for _, f := range files[lm.maxFiles:] {
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", f, err)
		}
		removed = append(removed, f)
	}
	return removed, nil
}

// LogManifest logs a parsed manifest
func LogManifest(log logrus.FieldLogger, path, pkg string, components int) {
	log.WithFields(logrus.Fields{
		FieldStage:   StageManifest,
		FieldPath:    path,
		FieldPackage: pkg,
		"components": components,
	}).Debug("Parsed manifest")
}

// LogSkipped logs an input the scan could not use
func LogSkipped(log logrus.FieldLogger, stage, subject string, err error) {
	log.WithFields(logrus.Fields{
		FieldStage:  stage,
		FieldPath:   subject,
		FieldReason: err,
	}).Warn("Skipped")
}

// LogDropped logs a component removed by a filter
func LogDropped(log logrus.FieldLogger, component, reason string) {
	log.WithFields(logrus.Fields{
		FieldStage:     StageFilter,
		FieldComponent: component,
		FieldReason:    reason,
	}).Debug("Dropped component")
}

// LogEnrichment logs the extras found for a component
func LogEnrichment(log logrus.FieldLogger, component, status string, extras int, duration time.Duration) {
	log.WithFields(logrus.Fields{
		FieldStage:     StageInfer,
		FieldComponent: component,
		"status":       status,
		"extras":       extras,
		"duration":     duration,
	}).Debug("Enriched component")
}

// LogSummary logs the end-of-run statistics
func LogSummary(log logrus.FieldLogger, runID string, stats logrus.Fields, duration time.Duration) {
	fields := logrus.Fields{
		FieldStage: StageSynth,
		FieldRunID: runID,
		"duration": duration,
	}
	for k, v := range stats {
		fields[k] = v
	}
	log.WithFields(fields).Info("Scan complete")
}
