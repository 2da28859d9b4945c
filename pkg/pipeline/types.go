/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Result types produced by a scan: warnings for recovered failures, one finding per
surviving component, run statistics and the result envelope consumed by the reporters.
*/

package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/intentscout/pkg/logging"
	"github.com/kleascm/intentscout/pkg/manifest"
	"github.com/kleascm/intentscout/pkg/permissions"
	"github.com/kleascm/intentscout/pkg/synth"
	"github.com/sirupsen/logrus"
)

// Stage names the part of the run a warning came from
type Stage string

const (
	StageManifest Stage = logging.StageManifest
	StageFilter   Stage = logging.StageFilter
	StageOracle   Stage = logging.StageOracle
	StageSource   Stage = "source"
	StageInfer    Stage = logging.StageInfer
	StageSynth    Stage = logging.StageSynth
)

// Warning is a recovered failure attributed to one file or component
type Warning struct {
	Stage   Stage  `json:"stage"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("[%s] %s", w.Stage, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Stage, w.Subject, w.Message)
}

// ExtrasStatus says where a finding's extras came from
type ExtrasStatus string

const (
	// ExtrasNone means no enrichment was attempted
	ExtrasNone ExtrasStatus = "none"
	// ExtrasInferred means the model proposed the extras
	ExtrasInferred ExtrasStatus = "inferred"
	// ExtrasHeuristic means the static source scan found the extras
	ExtrasHeuristic ExtrasStatus = "heuristic"
	// ExtrasUnknown means enrichment was attempted and failed
	ExtrasUnknown ExtrasStatus = "unknown"
)

// Finding is one reachable component and its command
type Finding struct {
	Component manifest.ComponentRecord `json:"component"`
	// PermissionLevel is the most restrictive guard, GuardPermission the name behind it
	PermissionLevel permissions.Level `json:"permission_level"`
	GuardPermission string            `json:"guard_permission,omitempty"`
	SourcePath      string            `json:"source_path,omitempty"`
	ExtrasStatus    ExtrasStatus      `json:"extras_status"`
	Command         synth.Command     `json:"command"`
	Warnings        []Warning         `json:"warnings,omitempty"`
}

// ManifestSummary describes one parsed manifest
type ManifestSummary struct {
	Path         string `json:"path"`
	Package      string `json:"package"`
	SharedUserID string `json:"shared_user_id,omitempty"`
	Components   int    `json:"components"`
}

// Stats counts what each stage kept and dropped
type Stats struct {
	Manifests         int `json:"manifests"`
	Malformed         int `json:"malformed"`
	Components        int `json:"components"`
	NotExported       int `json:"not_exported"`
	DroppedPackage    int `json:"dropped_package"`
	DroppedSharedUID  int `json:"dropped_shared_user_id"`
	DroppedPermission int `json:"dropped_permission"`
	DroppedNotAlive   int `json:"dropped_not_alive"`
	Findings          int `json:"findings"`
	Enriched          int `json:"enriched"`
	Warnings          int `json:"warnings"`
}

// Fields renders the stats for structured logging
func (s Stats) Fields() logrus.Fields {
	return logrus.Fields{
		"manifests":          s.Manifests,
		"malformed":          s.Malformed,
		"components":         s.Components,
		"not_exported":       s.NotExported,
		"dropped_package":    s.DroppedPackage,
		"dropped_shared_uid": s.DroppedSharedUID,
		"dropped_permission": s.DroppedPermission,
		"dropped_not_alive":  s.DroppedNotAlive,
		"findings":           s.Findings,
		"enriched":           s.Enriched,
		"warnings":           s.Warnings,
	}
}

// Result is the output of one run. Findings are sorted by package, kind and class name.
type Result struct {
	RunID      uuid.UUID         `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Root       string            `json:"root"`
	MaxLevel   string            `json:"max_permission_level"`
	Manifests  []ManifestSummary `json:"manifests"`
	Findings   []Finding         `json:"findings"`
	Warnings   []Warning         `json:"warnings"`
	Stats      Stats             `json:"stats"`
	// Partial is set when the run deadline or an interrupt cut enrichment short
	Partial bool `json:"partial"`
}

// Duration is the wall time of the run
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Commands returns the rendered command of every finding in order
func (r *Result) Commands() []string {
	out := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		out[i] = f.Command.Text
	}
	return out
}
