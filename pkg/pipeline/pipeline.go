/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pipeline.go
Description: Scan pipeline. Locates and parses manifests on a bounded worker pool, filters
components by package, shared user id, export state, permission level and device liveness,
enriches the survivors with source-derived extras on a second bounded pool, and synthesizes one
command per component. Recovered failures become warnings; only a missing root aborts a run.
*/

package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/intentscout/pkg/device"
	"github.com/kleascm/intentscout/pkg/inference"
	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/kleascm/intentscout/pkg/logging"
	"github.com/kleascm/intentscout/pkg/manifest"
	"github.com/kleascm/intentscout/pkg/permissions"
	"github.com/kleascm/intentscout/pkg/source"
	"github.com/kleascm/intentscout/pkg/synth"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Extractor recovers extras from a source file without a model
type Extractor interface {
	Extract(ctx context.Context, path, src string) ([]intent.ExtraParameter, error)
}

// Pipeline runs scans for one configuration
type Pipeline struct {
	cfg       Config
	table     *permissions.Table
	oracle    device.InstalledPackageOracle
	inferrer  inference.Inferrer
	extractor Extractor
	locator   *source.Locator
	logger    logrus.FieldLogger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithOracle sets the installed package source used by the alive-only filter
func WithOracle(o device.InstalledPackageOracle) Option {
	return func(p *Pipeline) { p.oracle = o }
}

// WithInferrer sets the extras model, replacing the configured endpoint
func WithInferrer(i inference.Inferrer) Option {
	return func(p *Pipeline) { p.inferrer = i }
}

// WithExtractor sets the static extras scanner
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithTable sets the permission table, replacing the embedded one
func WithTable(t *permissions.Table) Option {
	return func(p *Pipeline) { p.table = t }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New validates cfg and builds a pipeline. Collaborators not supplied as options are
// derived from the configuration.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	p := &Pipeline{cfg: cfg, logger: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}

	if p.table == nil {
		p.table = permissions.DefaultTable()
		if cfg.PermissionTable != "" {
			override, err := permissions.LoadTableFile(cfg.PermissionTable)
			if err != nil {
				return nil, err
			}
			p.table = p.table.With(override)
		}
	}
	if p.inferrer == nil && cfg.LLM.Enabled() {
		p.inferrer = inference.NewClient(cfg.LLM, inference.WithLogger(p.logger))
	}
	if p.extractor == nil && cfg.StaticExtras {
		p.extractor = source.NewStaticExtractor()
	}
	if p.oracle == nil && cfg.AliveOnly {
		p.oracle = device.NewADBOracle(cfg.DeviceSerial)
	}

	locator, err := source.NewLocator(source.DefaultIndexCacheSize)
	if err != nil {
		return nil, err
	}
	p.locator = locator
	return p, nil
}

// Config returns the run configuration
func (p *Pipeline) Config() Config { return p.cfg }

// candidate is a component that passed every filter
type candidate struct {
	comp     manifest.ComponentRecord
	decision permissions.Decision
}

// Run executes one scan. The returned error is non-nil only when no scan was possible;
// a deadline or interrupt during enrichment yields a partial result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Root:      p.cfg.Root,
		MaxLevel:  permissions.ThresholdString(p.cfg.MaxPermissionLevel),
	}
	log := p.logger.WithField(logging.FieldRunID, res.RunID.String())

	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	records, err := p.parseManifests(ctx, res, log)
	if err != nil {
		return nil, err
	}

	candidates := p.filter(ctx, records, res, log)
	res.Findings = p.enrich(ctx, candidates, log)

	for _, f := range res.Findings {
		res.Warnings = append(res.Warnings, f.Warnings...)
		if f.ExtrasStatus == ExtrasInferred || f.ExtrasStatus == ExtrasHeuristic {
			res.Stats.Enriched++
		}
	}
	if ctx.Err() != nil {
		res.Partial = true
		res.Warnings = append(res.Warnings, Warning{Stage: StageInfer, Message: fmt.Sprintf("run stopped early: %v", ctx.Err())})
	}

	res.Stats.Findings = len(res.Findings)
	res.Stats.Warnings = len(res.Warnings)
	res.FinishedAt = time.Now()
	logging.LogSummary(log, res.RunID.String(), res.Stats.Fields(), res.Duration())
	return res, nil
}

type parseOutcome struct {
	record manifest.ManifestRecord
	err    error
	// skipped is set when the run was cancelled before the file was read
	skipped bool
}

// parseManifests discovers and parses every manifest, keeping walk order
func (p *Pipeline) parseManifests(ctx context.Context, res *Result, log logrus.FieldLogger) ([]manifest.ManifestRecord, error) {
	seq, err := manifest.Locate(p.cfg.Root, manifest.LocateOptions{
		IncludeTests: p.cfg.IncludeTests,
		OnSkip: func(path string, err error) {
			logging.LogSkipped(log, logging.StageManifest, path, err)
			res.Warnings = append(res.Warnings, Warning{Stage: StageManifest, Subject: path, Message: fmt.Sprintf("skipped unreadable path: %v", err)})
		},
	})
	if err != nil {
		return nil, err
	}

	var paths []string
	for path := range seq {
		if ctx.Err() != nil {
			break
		}
		paths = append(paths, path)
	}

	outcomes := make([]parseOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(p.cfg.ParseWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i].skipped = true
				return nil
			}
			outcomes[i].record, outcomes[i].err = manifest.ParseFile(path)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]manifest.ManifestRecord, 0, len(paths))
	for i, out := range outcomes {
		if out.skipped {
			continue
		}
		if out.err != nil {
			res.Stats.Malformed++
			logging.LogSkipped(log, logging.StageManifest, paths[i], out.err)
			res.Warnings = append(res.Warnings, Warning{Stage: StageManifest, Subject: paths[i], Message: out.err.Error()})
			continue
		}
		logging.LogManifest(log, out.record.Path, out.record.Package, len(out.record.Components))
		records = append(records, out.record)
		res.Manifests = append(res.Manifests, ManifestSummary{
			Path:         out.record.Path,
			Package:      out.record.Package,
			SharedUserID: out.record.SharedUserID,
			Components:   len(out.record.Components),
		})
	}
	res.Stats.Manifests = len(records)
	return records, nil
}

// filter applies every keep/drop policy and returns the survivors in output order
func (p *Pipeline) filter(ctx context.Context, records []manifest.ManifestRecord, res *Result, log logrus.FieldLogger) []candidate {
	declared := make(map[string]string)
	for _, m := range records {
		for _, d := range m.Permissions {
			if _, ok := declared[d.Name]; !ok {
				declared[d.Name] = d.ProtectionLevel
			}
		}
	}
	classifier := permissions.NewClassifier(p.table.WithDeclared(declared), p.cfg.MaxPermissionLevel)
	alive := p.alivePackages(ctx, res, log)

	var out []candidate
	for _, m := range records {
		for _, comp := range m.Components {
			res.Stats.Components++
			switch {
			case p.cfg.PackageFilter != "" && comp.Package != p.cfg.PackageFilter:
				res.Stats.DroppedPackage++
				continue
			case p.cfg.ExcludeSharedUserID && comp.SharedUserID != "":
				res.Stats.DroppedSharedUID++
				logging.LogDropped(log, comp.Name, "shared user id "+comp.SharedUserID)
				continue
			case !comp.IsExported():
				res.Stats.NotExported++
				continue
			}

			decision := classifier.Evaluate(comp)
			if !decision.Keep {
				res.Stats.DroppedPermission++
				logging.LogDropped(log, comp.Name, fmt.Sprintf("permission %s is %s", decision.Permission, decision.Level))
				continue
			}
			if alive != nil && !alive.Contains(comp.Package) {
				res.Stats.DroppedNotAlive++
				logging.LogDropped(log, comp.Name, "package not installed")
				continue
			}
			out = append(out, candidate{comp: comp, decision: decision})
		}
	}

	slices.SortStableFunc(out, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.comp.Package, b.comp.Package),
			cmp.Compare(a.comp.Kind, b.comp.Kind),
			cmp.Compare(a.comp.Name, b.comp.Name),
			cmp.Compare(a.comp.ManifestPath, b.comp.ManifestPath),
			cmp.Compare(a.comp.Line, b.comp.Line),
		)
	})
	return out
}

// alivePackages asks the oracle once. A nil set means every package counts as installed.
func (p *Pipeline) alivePackages(ctx context.Context, res *Result, log logrus.FieldLogger) device.PackageSet {
	if !p.cfg.AliveOnly || p.oracle == nil {
		return nil
	}
	octx := ctx
	if p.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		octx, cancel = context.WithTimeout(ctx, p.cfg.OracleTimeout)
		defer cancel()
	}
	set, err := p.oracle.ListInstalledPackages(octx)
	if err != nil {
		log.WithFields(logrus.Fields{
			logging.FieldStage:  logging.StageOracle,
			logging.FieldReason: err,
		}).Warn("Installed package list unavailable, keeping all packages")
		res.Warnings = append(res.Warnings, Warning{
			Stage:   StageOracle,
			Message: fmt.Sprintf("alive-only filter disabled: %v", err),
		})
		return nil
	}
	log.WithFields(logrus.Fields{
		logging.FieldStage: logging.StageOracle,
		"packages":         len(set),
	}).Debug("Listed installed packages")
	return set
}

// enrich runs per-component enrichment and synthesis concurrently, results by index
func (p *Pipeline) enrich(ctx context.Context, candidates []candidate, log logrus.FieldLogger) []Finding {
	findings := make([]Finding, len(candidates))
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			findings[i] = p.enrichOne(ctx, c, log)
			return nil
		})
	}
	_ = g.Wait()
	return findings
}

// enrichOne builds the finding for one component. It never fails; problems become warnings.
func (p *Pipeline) enrichOne(ctx context.Context, c candidate, log logrus.FieldLogger) Finding {
	comp := c.comp
	f := Finding{
		Component:       comp,
		PermissionLevel: c.decision.Level,
		GuardPermission: c.decision.Permission,
		ExtrasStatus:    ExtrasNone,
	}
	warn := func(stage Stage, format string, args ...any) {
		f.Warnings = append(f.Warnings, Warning{Stage: stage, Subject: comp.Name, Message: fmt.Sprintf(format, args...)})
	}
	if !comp.Enabled {
		warn(StageSynth, "component is disabled in the manifest")
	}

	started := time.Now()
	extras := p.extrasFor(ctx, comp, &f, warn)
	f.Command = synth.Synthesize(comp, extras)
	if f.ExtrasStatus != ExtrasNone {
		logging.LogEnrichment(log, comp.Name, string(f.ExtrasStatus), len(extras), time.Since(started))
	}
	return f
}

func (p *Pipeline) extrasFor(ctx context.Context, comp manifest.ComponentRecord, f *Finding, warn func(Stage, string, ...any)) []intent.ExtraParameter {
	if p.inferrer == nil && p.extractor == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		f.ExtrasStatus = ExtrasUnknown
		warn(StageInfer, "enrichment skipped: %v", err)
		return nil
	}
	if p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}

	path, err := p.locator.Find(comp.Name, comp.ManifestDir())
	if err != nil {
		if !errors.Is(err, source.ErrSourceNotFound) {
			warn(StageSource, "source lookup failed: %v", err)
		}
		return nil
	}
	src, err := source.ReadSource(path)
	if err != nil {
		warn(StageSource, "%v", err)
		return nil
	}
	f.SourcePath = path
	if source.UsesData(src) && !hasDataURI(comp) {
		warn(StageSource, "source reads the intent data URI but the selected filter declares none; add -d by hand")
	}

	if p.inferrer != nil {
		req := inference.Request{Component: comp, SourcePath: path, Source: src}
		if i := synth.SelectFilter(comp.Filters); i >= 0 {
			req.Filter = &comp.Filters[i]
		}
		extras, err := p.inferrer.Infer(ctx, req)
		if err == nil {
			f.ExtrasStatus = ExtrasInferred
			return extras
		}
		f.ExtrasStatus = ExtrasUnknown
		warn(StageInfer, "%s", describeInferenceError(err))
		if p.extractor == nil || ctx.Err() != nil {
			return nil
		}
	}

	extras, err := p.extractor.Extract(ctx, path, src)
	if err != nil {
		f.ExtrasStatus = ExtrasUnknown
		warn(StageSource, "static extras scan failed: %v", err)
		return nil
	}
	f.ExtrasStatus = ExtrasHeuristic
	return extras
}

// hasDataURI reports whether the command will carry -d
func hasDataURI(comp manifest.ComponentRecord) bool {
	i := synth.SelectFilter(comp.Filters)
	return i >= 0 && comp.Filters[i].Merged().URI() != ""
}

func describeInferenceError(err error) string {
	var schemaErr *inference.SchemaError
	var netErr *inference.NetworkError
	switch {
	case errors.As(err, &schemaErr):
		return "extras unknown, model reply rejected: " + schemaErr.Reason
	case errors.As(err, &netErr):
		return "extras unknown, " + netErr.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "extras unknown, inference interrupted: " + err.Error()
	default:
		return "extras unknown, inference failed: " + err.Error()
	}
}
