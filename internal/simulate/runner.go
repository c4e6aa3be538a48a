package simulate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/capture"
	"github.com/17Abhi005/proctorai/internal/adapters/detection"
	"github.com/17Abhi005/proctorai/internal/domain/engine"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/internal/domain/session"
	"github.com/17Abhi005/proctorai/pkg/logger"
)

// ErrUnknownScenario is returned for scenario names with no script.
var ErrUnknownScenario = errors.New("simulate: unknown scenario")

// Default run configuration.
const (
	defaultSpeedup        = 10.0
	defaultSampleInterval = 1500 * time.Millisecond
	defaultCandidateName  = "Simulated Candidate"
)

// Config controls a simulation run.
type Config struct {
	// Scenario names one of the built-in scripts.
	Scenario string

	// CandidateName labels the simulated session.
	CandidateName string

	// Speedup compresses scenario time into wall time. A 60s scenario
	// at speedup 10 runs in 6s.
	Speedup float64

	// SampleInterval is the sampling cadence in scenario time.
	SampleInterval time.Duration
}

// Report is the outcome of one simulation run.
type Report struct {
	Scenario   string
	Candidate  string
	SessionID  string
	FinalScore int
	Elapsed    time.Duration
	Violations []model.ViolationEvent

	// Missing lists expected violation types that never fired.
	Missing []model.ViolationType
}

// Passed reports whether every expected violation type was observed.
func (r *Report) Passed() bool {
	return len(r.Missing) == 0
}

// Run plays one scenario through a fully wired monitoring pipeline and
// reports what the timeline recorded.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	script, ok := Scenarios()[cfg.Scenario]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, cfg.Scenario)
	}

	speedup := cfg.Speedup
	if speedup <= 0 {
		speedup = defaultSpeedup
	}
	interval := cfg.SampleInterval
	if interval <= 0 {
		interval = defaultSampleInterval
	}
	candidate := cfg.CandidateName
	if candidate == "" {
		candidate = defaultCandidateName
	}

	log := logger.Named("simulate")
	log.Info(ctx, "starting scenario run",
		logger.String("scenario", script.Name),
		logger.String("candidate", candidate),
		logger.Float64("speedup", speedup),
		logger.Duration("scenario_duration", script.Duration()),
	)

	backend := newScriptedBackend(script, speedup)
	adapter, err := detection.New(
		detection.WithBackend(backend),
		detection.WithFallback(nil),
	)
	if err != nil {
		return nil, fmt.Errorf("building detection adapter: %w", err)
	}

	sess := session.NewManager(candidate)

	engineOpts := []engine.Option{
		engine.WithFaceAbsenceDelay(scale(engine.DefaultFaceAbsenceDelay, speedup)),
		engine.WithLookingAwayDelay(scale(engine.DefaultLookingAwayDelay, speedup)),
		engine.WithAbsenceEscalation(scale(engine.DefaultAbsenceEscalation, speedup)),
		engine.WithObjectWindow(scale(engine.DefaultObjectWindow, speedup)),
	}
	for vt, window := range engine.DefaultCooldowns() {
		engineOpts = append(engineOpts, engine.WithCooldown(vt, scale(window, speedup)))
	}
	eng, err := engine.New(adapter, sess, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("building inference engine: %w", err)
	}
	defer eng.Close()

	sampler, err := capture.NewSampler(FrameSource{}, eng,
		capture.WithInterval(scale(interval, speedup)),
	)
	if err != nil {
		return nil, fmt.Errorf("building frame sampler: %w", err)
	}

	started := time.Now()
	sess.Start(ctx)
	go sampler.Run(ctx)

	// Hold past the scripted end so a frame in flight can land.
	wall := scale(script.Duration(), speedup) + 2*scale(interval, speedup)
	select {
	case <-ctx.Done():
		_ = sampler.Shutdown(context.Background())
		sess.Stop(context.Background())
		return nil, ctx.Err()
	case <-time.After(wall):
	}

	if err := sampler.Shutdown(ctx); err != nil {
		log.Warn(ctx, "sampler did not stop cleanly", logger.Error(err))
	}
	sess.Stop(ctx)

	data := sess.Snapshot(ctx)
	report := &Report{
		Scenario:   script.Name,
		Candidate:  candidate,
		SessionID:  data.SessionID,
		FinalScore: data.IntegrityScore,
		Elapsed:    time.Since(started),
		Violations: data.Violations,
		Missing:    missingTypes(script.Expected, data.Violations),
	}

	log.Info(ctx, "scenario run finished",
		logger.String("scenario", report.Scenario),
		logger.Int("final_score", report.FinalScore),
		logger.Int("violations", len(report.Violations)),
		logger.Int("missing_expected", len(report.Missing)),
		logger.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// scale compresses a scenario duration into wall time.
func scale(d time.Duration, speedup float64) time.Duration {
	return time.Duration(float64(d) / speedup)
}

// missingTypes returns the expected types absent from the timeline.
func missingTypes(expected []model.ViolationType, violations []model.ViolationEvent) []model.ViolationType {
	seen := make(map[model.ViolationType]bool, len(violations))
	for _, ev := range violations {
		seen[ev.Type] = true
	}
	var missing []model.ViolationType
	for _, vt := range expected {
		if !seen[vt] {
			missing = append(missing, vt)
		}
	}
	return missing
}
