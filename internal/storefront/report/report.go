// Package report collects per-run diagnostics: text and PNG attachments,
// DOM snapshots of failing pages and a pass/fail summary per scenario.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront"
	"github.com/grez-lucas/menzzo-e2e/internal/storefront/browser"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Status is the outcome of one scenario.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is one scenario line of the run summary.
type Result struct {
	Scenario    string        `yaml:"scenario"`
	Status      Status        `yaml:"status"`
	Error       string        `yaml:"error,omitempty"`
	Duration    time.Duration `yaml:"duration"`
	Attachments []string      `yaml:"attachments,omitempty"`
}

// Summary is written to summary.yaml when the run closes.
type Summary struct {
	RunID    string    `yaml:"run_id"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`
	Passed   int       `yaml:"passed"`
	Failed   int       `yaml:"failed"`
	Skipped  int       `yaml:"skipped"`
	Results  []Result  `yaml:"results"`
}

// Run owns one attachment directory. It is safe for concurrent use by
// parallel scenarios.
type Run struct {
	ID  string
	Dir string

	log     *zap.Logger
	started time.Time

	mu          sync.Mutex
	seen        map[string]int
	attachments map[string][]string
	results     []Result
}

// NewRun creates <root>/<timestamp>-<id> for this run's attachments.
func NewRun(root string, log *zap.Logger) (*Run, error) {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	now := time.Now()
	dir := filepath.Join(root, now.Format("20060102-150405")+"-"+id[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	log.Info("report run started", zap.String("run_id", id), zap.String("dir", dir))
	return &Run{
		ID:          id,
		Dir:         dir,
		log:         log.With(zap.String("run_id", id)),
		started:     now,
		seen:        make(map[string]int),
		attachments: make(map[string][]string),
	}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// path reserves a unique file name for an attachment of scenario.
func (r *Run) path(scenario, name, ext string) string {
	base := unsafeName.ReplaceAllString(scenario+"_"+name, "_")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[base]++
	if n := r.seen[base]; n > 1 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	p := filepath.Join(r.Dir, base+ext)
	r.attachments[scenario] = append(r.attachments[scenario], filepath.Base(p))
	return p
}

func (r *Run) write(scenario, name, ext string, data []byte) (string, error) {
	p := r.path(scenario, name, ext)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment %s: %w", filepath.Base(p), err)
	}
	r.log.Debug("attachment written", zap.String("scenario", scenario), zap.String("file", p))
	return p, nil
}

// AttachText stores a text attachment and returns its path.
func (r *Run) AttachText(scenario, name, text string) (string, error) {
	return r.write(scenario, name, ".txt", []byte(text))
}

// AttachPNG stores a screenshot and returns its path.
func (r *Run) AttachPNG(scenario, name string, png []byte) (string, error) {
	return r.write(scenario, name, ".png", png)
}

// AttachHTML stores a page snapshot and returns its path.
func (r *Run) AttachHTML(scenario, name, html string) (string, error) {
	return r.write(scenario, name, ".html", []byte(html))
}

// CaptureFailure records err, a screenshot and a flattened DOM snapshot of
// page. Each artifact is best effort; the joined error lists the ones that
// could not be written.
func (r *Run) CaptureFailure(page *rod.Page, scenario string, err error) error {
	var errs []error

	if _, werr := r.AttachText(scenario, "error", describe(err)); werr != nil {
		errs = append(errs, werr)
	}

	if page == nil {
		return errors.Join(errs...)
	}

	if shot, serr := page.Screenshot(false, nil); serr != nil {
		errs = append(errs, fmt.Errorf("screenshot: %w", serr))
	} else if _, werr := r.AttachPNG(scenario, "screenshot", shot); werr != nil {
		errs = append(errs, werr)
	}

	if snap, serr := browser.SnapshotDOM(page); serr != nil {
		errs = append(errs, fmt.Errorf("snapshot: %w", serr))
	} else if _, werr := r.AttachHTML(scenario, "dom", snap.HTML); werr != nil {
		errs = append(errs, werr)
	}

	joined := errors.Join(errs...)
	if joined != nil {
		r.log.Warn("failure capture incomplete", zap.String("scenario", scenario), zap.Error(joined))
	}
	return joined
}

func describe(err error) string {
	if err == nil {
		return "no error"
	}
	out := err.Error() + "\n"
	var step *storefront.StepError
	if errors.As(err, &step) {
		out += fmt.Sprintf("\nlocale: %s\nstep: %s\ntarget: %s\nelapsed: %s\n",
			step.Locale, step.Step, step.Target, step.Elapsed)
	}
	return out
}

// Record stores the outcome of a scenario. Skip errors count as skipped.
func (r *Run) Record(scenario string, elapsed time.Duration, err error) Result {
	res := Result{Scenario: scenario, Status: StatusPass, Duration: elapsed}
	switch {
	case storefront.IsSkip(err):
		res.Status = StatusSkip
		res.Error = err.Error()
	case err != nil:
		res.Status = StatusFail
		res.Error = err.Error()
	}

	r.mu.Lock()
	res.Attachments = append([]string(nil), r.attachments[scenario]...)
	r.results = append(r.results, res)
	r.mu.Unlock()

	r.log.Info("scenario finished",
		zap.String("scenario", scenario),
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", elapsed))
	return res
}

// Summary returns the results recorded so far, sorted by scenario.
func (r *Run) Summary() Summary {
	r.mu.Lock()
	results := append([]Result(nil), r.results...)
	r.mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Scenario < results[j].Scenario })
	s := Summary{RunID: r.ID, Started: r.started, Finished: time.Now(), Results: results}
	for _, res := range results {
		switch res.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		}
	}
	return s
}

// Close writes summary.yaml into the run directory.
func (r *Run) Close() error {
	s := r.Summary()
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir, "summary.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	r.log.Info("report run finished",
		zap.Int("passed", s.Passed), zap.Int("failed", s.Failed), zap.Int("skipped", s.Skipped))
	return nil
}
