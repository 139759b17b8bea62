// Package stage runs numbered preparation stages, skipping those whose
// outputs already exist.
package stage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Stage is one step of the pipeline.
type Stage struct {
	Name string
	// Outputs are the files the stage produces. A stage with no outputs
	// always runs.
	Outputs []string
	Run     func(ctx context.Context) error
}

// Runner executes stages in the order they were added.
type Runner struct {
	logger *slog.Logger
	stages []Stage
	start  int
	stop   int
	force  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithRange limits execution to stages start..stop inclusive. A negative
// stop means the last stage.
func WithRange(start, stop int) Option {
	return func(r *Runner) {
		r.start = start
		r.stop = stop
	}
}

// WithForce reruns stages even when their outputs exist.
func WithForce(force bool) Option {
	return func(r *Runner) { r.force = force }
}

// NewRunner creates a Runner that logs to logger.
func NewRunner(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{logger: logger, stop: -1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add appends a stage.
func (r *Runner) Add(s Stage) {
	r.stages = append(r.stages, s)
}

// Result records what happened to each stage during Run.
type Result struct {
	Name    string
	Skipped bool
}

// Run executes the selected stages. It stops at the first failure.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	for i, s := range r.stages {
		if i < r.start || (r.stop >= 0 && i > r.stop) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log := r.logger.With("stage", i, "name", s.Name)

		if !r.force && allExist(s.Outputs) {
			log.Info("outputs exist, skipping", "outputs", s.Outputs)
			results = append(results, Result{Name: s.Name, Skipped: true})
			continue
		}

		log.Info("start")
		begin := time.Now()
		if err := s.Run(ctx); err != nil {
			log.Error("failed", "err", err)
			return results, errors.Wrapf(err, "stage %d (%s)", i, s.Name)
		}
		log.Info("finish", "dur", time.Since(begin).Round(time.Millisecond))
		results = append(results, Result{Name: s.Name})
	}
	return results, nil
}

func allExist(paths []string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// WriteFileAtomic writes path through fn via a temporary file in the same
// directory. On error the temporary file is removed and path is untouched.
func WriteFileAtomic(path string, fn func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = fn(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
