package infer

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// Stage is the work a concrete skill contributes. Warmup runs once before the
// first Transform and receives an item as a sizing hint; Transform mutates the
// item and reports failure through its error.
type Stage interface {
	Warmup(hint *Item) error
	Transform(item *Item) error
}

// Named stages report their own name for logs and metrics.
type Named interface {
	Name() string
}

// StageFunc turns a transform function into a Stage with no warm-up.
type StageFunc func(item *Item) error

func (f StageFunc) Warmup(*Item) error { return nil }

func (f StageFunc) Transform(item *Item) error { return f(item) }

// Skill wraps a Stage with the readiness lifecycle and the error isolation
// every pipeline step relies on. Skills start not ready.
type Skill struct {
	name   string
	stage  Stage
	ready  atomic.Bool
	logger *slog.Logger
}

type Option func(*Skill)

func WithName(name string) Option {
	return func(s *Skill) { s.name = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Skill) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSkill(stage Stage, opts ...Option) *Skill {
	s := &Skill{stage: stage, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		if n, ok := stage.(Named); ok {
			s.name = n.Name()
		} else {
			s.name = fmt.Sprintf("%T", stage)
		}
	}
	s.logger = s.logger.With("skill", s.name)
	return s
}

func (s *Skill) Name() string {
	return s.name
}

// Stage returns the wrapped stage.
func (s *Skill) Stage() Stage {
	return s.stage
}

func (s *Skill) Ready() bool {
	return s.ready.Load()
}

// Prepare runs the stage warm-up. Readiness is set only when the warm-up
// succeeds; a failed warm-up leaves the skill not ready and is returned
// wrapped in ErrPrepareFailed.
func (s *Skill) Prepare(hint *Item) error {
	if err := s.stage.Warmup(hint); err != nil {
		s.logger.Error("prepare failed", "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPrepareFailed, s.name, err)
	}
	s.ready.Store(true)
	s.logger.Debug("skill ready")
	return nil
}

// Process runs the stage transform and records its outcome on item. It never
// fails upward: errors, panics and calls on a not-ready skill all end up as a
// failed outcome on the item.
func (s *Skill) Process(item *Item) {
	if !s.Ready() {
		s.logger.Warn("process called before prepare", "item", FormatID(item.ID()))
		item.SetOutcome(Failed(ErrNotReady.Error()))
		return
	}

	if err := s.transform(item); err != nil {
		s.logger.Debug("transform failed", "item", FormatID(item.ID()), "error", err)
		item.SetOutcome(Failed(err.Error()))
		return
	}
	item.SetOutcome(Succeeded())
}

func (s *Skill) transform(item *Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("transform panic", "item", FormatID(item.ID()),
				"panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.stage.Transform(item)
}

// IsNotReady reports whether a recorded outcome is the not-ready rejection.
func IsNotReady(o *Outcome) bool {
	return o != nil && o.IsErr() && o.Message() == ErrNotReady.Error()
}
