package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ib-77/skillpipe/pkg/infer"
	"github.com/ib-77/skillpipe/pkg/infer/signal"
)

// Pipeline runs an ordered list of skills over items. Each skill overwrites the
// item's outcome, so after Run the item carries the last skill's result unless
// the pipeline halts on failure.
//
// Skills are shared by every worker of Stream; their Transform must tolerate
// concurrent calls on distinct items.
type Pipeline struct {
	name          string
	skills        []*infer.Skill
	byName        map[string]*infer.Skill
	logger        *slog.Logger
	metrics       *Metrics
	haltOnFailure bool
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithHaltOnFailure stops an item at the first skill that records a failure.
func WithHaltOnFailure(halt bool) Option {
	return func(p *Pipeline) { p.haltOnFailure = halt }
}

func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:   name,
		byName: map[string]*infer.Skill{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("pipeline", name)
	return p
}

func (p *Pipeline) Name() string {
	return p.name
}

// Add appends a skill. Names must be unique within the pipeline since they key
// checkpoints and metrics.
func (p *Pipeline) Add(s *infer.Skill) error {
	if _, dup := p.byName[s.Name()]; dup {
		return fmt.Errorf("pipeline %s: duplicate skill %q", p.name, s.Name())
	}
	p.skills = append(p.skills, s)
	p.byName[s.Name()] = s
	return nil
}

func (p *Pipeline) Skills() []*infer.Skill {
	return append([]*infer.Skill(nil), p.skills...)
}

func (p *Pipeline) Skill(name string) (*infer.Skill, bool) {
	s, ok := p.byName[name]
	return s, ok
}

// Ready reports whether every skill is ready.
func (p *Pipeline) Ready() bool {
	for _, s := range p.skills {
		if !s.Ready() {
			return false
		}
	}
	return true
}

// Prepare warms up every skill that is not ready yet, concurrently. Skills
// restored into the ready state are left alone. The first failure is returned
// and no further warm-ups are started after it.
func (p *Pipeline) Prepare(ctx context.Context, hint *infer.Item) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range p.skills {
		if gctx.Err() != nil {
			break
		}
		if s.Ready() {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			if err := s.Prepare(hint); err != nil {
				return err
			}
			p.logger.Info("skill prepared", "skill", s.Name(), "took", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("pipeline %s: %w", p.name, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline %s: prepare: %w", p.name, err)
	}
	return nil
}

// Run passes item through every skill in order. The returned signal fails
// only when ctx ends before the last skill; stage failures are read from
// item.Result.
func (p *Pipeline) Run(ctx context.Context, item *infer.Item) signal.Signal[*infer.Item] {
	for _, s := range p.skills {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("item abandoned", "item", infer.FormatID(item.ID()), "before", s.Name(), "error", err)
			return signal.Err[*infer.Item](fmt.Sprintf("item %s: %v before skill %s",
				infer.FormatID(item.ID()), err, s.Name()))
		}

		start := time.Now()
		s.Process(item)
		p.metrics.observe(s.Name(), outcomeLabel(item.Result), time.Since(start))

		if p.haltOnFailure && item.Result.IsErr() {
			p.logger.Debug("item halted", "item", infer.FormatID(item.ID()), "skill", s.Name(),
				"reason", item.Result.Message())
			break
		}
	}
	return signal.Ok(item)
}

func outcomeLabel(o *infer.Outcome) string {
	switch {
	case infer.IsNotReady(o):
		return outcomeNotReady
	case o != nil && o.IsErr():
		return outcomeErr
	default:
		return outcomeOk
	}
}
