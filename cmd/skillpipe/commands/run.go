package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ib-77/skillpipe/internal/skills"
	"github.com/ib-77/skillpipe/pkg/infer"
	"github.com/ib-77/skillpipe/pkg/infer/checkpoint"
	"github.com/ib-77/skillpipe/pkg/infer/core"
	"github.com/ib-77/skillpipe/pkg/infer/pipeline"
	"github.com/ib-77/skillpipe/pkg/infer/signal"
	"github.com/ib-77/skillpipe/pkg/infer/solo"
)

type runOptions struct {
	*rootOptions
	resume     bool
	save       bool
	debug      bool
	jsonOutput bool
	metrics    bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run <image>...",
		Short: "Process PNG or JPEG frames through the configured skills",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.resume, "resume", false, "restore skill state from the stored checkpoint before running")
	cmd.Flags().BoolVar(&opts.save, "checkpoint", false, "store skill state after the run")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "mark frames for diagnostic output")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print every processed frame as a JSON record")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print per-skill outcome counters after the run")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, paths []string) error {
	s, err := o.open(cmd)
	if err != nil {
		return err
	}
	ctx := contextOf(cmd)

	reg := prometheus.NewRegistry()
	metrics, err := pipeline.NewMetrics(reg)
	if err != nil {
		return s.fail(cmd, err)
	}
	p, err := buildPipeline(s, pipeline.WithMetrics(metrics))
	if err != nil {
		return s.fail(cmd, err)
	}

	var store checkpoint.Store
	if o.resume || o.save {
		rs, err := s.store()
		if err != nil {
			return s.fail(cmd, err)
		}
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			return s.fail(cmd, err)
		}
		store = rs
	}

	if o.resume {
		cp, err := store.Load(ctx, p.Name())
		switch {
		case checkpoint.IsNotFound(err):
			s.printer.Warning("no checkpoint for %s, starting cold", p.Name())
		case err != nil:
			return s.fail(cmd, err)
		default:
			if err := p.Restore(cp); err != nil {
				return s.fail(cmd, err)
			}
			s.printer.Info("restored %d skill states for %s", len(cp.Skills), p.Name())
		}
	}

	items := make([]*infer.Item, 0, len(paths))
	for _, path := range paths {
		loaded := solo.Try(ctx, solo.Succeed(path), func(_ context.Context, path string) (*infer.Item, error) {
			return loadFrame(path, o.debug)
		})
		solo.DoubleTee(ctx, loaded,
			func(_ context.Context, item *infer.Item) { items = append(items, item) },
			func(_ context.Context, msg string) { s.printer.Failure("%s", msg) })
	}
	if len(items) == 0 {
		return s.fail(cmd, fmt.Errorf("no frames could be loaded"))
	}

	if err := p.Prepare(ctx, items[0]); err != nil {
		return s.fail(cmd, err)
	}

	failed := 0
	for res := range p.Stream(ctx, core.ToChanMany(ctx, items), s.cfg.Workers) {
		if !o.report(s, res) {
			failed++
		}
	}

	if o.save {
		cp, err := p.Snapshot()
		if err != nil {
			return s.fail(cmd, err)
		}
		if err := store.Save(ctx, cp); err != nil {
			return s.fail(cmd, err)
		}
		s.printer.Info("checkpoint saved for %s", p.Name())
	}

	if o.metrics {
		if err := printMetrics(s, reg); err != nil {
			return s.fail(cmd, err)
		}
	}

	if failed > 0 {
		s.printer.Warning("%d of %d frames failed", failed, len(items))
	} else {
		s.printer.Success("%d frames processed", len(items))
	}
	return nil
}

// report prints one result and says whether the frame succeeded.
func (o *runOptions) report(s *session, res signal.Signal[*infer.Item]) bool {
	return solo.Finally(context.Background(), res,
		func(_ context.Context, item *infer.Item) bool {
			if o.jsonOutput {
				raw, err := json.Marshal(item)
				if err != nil {
					s.printer.Failure("encode %s: %v", infer.FormatID(item.ID()), err)
					return false
				}
				s.printer.Info("%s", raw)
				return item.Result == nil || item.Result.IsOk()
			}
			if item.Result != nil && item.Result.IsErr() {
				s.printer.Failure("%s %dx%d: %s", infer.FormatID(item.ID()),
					item.Image.Width, item.Image.Height, item.Result.Message())
				return false
			}
			s.printer.Success("%s %dx%d", infer.FormatID(item.ID()), item.Image.Width, item.Image.Height)
			return true
		},
		func(_ context.Context, msg string) bool {
			s.printer.Failure("%s", msg)
			return false
		})
}

func buildPipeline(s *session, extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	opts := append([]pipeline.Option{
		pipeline.WithLogger(s.logger),
		pipeline.WithHaltOnFailure(s.cfg.HaltOnFailure),
	}, extra...)
	p := pipeline.New(s.cfg.Pipeline, opts...)
	for _, spec := range s.cfg.Skills {
		skill, err := skills.Build(spec, s.logger)
		if err != nil {
			return nil, err
		}
		if err := p.Add(skill); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// printMetrics lists the outcome counters gathered during the run.
func printMetrics(s *session, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if mf.GetName() != "skillpipe_stage_outcomes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			s.printer.Field(labels["skill"]+"/"+labels["outcome"],
				strconv.FormatFloat(m.GetCounter().GetValue(), 'f', 0, 64))
		}
	}
	return nil
}

func loadFrame(path string, debug bool) (*infer.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return infer.NewItem(nil, infer.ImageFromStd(img), debug), nil
}
