package pipeline

import (
	"context"

	"github.com/ib-77/skillpipe/pkg/infer"
	"github.com/ib-77/skillpipe/pkg/infer/core"
	"github.com/ib-77/skillpipe/pkg/infer/signal"
	"github.com/ib-77/skillpipe/pkg/infer/solo"
)

// Stream runs items through the pipeline on workers goroutines. An item is
// held by one worker from its first skill to its last, so no two skills ever
// touch the same item at once. Output order is not preserved; the channel
// closes when items closes or ctx is done.
//
// The worker count may be overridden with core.WithWorkerOptions on ctx.
func (p *Pipeline) Stream(ctx context.Context, items <-chan *infer.Item, workers int) <-chan signal.Signal[*infer.Item] {
	workers = core.GetWorkerMaxCount(ctx, workers)

	engine := func(ctx context.Context, in signal.Signal[*infer.Item]) signal.Signal[*infer.Item] {
		return solo.Switch(ctx, in, p.Run)
	}

	handlers := core.CancellationHandlers[*infer.Item]{
		OnCancelProcessed: func(_ context.Context, in signal.Signal[*infer.Item]) {
			if item, ok := in.Value(); ok {
				p.logger.Warn("processed item dropped on cancel", "item", infer.FormatID(item.ID()))
			}
		},
	}

	return core.Run(ctx, core.ToSignals(ctx, items), engine, handlers, nil, workers)
}

// RunAll is Stream over a fixed slice, collecting every signal.
func (p *Pipeline) RunAll(ctx context.Context, items []*infer.Item, workers int) []signal.Signal[*infer.Item] {
	return core.FromChanMany(ctx, p.Stream(ctx, core.ToChanMany(ctx, items), workers))
}
