package core

import (
	"context"
	"sync"

	"github.com/ib-77/skillpipe/pkg/infer/signal"
)

type CancellationHandlers[In any] struct {
	// OnCancel is called once when ctx ends the loop, with the input channel
	// still holding whatever was not consumed.
	OnCancel func(ctx context.Context, inputCh <-chan signal.Signal[In])
	// OnCancelProcessed is called for a result that was computed but could not
	// be delivered because ctx ended first.
	OnCancelProcessed func(ctx context.Context, in signal.Signal[In])
}

// Locomotive pulls signals from inputCh, runs engine on each and pushes the
// results to outCh until inputCh closes or ctx is done. One signal is owned by
// one locomotive at a time.
func Locomotive[In, Out any](ctx context.Context, inputCh <-chan signal.Signal[In], outCh chan<- signal.Signal[Out],
	engine func(ctx context.Context, input signal.Signal[In]) signal.Signal[Out],
	handlers CancellationHandlers[In],
	onSuccess func(ctx context.Context, out signal.Signal[Out]), wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			if handlers.OnCancel != nil {
				handlers.OnCancel(ctx, inputCh)
			}
			return
		case in, ok := <-inputCh:
			if !ok {
				return
			}

			pr := engine(ctx, in)

			select {
			case <-ctx.Done():
				if handlers.OnCancelProcessed != nil {
					handlers.OnCancelProcessed(ctx, in)
				}
				if handlers.OnCancel != nil {
					handlers.OnCancel(ctx, inputCh)
				}
				return
			case outCh <- pr:
				if onSuccess != nil {
					onSuccess(ctx, pr)
				}
			}
		}
	}
}

// Run starts lines locomotives over inputCh; the returned channel closes once
// all of them have stopped.
func Run[In, Out any](ctx context.Context, inputCh <-chan signal.Signal[In],
	engine func(ctx context.Context, input signal.Signal[In]) signal.Signal[Out],
	handlers CancellationHandlers[In],
	onSuccess func(ctx context.Context, out signal.Signal[Out]),
	lines int) <-chan signal.Signal[Out] {

	if lines < 1 {
		lines = 1
	}

	out := make(chan signal.Signal[Out])
	wg := &sync.WaitGroup{}

	for range lines {
		wg.Add(1)
		go Locomotive(ctx, inputCh, out, engine, handlers, onSuccess, wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
