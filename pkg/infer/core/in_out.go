package core

import (
	"context"

	"github.com/ib-77/skillpipe/pkg/infer/signal"
)

type ToChanHandlers[T any] struct {
	OnStartFail func(ctx context.Context, input []T)
	OnBreak     func(ctx context.Context, rest []T)
}

// ToChanMany feeds values into a new channel, closed when all values are sent
// or ctx is done.
func ToChanMany[T any](ctx context.Context, values []T) <-chan T {
	return ToChanManyWithHandlers(ctx, ToChanHandlers[T]{}, values)
}

func ToChanManyWithHandlers[T any](ctx context.Context, handlers ToChanHandlers[T], values []T) <-chan T {
	in := make(chan T)

	go func() {
		defer close(in)

		if ctx.Err() != nil {
			if handlers.OnStartFail != nil {
				handlers.OnStartFail(ctx, values)
			}
			return
		}

		for i, v := range values {
			select {
			case in <- v:
			case <-ctx.Done():
				if handlers.OnBreak != nil {
					handlers.OnBreak(ctx, values[i:])
				}
				return
			}
		}
	}()

	return in
}

// ToSignals wraps every incoming value in a successful signal.
func ToSignals[T any](ctx context.Context, values <-chan T) <-chan signal.Signal[T] {
	out := make(chan signal.Signal[T])

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-values:
				if !ok {
					return
				}
				select {
				case out <- signal.Ok(v):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// FromChanMany drains out until it closes or ctx is done.
func FromChanMany[T any](ctx context.Context, out <-chan T) []T {
	res := make([]T, 0)
	for {
		select {
		case v, ok := <-out:
			if !ok {
				return res
			}
			res = append(res, v)
		case <-ctx.Done():
			return res
		}
	}
}
