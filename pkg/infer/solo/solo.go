package solo

import (
	"context"

	"github.com/ib-77/skillpipe/pkg/infer/signal"
)

func Succeed[T any](input T) signal.Signal[T] {
	return signal.Ok(input)
}

func Fail[T any](message string) signal.Signal[T] {
	return signal.Err[T](message)
}

func Validate[T any](ctx context.Context, input T,
	validate func(ctx context.Context, in T) (isValid bool, errMsg string)) signal.Signal[T] {
	return AndValidate(ctx, Succeed(input), validate)
}

func AndValidate[T any](ctx context.Context, input signal.Signal[T],
	validate func(ctx context.Context, in T) (valid bool, errMsg string)) signal.Signal[T] {

	v, ok := input.Value()
	if !ok {
		return input
	}
	if isValid, errMsg := validate(ctx, v); !isValid {
		return signal.Err[T](errMsg)
	}
	return input
}

func Switch[In any, Out any](ctx context.Context,
	input signal.Signal[In],
	onSuccess func(ctx context.Context, r In) signal.Signal[Out]) signal.Signal[Out] {

	if v, ok := input.Value(); ok {
		return onSuccess(ctx, v)
	}
	return signal.Err[Out](input.Message())
}

func Map[In any, Out any](ctx context.Context,
	input signal.Signal[In],
	onSuccess func(ctx context.Context, r In) Out) signal.Signal[Out] {

	if v, ok := input.Value(); ok {
		return signal.Ok(onSuccess(ctx, v))
	}
	return signal.Err[Out](input.Message())
}

func Try[In any, Out any](ctx context.Context, input signal.Signal[In],
	onTryExecute func(ctx context.Context, r In) (Out, error)) signal.Signal[Out] {

	v, ok := input.Value()
	if !ok {
		return signal.Err[Out](input.Message())
	}

	out, err := onTryExecute(ctx, v)
	if err != nil {
		return signal.Err[Out](err.Error())
	}
	return signal.Ok(out)
}

func Tee[T any](ctx context.Context,
	input signal.Signal[T],
	onSuccess func(ctx context.Context, r T)) signal.Signal[T] {

	if v, ok := input.Value(); ok {
		onSuccess(ctx, v)
	}
	return input
}

func DoubleTee[T any](ctx context.Context, input signal.Signal[T],
	onSuccess func(ctx context.Context, r T),
	onError func(ctx context.Context, message string)) signal.Signal[T] {

	if v, ok := input.Value(); ok {
		onSuccess(ctx, v)
	} else {
		onError(ctx, input.Message())
	}
	return input
}

func Finally[In, Out any](ctx context.Context, input signal.Signal[In],
	onSuccess func(ctx context.Context, r In) Out,
	onError func(ctx context.Context, message string) Out) Out {

	if v, ok := input.Value(); ok {
		return onSuccess(ctx, v)
	}
	return onError(ctx, input.Message())
}
