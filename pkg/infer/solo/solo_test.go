package solo

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/ib-77/skillpipe/pkg/infer/signal"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	positive := func(_ context.Context, in int) (bool, string) {
		if in <= 0 {
			return false, "value must be positive"
		}
		return true, ""
	}

	assert.True(t, Validate(ctx, 5, positive).IsOk())

	res := Validate(ctx, -1, positive)
	assert.True(t, res.IsErr())
	assert.Equal(t, "value must be positive", res.Message())

	called := false
	res = AndValidate(ctx, Fail[int]("earlier"), func(context.Context, int) (bool, string) {
		called = true
		return true, ""
	})
	assert.False(t, called)
	assert.Equal(t, "earlier", res.Message())
}

func TestSwitch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	toLen := func(_ context.Context, s string) signal.Signal[int] {
		return signal.Ok(len(s))
	}

	v, ok := Switch(ctx, Succeed("frame"), toLen).Value()
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	res := Switch(ctx, Fail[string]("decode failed"), toLen)
	assert.True(t, res.IsErr())
	assert.Equal(t, "decode failed", res.Message())
}

func TestMap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	double := func(_ context.Context, in int) int { return in * 2 }

	v, _ := Map(ctx, Succeed(21), double).Value()
	assert.Equal(t, 42, v)
	assert.True(t, Map(ctx, Fail[int]("x"), double).IsErr())
}

func TestTry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	parse := func(_ context.Context, s string) (int, error) { return strconv.Atoi(s) }

	v, ok := Try(ctx, Succeed("12"), parse).Value()
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	res := Try(ctx, Succeed("bad"), parse)
	assert.True(t, res.IsErr())
	assert.Contains(t, res.Message(), "invalid syntax")

	res = Try(ctx, Fail[string]("upstream"), parse)
	assert.Equal(t, "upstream", res.Message())
}

func TestTee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	seen := 0
	in := Succeed(3)
	out := Tee(ctx, in, func(_ context.Context, r int) { seen += r })
	assert.Equal(t, 3, seen)
	assert.Equal(t, in.ID(), out.ID())

	Tee(ctx, Fail[int]("x"), func(_ context.Context, r int) { seen += r })
	assert.Equal(t, 3, seen)
}

func TestDoubleTee(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var okCount int
	var msgs []string
	onOk := func(context.Context, int) { okCount++ }
	onErr := func(_ context.Context, m string) { msgs = append(msgs, m) }

	DoubleTee(ctx, Succeed(1), onOk, onErr)
	DoubleTee(ctx, Fail[int]("bad frame"), onOk, onErr)

	assert.Equal(t, 1, okCount)
	assert.Equal(t, []string{"bad frame"}, msgs)
}

func TestFinally(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	render := func(in signal.Signal[int]) string {
		return Finally(ctx, in,
			func(_ context.Context, r int) string { return "val:" + strconv.Itoa(r) },
			func(_ context.Context, m string) string { return "err:" + m })
	}

	assert.Equal(t, "val:7", render(Succeed(7)))
	assert.Equal(t, "err:boom", render(signal.FromError(0, errors.New("boom"))))
}
