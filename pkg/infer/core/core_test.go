package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ib-77/skillpipe/pkg/infer/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(_ context.Context, in signal.Signal[int]) signal.Signal[int] {
	v, ok := in.Value()
	if !ok {
		return in
	}
	return signal.Ok(v * 2)
}

func values(t *testing.T, sigs []signal.Signal[int]) []int {
	t.Helper()
	out := make([]int, 0, len(sigs))
	for _, s := range sigs {
		v, ok := s.Value()
		require.True(t, ok, "unexpected failure: %s", s.Message())
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func TestToChanMany_FromChanMany(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	got := FromChanMany(ctx, ToChanMany(ctx, []string{"a", "b", "c"}))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestToChanMany_StartFail(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var notSent []int
	ch := ToChanManyWithHandlers(ctx, ToChanHandlers[int]{
		OnStartFail: func(_ context.Context, in []int) { notSent = in },
	}, []int{1, 2})

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, []int{1, 2}, notSent)
}

func TestRun_SingleWorker(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	in := ToSignals(ctx, ToChanMany(ctx, []int{1, 2, 3, 4, 5}))
	out := FromChanMany(ctx, Run(ctx, in, double, CancellationHandlers[int]{}, nil, 1))

	assert.Equal(t, []int{2, 4, 6, 8, 10}, values(t, out))
}

func TestRun_MultipleWorkers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	input := make([]int, 100)
	expected := make([]int, 100)
	for i := range input {
		input[i] = i + 1
		expected[i] = (i + 1) * 2
	}

	var active, peak int32
	engine := func(ctx context.Context, s signal.Signal[int]) signal.Signal[int] {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return double(ctx, s)
	}

	var delivered int32
	onSuccess := func(context.Context, signal.Signal[int]) { atomic.AddInt32(&delivered, 1) }

	in := ToSignals(ctx, ToChanMany(ctx, input))
	out := FromChanMany(ctx, Run(ctx, in, engine, CancellationHandlers[int]{}, onSuccess, 4))

	assert.Equal(t, expected, values(t, out))
	assert.Equal(t, int32(100), atomic.LoadInt32(&delivered))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestRun_PassesFailuresThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in := make(chan signal.Signal[int], 2)
	in <- signal.Err[int]("decode failed")
	in <- signal.Ok(1)
	close(in)

	out := FromChanMany(ctx, Run(ctx, in, double, CancellationHandlers[int]{}, nil, 2))
	require.Len(t, out, 2)

	failed := 0
	for _, s := range out {
		if s.IsErr() {
			failed++
			assert.Equal(t, "decode failed", s.Message())
		}
	}
	assert.Equal(t, 1, failed)
}

func TestLocomotive_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan signal.Signal[int])
	out := make(chan signal.Signal[int])
	var cancelled atomic.Bool
	wg := &sync.WaitGroup{}
	wg.Add(1)

	go Locomotive(ctx, in, out, double, CancellationHandlers[int]{
		OnCancel: func(context.Context, <-chan signal.Signal[int]) { cancelled.Store(true) },
	}, nil, wg)

	cancel()
	wg.Wait()
	assert.True(t, cancelled.Load())
}

func TestLocomotive_CancelProcessed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan signal.Signal[int], 1)
	out := make(chan signal.Signal[int]) // never read
	var lost atomic.Int32
	wg := &sync.WaitGroup{}
	wg.Add(1)

	engine := func(ctx context.Context, s signal.Signal[int]) signal.Signal[int] {
		cancel()
		return double(ctx, s)
	}

	in <- signal.Ok(1)
	go Locomotive(ctx, in, out, engine, CancellationHandlers[int]{
		OnCancelProcessed: func(context.Context, signal.Signal[int]) { lost.Add(1) },
	}, nil, wg)

	wg.Wait()
	assert.Equal(t, int32(1), lost.Load())
}

func TestWorkerOptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Equal(t, 5, GetWorkerMaxCount(ctx, 5))
	assert.Equal(t, 2, GetWorkerMaxCount(WithWorkerOptions(ctx, 2), 5))
	assert.Equal(t, 5, GetWorkerMaxCount(WithWorkerOptions(ctx, 0), 5))
}

func TestIsCancellationError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCancellationError(context.Canceled))
	assert.True(t, IsCancellationError(errors.Join(errors.New("x"), context.DeadlineExceeded)))
	assert.False(t, IsCancellationError(errors.New("bad frame")))
}
