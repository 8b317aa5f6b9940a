package infer

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// badFrameStage always rejects the frame.
type badFrameStage struct {
	warmed int
}

func (s *badFrameStage) Warmup(*Item) error { s.warmed++; return nil }

func (s *badFrameStage) Transform(*Item) error { return errors.New("bad frame") }

// countingStage keeps a frame counter as extra state.
type countingStage struct {
	Frames  int
	restore error
}

func (s *countingStage) Name() string { return "counter" }

func (s *countingStage) Warmup(*Item) error { return nil }

func (s *countingStage) Transform(*Item) error { s.Frames++; return nil }

func (s *countingStage) ExtraState() (any, error) {
	return map[string]int{"frames": s.Frames}, nil
}

func (s *countingStage) RestoreExtraState(extra json.RawMessage) error {
	if s.restore != nil {
		return s.restore
	}
	var v struct {
		Frames int `json:"frames"`
	}
	if err := json.Unmarshal(extra, &v); err != nil {
		return err
	}
	s.Frames = v.Frames
	return nil
}

type failingWarmup struct{}

func (failingWarmup) Warmup(*Item) error     { return errors.New("model file missing") }
func (failingWarmup) Transform(*Item) error { return nil }

type panickingStage struct{}

func (panickingStage) Warmup(*Item) error     { return nil }
func (panickingStage) Transform(*Item) error { panic("index out of range") }

func TestSkill_StartsNotReady(t *testing.T) {
	t.Parallel()

	s := NewSkill(&badFrameStage{})
	assert.False(t, s.Ready())
}

func TestSkill_BadFrameScenario(t *testing.T) {
	t.Parallel()

	stage := &badFrameStage{}
	s := NewSkill(stage)
	item := NewItem(nil, NewImage(2, 2), false)

	require.NoError(t, s.Prepare(item))
	assert.True(t, s.Ready())
	assert.Equal(t, 1, stage.warmed)

	s.Process(item)
	require.NotNil(t, item.Result)
	assert.True(t, item.Result.IsErr())
	assert.Equal(t, "bad frame", item.Result.Message())
	assert.True(t, s.Ready())
}

func TestSkill_ProcessSuccess(t *testing.T) {
	t.Parallel()

	s := NewSkill(StageFunc(func(item *Item) error {
		item.Image.Set(0, 0, 9, 9, 9)
		return nil
	}))
	item := NewItem(nil, NewImage(1, 1), false)

	require.NoError(t, s.Prepare(item))
	s.Process(item)

	require.NotNil(t, item.Result)
	assert.True(t, item.Result.IsOk())
	assert.Equal(t, []byte{9, 9, 9}, item.Image.Pix)
}

func TestSkill_LastWriterWins(t *testing.T) {
	t.Parallel()

	fail := NewSkill(&badFrameStage{})
	pass := NewSkill(StageFunc(func(*Item) error { return nil }))
	item := NewItem(nil, NewImage(1, 1), false)
	require.NoError(t, fail.Prepare(item))
	require.NoError(t, pass.Prepare(item))

	fail.Process(item)
	pass.Process(item)
	assert.True(t, item.Result.IsOk())

	fail.Process(item)
	assert.Equal(t, "bad frame", item.Result.Message())
}

func TestSkill_ProcessNotReady(t *testing.T) {
	t.Parallel()

	called := false
	s := NewSkill(StageFunc(func(*Item) error { called = true; return nil }))
	item := NewItem(nil, NewImage(1, 1), false)

	s.Process(item)

	assert.False(t, called)
	assert.True(t, IsNotReady(item.Result))
}

func TestSkill_PrepareFailureKeepsNotReady(t *testing.T) {
	t.Parallel()

	s := NewSkill(failingWarmup{}, WithName("detector"))
	err := s.Prepare(NewItem(nil, NewImage(1, 1), false))

	assert.ErrorIs(t, err, ErrPrepareFailed)
	assert.Contains(t, err.Error(), "model file missing")
	assert.False(t, s.Ready())
}

func TestSkill_ProcessRecoversPanic(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	s := NewSkill(panickingStage{}, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	item := NewItem(nil, NewImage(1, 1), false)
	require.NoError(t, s.Prepare(item))

	assert.NotPanics(t, func() { s.Process(item) })
	require.NotNil(t, item.Result)
	assert.Equal(t, "panic: index out of range", item.Result.Message())
	assert.Contains(t, logs.String(), "transform panic")
}

func TestSkill_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "counter", NewSkill(&countingStage{}).Name())
	assert.Equal(t, "gate", NewSkill(&countingStage{}, WithName("gate")).Name())
	assert.Equal(t, "*infer.badFrameStage", NewSkill(&badFrameStage{}).Name())
}

func TestSkill_StateDefaults(t *testing.T) {
	t.Parallel()

	s := NewSkill(&badFrameStage{})
	st, err := s.State()
	require.NoError(t, err)

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ready":false,"extra":null}`, string(raw))
}

func TestSkill_StateWithExtra(t *testing.T) {
	t.Parallel()

	stage := &countingStage{Frames: 7}
	s := NewSkill(stage)
	require.NoError(t, s.Prepare(nil))

	st, err := s.State()
	require.NoError(t, err)
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ready":true,"extra":{"frames":7}}`, string(raw))
}

func TestSkill_RestoreIdempotent(t *testing.T) {
	t.Parallel()

	for _, ready := range []bool{false, true} {
		stage := &countingStage{Frames: 3}
		s := NewSkill(stage)
		if ready {
			require.NoError(t, s.Prepare(nil))
		}

		st, err := s.State()
		require.NoError(t, err)
		raw, err := json.Marshal(st)
		require.NoError(t, err)

		require.NoError(t, s.RestoreFromState(raw))
		assert.Equal(t, ready, s.Ready())
		assert.Equal(t, 3, stage.Frames)
	}
}

func TestSkill_RestoreIntoFreshSkill(t *testing.T) {
	t.Parallel()

	stage := &countingStage{}
	s := NewSkill(stage)

	require.NoError(t, s.RestoreFromState([]byte(`{"ready":true,"extra":{"frames":42}}`)))
	assert.True(t, s.Ready())
	assert.Equal(t, 42, stage.Frames)

	item := NewItem(nil, NewImage(1, 1), false)
	s.Process(item)
	assert.True(t, item.Result.IsOk())
	assert.Equal(t, 43, stage.Frames)
}

func TestSkill_RestoreWithoutExtra(t *testing.T) {
	t.Parallel()

	stage := &countingStage{Frames: 5}
	s := NewSkill(stage)

	require.NoError(t, s.RestoreFromState([]byte(`{"ready":true}`)))
	assert.True(t, s.Ready())
	assert.Equal(t, 5, stage.Frames)
}

func TestSkill_RestoreMissingReady(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"absent":     `{"extra":{"frames":1}}`,
		"null":       `{"ready":null}`,
		"not bool":   `{"ready":"yes"}`,
		"null state": `null`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			stage := &countingStage{}
			s := NewSkill(stage)
			require.NoError(t, s.Prepare(nil))

			err := s.RestoreFromState([]byte(raw))
			assert.ErrorIs(t, err, ErrMissingReadyField)
			assert.True(t, s.Ready(), "readiness must not change")
			assert.Zero(t, stage.Frames)
		})
	}
}

func TestSkill_RestoreExtraFailureKeepsReadiness(t *testing.T) {
	t.Parallel()

	stage := &countingStage{restore: errors.New("corrupt")}
	s := NewSkill(stage)

	err := s.RestoreFromState([]byte(`{"ready":true,"extra":{}}`))
	assert.ErrorContains(t, err, "corrupt")
	assert.False(t, s.Ready())
}

func TestSkill_RestoreStateStruct(t *testing.T) {
	t.Parallel()

	s := NewSkill(&badFrameStage{})
	require.NoError(t, s.RestoreState(State{Ready: true}))
	assert.True(t, s.Ready())
}

func TestSkill_RestoreStateKeepsExtraWhenUnset(t *testing.T) {
	t.Parallel()

	stage := &countingStage{Frames: 5}
	s := NewSkill(stage)

	require.NoError(t, s.RestoreState(State{Ready: true}))
	assert.True(t, s.Ready())
	assert.Equal(t, 5, stage.Frames)

	require.NoError(t, s.RestoreFromState([]byte(`{"ready":true,"extra":null}`)))
	assert.Equal(t, 5, stage.Frames)

	require.NoError(t, s.RestoreState(State{Ready: true, Extra: json.RawMessage(`{"frames":9}`)}))
	assert.Equal(t, 9, stage.Frames)
}
