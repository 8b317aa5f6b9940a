// Package skills holds the built-in stages that can be named from
// pipeline.yml.
package skills

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ib-77/skillpipe/internal/config"
	"github.com/ib-77/skillpipe/pkg/infer"
)

const (
	KindGrayscale      = config.KindGrayscale
	KindBrightnessGate = config.KindBrightnessGate
	KindFrameCounter   = config.KindFrameCounter
)

var ErrBadFrame = errors.New("bad frame")

// Build turns a configured skill into a not-ready infer.Skill.
func Build(spec config.SkillSpec, logger *slog.Logger) (*infer.Skill, error) {
	var stage infer.Stage
	switch spec.Kind {
	case KindGrayscale:
		stage = infer.StageFunc(grayscale)
	case KindBrightnessGate:
		minMean, err := spec.Float("min_mean", 8)
		if err != nil {
			return nil, err
		}
		stage = &BrightnessGate{MinMean: minMean}
	case KindFrameCounter:
		stage = &FrameCounter{}
	default:
		return nil, fmt.Errorf("skill '%s': unknown kind %q", spec.Name, spec.Kind)
	}
	return infer.NewSkill(stage, infer.WithName(spec.Name), infer.WithLogger(logger)), nil
}

// luma uses the integer BT.601 weights.
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

func grayscale(item *infer.Item) error {
	pix := item.Image.Pix
	for i := 0; i+2 < len(pix); i += infer.BytesPerPixel {
		y := luma(pix[i], pix[i+1], pix[i+2])
		pix[i], pix[i+1], pix[i+2] = y, y, y
	}
	return nil
}

// BrightnessGate rejects frames whose mean luma is below MinMean.
type BrightnessGate struct {
	MinMean float64
}

func (g *BrightnessGate) Warmup(hint *infer.Item) error {
	if g.MinMean < 0 || g.MinMean > 255 {
		return fmt.Errorf("min_mean must be within [0, 255], got %v", g.MinMean)
	}
	return nil
}

func (g *BrightnessGate) Transform(item *infer.Item) error {
	pix := item.Image.Pix
	if len(pix) == 0 {
		return fmt.Errorf("%w: empty image", ErrBadFrame)
	}
	var sum uint64
	for i := 0; i+2 < len(pix); i += infer.BytesPerPixel {
		sum += uint64(luma(pix[i], pix[i+1], pix[i+2]))
	}
	mean := float64(sum) / float64(len(pix)/infer.BytesPerPixel)
	if mean < g.MinMean {
		return ErrBadFrame
	}
	return nil
}

// FrameCounter counts processed frames and keeps the count across restarts.
type FrameCounter struct {
	mu     sync.Mutex
	frames uint64
}

func (c *FrameCounter) Warmup(*infer.Item) error { return nil }

func (c *FrameCounter) Transform(*infer.Item) error {
	c.mu.Lock()
	c.frames++
	c.mu.Unlock()
	return nil
}

func (c *FrameCounter) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

type counterState struct {
	Frames uint64 `json:"frames"`
}

func (c *FrameCounter) ExtraState() (any, error) {
	return counterState{Frames: c.Frames()}, nil
}

// RestoreExtraState replaces the count; a null extra keeps it.
func (c *FrameCounter) RestoreExtraState(extra json.RawMessage) error {
	if string(bytes.TrimSpace(extra)) == "null" {
		return nil
	}
	var st counterState
	if err := json.Unmarshal(extra, &st); err != nil {
		return fmt.Errorf("frame counter: %w", err)
	}
	c.mu.Lock()
	c.frames = st.Frames
	c.mu.Unlock()
	return nil
}
