package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is a snapshot of every skill in a named pipeline. Each entry is a
// {"ready": bool, "extra": any} skill state record.
type Checkpoint struct {
	Pipeline    string                     `json:"pipeline"`
	Skills      map[string]json.RawMessage `json:"skills"`
	CreatedAtMs int64                      `json:"created_at_ms"`
}

func New(pipeline string) Checkpoint {
	return Checkpoint{
		Pipeline:    pipeline,
		Skills:      map[string]json.RawMessage{},
		CreatedAtMs: time.Now().UnixMilli(),
	}
}

func (c Checkpoint) Validate() error {
	if c.Pipeline == "" {
		return fmt.Errorf("checkpoint pipeline name cannot be empty")
	}
	for name, raw := range c.Skills {
		if name == "" {
			return fmt.Errorf("checkpoint %s: empty skill name", c.Pipeline)
		}
		if !json.Valid(raw) {
			return fmt.Errorf("checkpoint %s: skill %s: state is not valid JSON", c.Pipeline, name)
		}
	}
	return nil
}

// Store persists checkpoints by pipeline name.
type Store interface {
	Save(ctx context.Context, c Checkpoint) error
	// Load returns an error matching ErrNotFound when nothing was saved.
	Load(ctx context.Context, pipeline string) (Checkpoint, error)
	Close() error
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// MemoryStore keeps checkpoints in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Checkpoint{}}
}

func (m *MemoryStore) Save(_ context.Context, c Checkpoint) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c.Pipeline] = clone(c)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, pipeline string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.data[pipeline]
	if !ok {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, pipeline)
	}
	return clone(c), nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func clone(c Checkpoint) Checkpoint {
	out := Checkpoint{Pipeline: c.Pipeline, CreatedAtMs: c.CreatedAtMs, Skills: make(map[string]json.RawMessage, len(c.Skills))}
	for k, v := range c.Skills {
		out.Skills[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
