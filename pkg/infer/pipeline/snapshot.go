package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ib-77/skillpipe/pkg/infer/checkpoint"
)

// Snapshot captures the state envelope of every skill.
func (p *Pipeline) Snapshot() (checkpoint.Checkpoint, error) {
	cp := checkpoint.New(p.name)
	for _, s := range p.skills {
		st, err := s.State()
		if err != nil {
			return checkpoint.Checkpoint{}, fmt.Errorf("pipeline %s: %w", p.name, err)
		}
		raw, err := json.Marshal(st)
		if err != nil {
			return checkpoint.Checkpoint{}, fmt.Errorf("pipeline %s: encode %s state: %w", p.name, s.Name(), err)
		}
		cp.Skills[s.Name()] = raw
	}
	return cp, nil
}

// Restore installs a checkpoint. Every named skill must exist in the
// pipeline; skills absent from the checkpoint keep their current state. The
// first failing skill stops the restore.
func (p *Pipeline) Restore(cp checkpoint.Checkpoint) error {
	names := make([]string, 0, len(cp.Skills))
	for name := range cp.Skills {
		if _, ok := p.byName[name]; !ok {
			return fmt.Errorf("pipeline %s: checkpoint names unknown skill %q", p.name, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := p.byName[name].RestoreFromState(cp.Skills[name]); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.name, err)
		}
	}
	p.logger.Info("checkpoint restored", "skills", len(names), "ready", p.Ready())
	return nil
}
