package infer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Stateful stages persist data beyond readiness. Stages that do not implement
// it snapshot a null extra and ignore restored extras. RestoreExtraState is
// only called with a non-null extra.
type Stateful interface {
	ExtraState() (any, error)
	RestoreExtraState(extra json.RawMessage) error
}

// State is the snapshot envelope shared by every skill.
type State struct {
	Ready bool            `json:"ready"`
	Extra json.RawMessage `json:"extra"`
}

var jsonNull = json.RawMessage("null")

func (s *Skill) State() (State, error) {
	st := State{Ready: s.Ready(), Extra: jsonNull}
	stateful, ok := s.stage.(Stateful)
	if !ok {
		return st, nil
	}

	extra, err := stateful.ExtraState()
	if err != nil {
		return State{}, fmt.Errorf("snapshot %s: %w", s.name, err)
	}
	switch v := extra.(type) {
	case nil:
	case json.RawMessage:
		if len(v) > 0 {
			st.Extra = v
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return State{}, fmt.Errorf("snapshot %s: encode extra: %w", s.name, err)
		}
		st.Extra = raw
	}
	return st, nil
}

// RestoreFromState installs a snapshot produced by State, bypassing Prepare.
//
// The record must carry a boolean "ready"; anything else is rejected with
// ErrMissingReadyField and leaves the skill untouched. A non-null "extra" is
// handed to the stage before readiness changes; a missing or null one leaves
// the stage's own state alone.
func (s *Skill) RestoreFromState(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("restore %s: decode state: %w", s.name, err)
	}

	rawReady, ok := fields["ready"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawReady), jsonNull) {
		s.logger.Error("state restore rejected", "reason", "no ready field")
		return fmt.Errorf("restore %s: %w", s.name, ErrMissingReadyField)
	}
	var ready bool
	if err := json.Unmarshal(rawReady, &ready); err != nil {
		s.logger.Error("state restore rejected", "reason", "ready is not a boolean")
		return fmt.Errorf("restore %s: %w: %w", s.name, ErrMissingReadyField, err)
	}

	if extra := fields["extra"]; !absent(extra) {
		if stateful, ok := s.stage.(Stateful); ok {
			if err := stateful.RestoreExtraState(extra); err != nil {
				return fmt.Errorf("restore %s: extra state: %w", s.name, err)
			}
		}
	}

	s.ready.Store(ready)
	s.logger.Debug("state restored", "ready", ready)
	return nil
}

// RestoreState is RestoreFromState for an in-memory snapshot. An unset Extra
// means there is no extra state to restore.
func (s *Skill) RestoreState(st State) error {
	fields := map[string]any{"ready": st.Ready}
	if len(st.Extra) > 0 {
		fields["extra"] = st.Extra
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("restore %s: encode state: %w", s.name, err)
	}
	return s.RestoreFromState(raw)
}
