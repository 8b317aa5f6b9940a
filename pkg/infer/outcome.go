package infer

import (
	"encoding/json"
	"fmt"
)

// Outcome is what a skill's Process step leaves on an item: success, or a
// failure carrying a short message.
type Outcome struct {
	failed  bool
	message string
}

func Succeeded() Outcome {
	return Outcome{}
}

func Failed(message string) Outcome {
	return Outcome{failed: true, message: message}
}

func (o Outcome) IsOk() bool {
	return !o.failed
}

func (o Outcome) IsErr() bool {
	return o.failed
}

// Message is the failure text; empty for a success.
func (o Outcome) Message() string {
	return o.message
}

func (o Outcome) String() string {
	if o.failed {
		return fmt.Sprintf("Err(%q)", o.message)
	}
	return "Ok"
}

// MarshalJSON encodes {"Ok": null} or {"Err": "<message>"}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.failed {
		return json.Marshal(map[string]string{"Err": o.message})
	}
	return []byte(`{"Ok":null}`), nil
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var arms map[string]json.RawMessage
	if err := json.Unmarshal(data, &arms); err != nil {
		return invalid("result", ErrMissingField, err)
	}
	if len(arms) != 1 {
		return invalid("result", ErrMissingField, fmt.Errorf("want exactly one of Ok, Err; got %d keys", len(arms)))
	}
	if raw, ok := arms["Ok"]; ok {
		if !absent(raw) {
			return invalid("result.Ok", ErrMissingField, fmt.Errorf("want null, got %s", raw))
		}
		*o = Succeeded()
		return nil
	}
	raw, ok := arms["Err"]
	if !ok {
		return missing("result.Ok|Err")
	}
	if absent(raw) {
		return missing("result.Err")
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return invalid("result.Err", ErrMissingField, err)
	}
	*o = Failed(msg)
	return nil
}
