package infer

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Item is the unit of work travelling through a chain of skills.
//
// A scheduler owning an item must let at most one skill mutate it at a time.
type Item struct {
	id     uuid.UUID
	Image  Image
	Result *Outcome // nil until some skill has processed the item
	Debug  bool
}

// NewItem wraps img in a new item. A nil id draws a fresh random one.
func NewItem(id *uuid.UUID, img Image, debug bool) *Item {
	it := &Item{Image: img, Debug: debug}
	if id != nil {
		it.id = *id
	} else {
		it.id = uuid.New()
	}
	return it
}

// ID never changes after construction.
func (it *Item) ID() uuid.UUID {
	return it.id
}

// SetOutcome overwrites the current result; the last writer wins.
func (it *Item) SetOutcome(o Outcome) {
	it.Result = &o
}

func (it *Item) Equal(o *Item) bool {
	if it == nil || o == nil {
		return it == o
	}
	if it.id != o.id || it.Debug != o.Debug || !it.Image.Equal(o.Image) {
		return false
	}
	if it.Result == nil || o.Result == nil {
		return it.Result == o.Result
	}
	return *it.Result == *o.Result
}

func (it *Item) String() string {
	result := "none"
	if it.Result != nil {
		result = it.Result.String()
	}
	return fmt.Sprintf("Item{id: %s, image: %dx%d, result: %s, debug: %t}",
		FormatID(it.id), it.Image.Width, it.Image.Height, result, it.Debug)
}

// FormatID renders an id as 32 lowercase hex characters without separators.
func FormatID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// ParseID accepts the 32-hex form as well as the hyphenated one. The urn and
// braced forms uuid.Parse also knows are rejected.
func ParseID(s string) (uuid.UUID, error) {
	if len(s) != 32 && len(s) != 36 {
		return uuid.Nil, invalid("id", ErrInvalidIdentifier,
			fmt.Errorf("want 32 hex characters, got %d characters", len(s)))
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, invalid("id", ErrInvalidIdentifier, err)
	}
	return id, nil
}

type itemRecord struct {
	ID     string          `json:"id"`
	Image  imageRecord     `json:"image"`
	Result json.RawMessage `json:"result"`
	Debug  bool            `json:"debug"`
}

type imageRecord struct {
	Width  uint32     `json:"width"`
	Height uint32     `json:"height"`
	Data   pixelBytes `json:"data"`
}

// Decoding goes field by field so a wrong type is reported against the field
// it appears in.
type itemWire struct {
	ID     json.RawMessage `json:"id"`
	Image  json.RawMessage `json:"image"`
	Result json.RawMessage `json:"result"`
	Debug  json.RawMessage `json:"debug"`
}

type imageWire struct {
	Width  json.RawMessage `json:"width"`
	Height json.RawMessage `json:"height"`
	Data   json.RawMessage `json:"data"`
}

func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, jsonNull)
}

// pixelBytes is encoded as a flat array of numbers rather than base64.
type pixelBytes []byte

func (p pixelBytes) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(p)*4)
	buf = append(buf, '[')
	for i, b := range p {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}
	return append(buf, ']'), nil
}

func (p *pixelBytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw []byte
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*p = raw
		return nil
	}
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*p = out
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	id := FormatID(it.id)
	w, h := it.Image.Width, it.Image.Height
	pix := pixelBytes(it.Image.Pix)
	rec := itemRecord{
		ID:    id,
		Image: imageRecord{Width: w, Height: h, Data: pix},
		Debug: it.Debug,
	}
	if it.Result != nil {
		raw, err := it.Result.MarshalJSON()
		if err != nil {
			return nil, err
		}
		rec.Result = raw
	} else {
		rec.Result = json.RawMessage("null")
	}
	return json.Marshal(rec)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var rec itemWire
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decode item: %w", err)
	}

	if absent(rec.ID) {
		return missing("id")
	}
	var rawID string
	if err := json.Unmarshal(rec.ID, &rawID); err != nil {
		return invalid("id", ErrInvalidIdentifier, err)
	}
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}

	if absent(rec.Image) {
		return missing("image")
	}
	var wire imageWire
	if err := json.Unmarshal(rec.Image, &wire); err != nil {
		return invalid("image", ErrMissingField, err)
	}
	width, err := decodeDimension("image.width", wire.Width)
	if err != nil {
		return err
	}
	height, err := decodeDimension("image.height", wire.Height)
	if err != nil {
		return err
	}
	if absent(wire.Data) {
		return missing("image.data")
	}
	var pix pixelBytes
	if err := pix.UnmarshalJSON(wire.Data); err != nil {
		return invalid("image.data", ErrMissingField, err)
	}
	img, err := ImageFromRaw(width, height, pix)
	if err != nil {
		return err
	}

	var result *Outcome
	if !absent(rec.Result) {
		result = new(Outcome)
		if err := result.UnmarshalJSON(rec.Result); err != nil {
			return err
		}
	}

	var debug bool
	if !absent(rec.Debug) {
		if err := json.Unmarshal(rec.Debug, &debug); err != nil {
			return invalid("debug", ErrMissingField, err)
		}
	}

	*it = Item{id: id, Image: img, Result: result, Debug: debug}
	return nil
}

func decodeDimension(field string, raw json.RawMessage) (uint32, error) {
	if absent(raw) {
		return 0, missing(field)
	}
	var v uint32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, invalid(field, ErrMissingField, err)
	}
	return v, nil
}
