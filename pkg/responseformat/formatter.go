// Package responseformat encodes prediction output as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnsupportedFormat is returned for an output format other than json or msgpack
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgPack Format = "msgpack"
)

// ParseFormat maps a format name onto a Format. An empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "messagepack":
		return FormatMsgPack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Envelope wraps one command's output with a run identifier
type Envelope struct {
	RunID       uuid.UUID `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Data        any       `json:"data"`
}

// NewEnvelope wraps data under a fresh random run id
func NewEnvelope(data any, generatedAt time.Time) Envelope {
	return Envelope{RunID: uuid.New(), GeneratedAt: generatedAt, Data: data}
}

// Formatter writes values in a chosen Format
type Formatter struct {
	indent bool
}

// NewFormatter creates a formatter; indent pretty-prints JSON output
func NewFormatter(indent bool) *Formatter {
	return &Formatter{indent: indent}
}

// Write encodes data to w in the given format
func (f *Formatter) Write(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		return f.writeJSON(w, data)
	case FormatMsgPack:
		return f.writeMsgPack(w, data)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// writeMsgPack goes through JSON first so custom MarshalJSON methods and
// time formatting carry over unchanged
func (f *Formatter) writeMsgPack(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding intermediate JSON: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decoding intermediate JSON: %w", err)
	}

	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json")
	return encoder.Encode(generic)
}
