// Package parser detects and parses conversation export formats into the
// canonical message model.
package parser

import (
	"encoding/json"
	"time"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
)

// Parser turns raw export content into validated conversations. The zero
// value is ready to use; a Parser holds no state between calls.
type Parser struct{}

// NewParser creates a new format parser
func NewParser() *Parser {
	return &Parser{}
}

// Detect identifies the export format of raw content
func (p *Parser) Detect(raw []byte) (Format, error) {
	return Detect(raw)
}

// Parse decodes raw content in the given format into the canonical model.
// When no explicit artifact list is present, artifacts are detected from
// fenced code blocks in message content; where a message has both, the
// explicit list wins and fence detection is skipped for that message.
func (p *Parser) Parse(raw []byte, format Format) (*message.Conversation, error) {
	if len(raw) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyContent, "Parser", "Parse", "content check")
	}
	if err := checkSchema(raw, format); err != nil {
		return nil, err
	}

	switch format {
	case FormatAnthropic:
		return parseAnthropic(raw)
	case FormatOpenAI:
		return parseOpenAI(raw)
	case FormatGeneric:
		return parseGeneric(raw)
	default:
		return nil, errors.WrapInvalid(errors.ErrDetectionFailed, "Parser", "Parse", "format dispatch")
	}
}

// Validate runs every model invariant over a parsed conversation and
// returns the complete violation list.
func (p *Parser) Validate(conv *message.Conversation) []message.ValidationError {
	return conv.Validate()
}

// flexTime accepts the timestamp encodings seen across export formats:
// JSON numbers (Unix seconds, with or without a fractional part, or Unix
// milliseconds) and RFC3339 strings. It normalizes to Unix milliseconds.
type flexTime int64

// UnmarshalJSON implements json.Unmarshaler
func (ft *flexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ft = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		// Heuristic: values past 10^12 are already milliseconds.
		if n > 1e12 {
			*ft = flexTime(n)
		} else {
			*ft = flexTime(n * 1000)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*ft = 0
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*ft = flexTime(parsed.UnixMilli())
	return nil
}
