package parser

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperpolymath/anamnesis/errors"
)

// Format identifies one supported export format.
type Format string

const (
	// FormatAnthropic is the Anthropic conversation export
	// (uuid + chat_messages).
	FormatAnthropic Format = "anthropic"
	// FormatOpenAI is the OpenAI conversation export (mapping graph).
	FormatOpenAI Format = "openai"
	// FormatGeneric is the plain transcript format (messages array,
	// optional explicit artifacts).
	FormatGeneric Format = "generic"
	// FormatUnknown means no structural predicate matched.
	FormatUnknown Format = ""
)

// Structural predicates for each format, expressed as JSON Schemas over the
// required top-level fields. Detection tries them in fixed priority order;
// first match wins.
const (
	anthropicSchemaJSON = `{
		"type": "object",
		"required": ["uuid", "chat_messages"],
		"properties": {
			"uuid":          {"type": "string"},
			"chat_messages": {"type": "array"}
		}
	}`

	openaiSchemaJSON = `{
		"type": "object",
		"required": ["mapping"],
		"properties": {
			"mapping": {"type": "object"}
		}
	}`

	genericSchemaJSON = `{
		"type": "object",
		"required": ["messages"],
		"properties": {
			"messages":  {"type": "array"},
			"artifacts": {"type": "array"}
		}
	}`
)

// formatSchemas holds the compiled schema per format in detection priority
// order. Compiled once at package load; the schema strings are constants,
// so compilation cannot fail at runtime.
var formatSchemas = func() []struct {
	format Format
	schema *gojsonschema.Schema
} {
	compile := func(raw string) *gojsonschema.Schema {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("parser: invalid embedded schema: %v", err))
		}
		return s
	}
	return []struct {
		format Format
		schema *gojsonschema.Schema
	}{
		{FormatAnthropic, compile(anthropicSchemaJSON)},
		{FormatOpenAI, compile(openaiSchemaJSON)},
		{FormatGeneric, compile(genericSchemaJSON)},
	}
}()

// Detect tries each known format's structural predicate in fixed priority
// order (anthropic, openai, generic) and returns the first match. Raw
// content that is not JSON, or JSON matching no predicate, fails detection.
func Detect(raw []byte) (Format, error) {
	if len(raw) == 0 {
		return FormatUnknown, errors.WrapInvalid(
			errors.ErrEmptyContent, "Parser", "Detect", "content check")
	}

	doc := gojsonschema.NewBytesLoader(raw)
	for _, fs := range formatSchemas {
		result, err := fs.schema.Validate(doc)
		if err != nil {
			// Not parseable as JSON at all; no format will match.
			return FormatUnknown, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrDetectionFailed, err),
				"Parser", "Detect", "document load")
		}
		if result.Valid() {
			return fs.format, nil
		}
	}

	return FormatUnknown, errors.WrapInvalid(
		errors.ErrDetectionFailed, "Parser", "Detect", "format predicate match")
}

// checkSchema validates raw content against the named format's schema and
// reports every schema violation in one error.
func checkSchema(raw []byte, format Format) error {
	for _, fs := range formatSchemas {
		if fs.format != format {
			continue
		}
		result, err := fs.schema.Validate(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrSchemaViolation, err),
				"Parser", "checkSchema", "document load")
		}
		if !result.Valid() {
			details := ""
			for _, desc := range result.Errors() {
				if details != "" {
					details += "; "
				}
				details += desc.String()
			}
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrSchemaViolation, details),
				"Parser", "checkSchema", "schema validation")
		}
		return nil
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: unsupported format %q", errors.ErrSchemaViolation, format),
		"Parser", "checkSchema", "format lookup")
}
