package rdf

import (
	"fmt"
	"strings"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/vocabulary"
)

// EscapeLiteral escapes a string for embedding in an N-Triples literal:
// backslash first, then quote and control characters.
func EscapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeLiteral reverses EscapeLiteral
func unescapeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				b.WriteRune(r)
			}
			continue
		}
		switch r {
		case '\\':
			b.WriteRune('\\')
		case '"':
			b.WriteRune('"')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		default:
			// Unknown escape, keep verbatim
			b.WriteRune('\\')
			b.WriteRune(r)
		}
		escaped = false
	}
	return b.String()
}

// renderObject renders a triple object per the serialization contract:
// well-formed quoted literals pass through unchanged, IRIs get expanded and
// bracket-wrapped, everything else becomes an escaped quoted literal.
func renderObject(object string) string {
	if isQuotedLiteral(object) {
		return object
	}
	if vocabulary.IsName(object) {
		return "<" + vocabulary.Expand(object) + ">"
	}
	return `"` + EscapeLiteral(object) + `"`
}

// isQuotedLiteral reports whether s is a complete quoted literal: an
// opening quote, a correctly escaped interior, and a closing quote with
// nothing after it. Content that merely starts with a quote fails the
// check and gets escaped like any other literal.
func isQuotedLiteral(s string) bool {
	if len(s) < 2 || s[0] != '"' {
		return false
	}
	escaped := false
	for i := 1; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			return i == len(s)-1
		case '\n', '\r':
			return false
		}
	}
	return false
}

// ToNTriples serializes triples to N-Triples text, one statement per line,
// preserving input order. Subjects and predicates are always angle-bracket
// IRIs; short names expand against the vocabulary namespace.
func ToNTriples(triples []Triple) string {
	var b strings.Builder
	for _, t := range triples {
		b.WriteString("<")
		b.WriteString(vocabulary.Expand(t.Subject))
		b.WriteString("> <")
		b.WriteString(vocabulary.Expand(t.Predicate))
		b.WriteString("> ")
		b.WriteString(renderObject(t.Object))
		b.WriteString(" .\n")
	}
	return b.String()
}

// ParseNTriples parses N-Triples text back into triples. IRIs come back in
// absolute form and literals come back unescaped, so a serialize/parse
// round trip recovers the original statement set. Blank lines are skipped;
// anything else malformed is an error.
func ParseNTriples(text string) ([]Triple, error) {
	var triples []Triple
	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseLine(line)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("line %d: %w", lineNo+1, err),
				"NTriples", "ParseNTriples", "statement parse")
		}
		triples = append(triples, t)
	}
	return triples, nil
}

// parseLine parses one "<s> <p> o ." statement
func parseLine(line string) (Triple, error) {
	if !strings.HasSuffix(line, ".") {
		return Triple{}, fmt.Errorf("statement missing terminating dot")
	}
	rest := strings.TrimSpace(strings.TrimSuffix(line, "."))

	subject, rest, err := parseIRIRef(rest)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	predicate, rest, err := parseIRIRef(strings.TrimSpace(rest))
	if err != nil {
		return Triple{}, fmt.Errorf("predicate: %w", err)
	}

	object, err := parseObject(strings.TrimSpace(rest))
	if err != nil {
		return Triple{}, fmt.Errorf("object: %w", err)
	}

	return Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}

// parseIRIRef consumes one <...> term and returns it with the remainder
func parseIRIRef(s string) (string, string, error) {
	if !strings.HasPrefix(s, "<") {
		return "", "", fmt.Errorf("expected '<', got %q", firstRune(s))
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return "", "", fmt.Errorf("unterminated IRI reference")
	}
	return s[1:end], s[end+1:], nil
}

// parseObject consumes the object term: an IRI reference or a quoted literal
func parseObject(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing object term")
	}
	if strings.HasPrefix(s, "<") {
		iri, rest, err := parseIRIRef(s)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(rest) != "" {
			return "", fmt.Errorf("trailing content after IRI object")
		}
		return iri, nil
	}
	if !strings.HasPrefix(s, `"`) {
		return "", fmt.Errorf("object must be an IRI reference or quoted literal")
	}

	// Find the closing unescaped quote.
	end := -1
	escaped := false
	for i := 1; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			escaped = true
		case '"':
			end = i
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return "", fmt.Errorf("unterminated literal")
	}
	if strings.TrimSpace(s[end+1:]) != "" {
		// Datatype/language annotations are not produced by this core.
		return "", fmt.Errorf("trailing content after literal object")
	}
	return unescapeLiteral(s[1:end]), nil
}

func firstRune(s string) string {
	if s == "" {
		return ""
	}
	return string(s[0])
}
