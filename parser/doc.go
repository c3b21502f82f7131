// Package parser detects and decodes conversation export formats into the
// canonical message model.
//
// Three formats are supported, tried in fixed priority order during
// detection: the Anthropic export (uuid + chat_messages), the OpenAI
// export (mapping graph), and a generic transcript (messages array with an
// optional explicit artifacts section). Each format's structural predicate
// is a JSON Schema over its required top-level fields; the same schema
// doubles as the parse-time shape check, so schema violations surface
// before decoding.
//
// Artifacts come from two sources. The generic format may carry an
// explicit artifact list; every format additionally gets fenced-code-block
// detection over message content. Where a message is covered by an
// explicit artifact, the explicit entry wins and fence detection is
// skipped for that message. Detected artifacts receive deterministic
// synthetic ids from (message id, detection order), so reparsing the same
// export always yields the same ids.
package parser
