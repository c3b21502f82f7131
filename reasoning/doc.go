// Package reasoning implements the pure inference logic of the ingestion
// core: artifact lifecycle validation, fuzzy membership normalization,
// cross-project contamination detection, and fragment reference closure.
//
// Everything here is deterministic logic over the canonical message model
// with no external dependencies. In the running system these functions are
// invoked inside the worker process behind a framed channel; the functions
// themselves neither know nor care.
//
// Both graph closures (contamination spread, fragment linking) follow the
// same shape: build an explicit edge index up front, then expand a frontier
// to a fixed point. Cycles terminate naturally because membership in the
// visited set is checked before a node joins the frontier.
package reasoning
