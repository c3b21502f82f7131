// Package worker binds external worker processes into the ingestion core.
//
// A Channel multiplexes concurrent calls over one framed duplex stream:
// every frame is a 4-byte big-endian length prefix plus a JSON envelope
// carrying a correlation ID and an action from a closed set. One read loop
// per channel dispatches responses to waiting callers through a pending
// table; submits block only the calling goroutine. Correlation IDs are
// never reused for a channel's lifetime, and a timed-out ID stays
// tombstoned until its late response is observed and discarded, so a reply
// can never be misattributed to a later call.
//
// A Pool holds a fixed number of channels of one worker kind with
// checkout/checkin discipline. Crashed channels are replaced asynchronously
// subject to a bounded respawn count within a sliding window; past the
// ceiling the pool is exhausted until manually Reset. Backpressure is
// structural: a bounded pool blocks or times out new checkouts rather than
// spawning unbounded processes.
package worker
