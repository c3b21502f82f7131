package worker

import (
	"encoding/json"
	"io"
	"sync"
)

// Handler executes one call and produces its response. Implementations
// must be safe for concurrent use: Serve dispatches each call on its own
// goroutine so a slow action never blocks the stream.
type Handler func(Call) Response

// Serve runs the worker side of the framed protocol over a duplex stream:
// read a frame, decode the call, dispatch, frame the response back. A clean
// EOF on the read side is the shutdown signal and returns nil; any other
// wire error is returned.
func Serve(r io.Reader, w io.Writer, maxFrameSize int, handle Handler) error {
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		payload, err := ReadFrame(r, maxFrameSize)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var call Call
		if err := json.Unmarshal(payload, &call); err != nil {
			// Frame boundaries are intact; skip the undecodable call.
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := handle(call)
			resp.ID = call.ID

			raw, err := json.Marshal(resp)
			if err != nil {
				raw, _ = json.Marshal(Response{ID: call.ID, Error: err.Error()})
			}

			writeMu.Lock()
			defer writeMu.Unlock()
			_ = WriteFrame(w, raw, maxFrameSize)
		}()
	}
}
