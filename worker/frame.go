package worker

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hyperpolymath/anamnesis/errors"
)

// frameHeaderSize is the fixed length prefix: 4 bytes, big endian.
const frameHeaderSize = 4

// WriteFrame writes one length-prefixed frame to w. The payload must not
// exceed maxSize; both sides of a channel enforce the same ceiling so an
// oversize request fails locally instead of killing the peer's read loop.
func WriteFrame(w io.Writer, payload []byte, maxSize int) error {
	if len(payload) > maxSize {
		return errors.WrapFatal(
			fmt.Errorf("%w: %d bytes, max %d", errors.ErrFrameTooLarge, len(payload), maxSize),
			"Frame", "WriteFrame", "payload size check")
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return errors.WrapFatal(err, "Frame", "WriteFrame", "header write")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.WrapFatal(err, "Frame", "WriteFrame", "payload write")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r. A clean io.EOF at a
// frame boundary is returned as io.EOF so callers can distinguish orderly
// stream end from corruption; EOF inside a frame is ErrFrameTruncated and a
// declared length above maxSize is ErrFrameTooLarge. Both are fatal to the
// channel that observes them.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: stream ended mid-header", errors.ErrFrameTruncated),
			"Frame", "ReadFrame", "header read")
	}

	// Compare in int64 so declared lengths past 2^31 cannot truncate to a
	// negative int on 32-bit platforms and slip past the ceiling.
	length := binary.BigEndian.Uint32(header[:])
	if int64(length) > int64(maxSize) {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: declared %d bytes, max %d", errors.ErrFrameTooLarge, length, maxSize),
			"Frame", "ReadFrame", "length check")
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: declared %d bytes, stream ended early", errors.ErrFrameTruncated, length),
			"Frame", "ReadFrame", "payload read")
	}
	return payload, nil
}
