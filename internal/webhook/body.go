package webhook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrPayloadTooLarge is returned once a body grows past the ceiling.
var ErrPayloadTooLarge = errors.New("payload too large")

const readChunkSize = 32 * 1024

// readBody collects r into memory, never holding more than limit bytes.
//
// A declared length above limit is rejected before anything is read. For
// bodies of unknown or understated length, reading stops on the chunk that
// pushes the running count past limit; the rest of the stream is left
// unread. On success the bytes are returned exactly as received.
func readBody(r io.Reader, declared, limit int64) ([]byte, error) {
	if declared > limit {
		return nil, ErrPayloadTooLarge
	}

	// Memory tracks bytes received, not the declared length.
	var buf bytes.Buffer
	if declared > 0 {
		buf.Grow(int(min(declared, readChunkSize)))
	}

	chunk := make([]byte, readChunkSize)
	var total int64
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > limit {
				return nil, ErrPayloadTooLarge
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
}
