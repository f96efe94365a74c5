package replication

import (
	"io"

	"github.com/yusa-imit/zoltraak/internal/resp"
)

// countingReader wraps an io.Reader and tracks total bytes read, so
// the replica-side streaming loop can advance its offset by each
// command's exact on-the-wire length (spec.md §4.7 step 8).
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// StreamSession decodes a primary's post-FULLRESYNC command stream
// and reports each command's argv plus its exact encoded byte length,
// so the caller can apply it and advance the replica's offset.
type StreamSession struct {
	cr  *countingReader
	dec *resp.Decoder
}

// NewStreamSession wraps handshakeDec, the decoder Dial used for the
// handshake exchange, for streaming-mode command decoding. Reusing it
// (rather than building a fresh decoder around the raw connection)
// preserves any bytes it has already buffered past the snapshot body.
func NewStreamSession(handshakeDec *resp.Decoder) *StreamSession {
	cr := &countingReader{r: handshakeDec}
	return &StreamSession{cr: cr, dec: resp.NewDecoder(cr)}
}

// Next decodes one streamed command and returns it along with the
// number of bytes it occupied on the wire.
func (s *StreamSession) Next() (argv []string, wireLen int64, err error) {
	before := s.cr.n
	argv, err = resp.ReadCommand(s.dec)
	if err != nil {
		return nil, 0, err
	}
	return argv, s.cr.n - before, nil
}
