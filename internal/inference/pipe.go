package inference

import (
	"errors"
	"io"
	"net/http"
)

// PipeBufferSize bounds how much of the upstream body is held in memory at
// once.
const PipeBufferSize = 32 * 1024

// Pipe copies src to dst one bounded chunk at a time, flushing dst after
// every write when it supports http.Flusher. A read only happens after the
// previous chunk was accepted by dst, so a slow caller slows the upstream
// read too.
func Pipe(dst io.Writer, src io.Reader) (int64, error) {
	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, PipeBufferSize)

	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, rerr
		}
	}
}
