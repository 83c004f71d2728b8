package inference

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter remembers the size of each write and counts flushes.
type recordingWriter struct {
	bytes.Buffer
	writes  []int
	flushes int
	failAt  int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.failAt > 0 && len(w.writes)+1 == w.failAt {
		return 0, errors.New("client went away")
	}
	w.writes = append(w.writes, len(p))
	return w.Buffer.Write(p)
}

func (w *recordingWriter) Flush() { w.flushes++ }

// chunkReader hands out one chunk per Read call, like an event stream.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestPipe_ForwardsEachChunkAndFlushes(t *testing.T) {
	chunks := []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
		"data: [DONE]\n\n",
	}
	dst := &recordingWriter{}

	n, err := Pipe(dst, &chunkReader{chunks: append([]string(nil), chunks...)})
	require.NoError(t, err)

	assert.Equal(t, strings.Join(chunks, ""), dst.String())
	assert.Equal(t, int64(dst.Len()), n)
	assert.Len(t, dst.writes, 3)
	assert.Equal(t, 3, dst.flushes)
}

func TestPipe_BoundedBuffer(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), PipeBufferSize*3+17)
	dst := &recordingWriter{}

	n, err := Pipe(dst, bytes.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, dst.Bytes())
	for _, w := range dst.writes {
		assert.LessOrEqual(t, w, PipeBufferSize)
	}
}

func TestPipe_StopsOnWriteError(t *testing.T) {
	src := &chunkReader{chunks: []string{"a", "b", "c"}}
	dst := &recordingWriter{failAt: 2}

	n, err := Pipe(dst, src)
	require.Error(t, err)
	assert.Equal(t, int64(1), n)
	// the third chunk was never pulled from upstream
	assert.Equal(t, []string{"c"}, src.chunks)
}

func TestPipe_PropagatesReadError(t *testing.T) {
	boom := errors.New("connection reset")
	src := io.MultiReader(strings.NewReader("partial"), &errReader{err: boom})
	dst := &recordingWriter{}

	n, err := Pipe(dst, src)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "partial", dst.String())
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
