package logger

import (
	"strings"

	"github.com/nulzo/prism-local/internal/cli"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var linePool = buffer.NewPool()

// requestEncoder is zap's console encoder with the trailing field object
// colorized, so request_id, model, status and bytes are easy to spot.
type requestEncoder struct {
	zapcore.Encoder
}

func newRequestEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &requestEncoder{Encoder: zapcore.NewConsoleEncoder(cfg)}
}

func (e *requestEncoder) Clone() zapcore.Encoder {
	return &requestEncoder{Encoder: e.Encoder.Clone()}
}

func (e *requestEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := e.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}

	// the console encoder tab-separates the field object from the message
	line := buf.String()
	i := strings.Index(line, "\t{")
	if i == -1 {
		return buf, nil
	}

	out := linePool.Get()
	out.AppendString(line[:i+1])
	out.AppendString(cli.Fields(line[i+1:]))
	buf.Free()
	return out, nil
}
