package cli

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Fields colorizes the JSON field object of a console log line. Keys are
// dimmed and the request trail (request_id, model, status, bytes) stands
// out so one request can be followed by eye. Anything after the first
// newline, such as a stack trace, is left alone. The caller decides whether
// color is wanted.
func Fields(blob string) string {
	obj, rest, cut := strings.Cut(blob, "\n")
	res := gjson.Parse(obj)
	if !gjson.Valid(obj) || !res.IsObject() {
		return blob
	}

	var b strings.Builder
	b.Grow(len(blob) * 2)
	b.WriteByte('{')
	first := true
	res.ForEach(func(k, v gjson.Result) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(paint(k.Raw, DimCode))
		b.WriteByte(':')
		b.WriteString(fieldValue(k.Str, v))
		return true
	})
	b.WriteByte('}')
	if cut {
		b.WriteByte('\n')
		b.WriteString(rest)
	}
	return b.String()
}

func fieldValue(key string, v gjson.Result) string {
	switch key {
	case "request_id":
		return paint(v.Raw, Cyan)
	case "model":
		return paint(v.Raw, Bold+Cyan)
	case "status":
		if v.Type == gjson.Number {
			return paint(v.Raw, StatusColor(int(v.Int())))
		}
	case "bytes":
		return paint(v.Raw, Purple)
	case "error":
		return paint(v.Raw, Red)
	}

	switch v.Type {
	case gjson.String:
		return paint(v.Raw, Green)
	case gjson.Null:
		return paint(v.Raw, DimCode)
	}
	return v.Raw
}

// StatusColor picks a color for an HTTP status by class.
func StatusColor(code int) string {
	switch {
	case code >= 500:
		return Red
	case code >= 400:
		return Yellow
	case code >= 300:
		return Blue
	default:
		return Green
	}
}

func paint(text, code string) string {
	return code + text + ResetCode
}
