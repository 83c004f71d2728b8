package api

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrBodyNotObject is returned by ParseChatCompletion for bodies that are not
// a JSON object.
var ErrBodyNotObject = errors.New("request body must be a valid JSON object")

// ChatCompletionRequest is a chat completion body as the proxy sees it. The
// body is forwarded as-is, so only the fields the proxy itself reads are
// pulled out and nothing else is validated.
type ChatCompletionRequest struct {
	// the installed model id, empty when missing or not a string
	Model string

	// informational, used for the request log only
	Stream bool

	// Raw holds the request body exactly as received.
	Raw json.RawMessage
}

// ParseChatCompletion reads model and stream out of a raw body. Any JSON
// object is accepted, whatever the shape of its fields.
func ParseChatCompletion(raw []byte) (*ChatCompletionRequest, error) {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, ErrBodyNotObject
	}

	req := &ChatCompletionRequest{Raw: raw}
	if m := gjson.GetBytes(raw, "model"); m.Type == gjson.String {
		req.Model = m.Str
	}
	if s := gjson.GetBytes(raw, "stream"); s.Type == gjson.True {
		req.Stream = true
	}
	return req, nil
}

// UsageQuery is the query string of the usage overview.
type UsageQuery struct {
	Days int `form:"days" json:"days" binding:"omitempty,gte=0"`
}

// RecentQuery is the query string of the recent requests listing.
type RecentQuery struct {
	Model string `form:"model" json:"model"`
	Limit int    `form:"limit" json:"limit" binding:"omitempty,gte=0"`
}
