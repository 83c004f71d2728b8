package api

// ListResponse is the {"object":"list","data":[...]} envelope. For models
// Data holds the raw descriptors so passthrough fields reach the caller
// unchanged.
type ListResponse struct {
	Object string `json:"object"`
	Data   any    `json:"data"`
}

// DeleteModelResponse mirrors the OpenAI delete response.
type DeleteModelResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// UsageOverview is the response for GET /v1/analytics/usage.
type UsageOverview struct {
	Object string `json:"object"`
	Days   int    `json:"days"`
	Data   any    `json:"data"`
}
