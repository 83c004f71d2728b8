package model

import (
	"database/sql"
	"time"
)

// RequestLog captures one proxied chat completion.
type RequestLog struct {
	ID           string         `db:"id" json:"id"`
	ModelID      string         `db:"model_id" json:"model_id"`
	Engine       string         `db:"engine" json:"engine"`
	RouteModelID string         `db:"route_model_id" json:"route_model_id,omitempty"`
	StatusCode   int            `db:"status_code" json:"status_code"`
	LatencyMS    int64          `db:"latency_ms" json:"latency_ms"`
	TTFBMS       sql.NullInt64  `db:"ttfb_ms" json:"ttfb_ms,omitempty"`
	BytesRelayed int64          `db:"bytes_relayed" json:"bytes_relayed"`
	IsStreamed   bool           `db:"is_streamed" json:"is_streamed"`
	ErrorMessage sql.NullString `db:"error_message" json:"error_message,omitempty"`
	IPAddress    string         `db:"ip_address" json:"ip_address"`
	UserAgent    string         `db:"user_agent" json:"user_agent"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// AuditEvent records a change made to the data directory.
type AuditEvent struct {
	ID             string    `db:"id" json:"id"`
	TargetResource string    `db:"target_resource" json:"target_resource"`
	Action         string    `db:"action" json:"action"`
	DetailsJSON    string    `db:"details_json" json:"details_json"`
	IPAddress      string    `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// DailyStats represents aggregated usage data for a specific day.
type DailyStats struct {
	Date          string  `db:"date" json:"date"`
	TotalRequests int     `db:"total_requests" json:"total_requests"`
	FailedCount   int     `db:"failed_requests" json:"failed_requests"`
	TotalBytes    int64   `db:"total_bytes" json:"total_bytes"`
	AvgLatency    float64 `db:"avg_latency" json:"avg_latency"`
}
