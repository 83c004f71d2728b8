package v1

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nulzo/prism-local/internal/analytics"
	"github.com/nulzo/prism-local/internal/gateway"
	"github.com/nulzo/prism-local/internal/inference"
	"github.com/nulzo/prism-local/internal/server/middleware"
	"github.com/nulzo/prism-local/internal/store/model"
	"github.com/nulzo/prism-local/pkg/api"
	"go.uber.org/zap"
)

type ChatHandler struct {
	service  gateway.Service
	ingestor analytics.Ingestor
	logger   *zap.Logger
}

func NewChatHandler(service gateway.Service, ingestor analytics.Ingestor, logger *zap.Logger) *ChatHandler {
	if ingestor == nil {
		ingestor = analytics.NewNopIngestor()
	}
	return &ChatHandler{
		service:  service,
		ingestor: ingestor,
		logger:   logger,
	}
}

// CreateCompletion proxies a chat completion to the local inference runtime.
// The runtime response is streamed back as it arrives.
func (h *ChatHandler) CreateCompletion(c *gin.Context) {
	start := time.Now()

	raw, err := c.GetRawData()
	if err != nil {
		_ = c.Error(api.BadRequestError("Failed to read request body"))
		return
	}

	// the runtime judges the payload, only the envelope is checked here
	req, err := api.ParseChatCompletion(raw)
	if err != nil {
		_ = c.Error(api.ValidationError(map[string]string{"body": err.Error()}))
		return
	}
	c.Set(middleware.ContextKeyModel, req.Model)

	// the body's model decides; the route param is informational
	routeModel := c.Param("modelId")
	if routeModel != "" && routeModel != req.Model {
		h.logger.Debug("route model differs from body model",
			zap.String("route_model", routeModel),
			zap.String("model", req.Model),
		)
	}

	entry := &model.RequestLog{
		ID:           middleware.RequestID(c),
		ModelID:      req.Model,
		RouteModelID: routeModel,
		IsStreamed:   req.Stream,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		CreatedAt:    start.UTC(),
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	completion, err := h.service.ChatCompletion(c.Request.Context(), req)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			// unknown models never reach the runtime, nothing to record
			_ = c.Error(err)
			return
		}
		entry.StatusCode = http.StatusBadGateway
		if apiErr != nil {
			entry.StatusCode = apiErr.Status
		}
		entry.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		entry.LatencyMS = time.Since(start).Milliseconds()
		h.ingestor.Log(entry)
		_ = c.Error(err)
		return
	}

	resp := completion.Response
	defer func() {
		_ = resp.Body.Close()
	}()

	entry.Engine = completion.Model.Engine
	entry.TTFBMS = sql.NullInt64{Int64: time.Since(start).Milliseconds(), Valid: true}

	status := http.StatusOK
	if !resp.OK() {
		status = resp.StatusCode
	}
	entry.StatusCode = status

	header := c.Writer.Header()
	header.Set("Content-Type", "application/json")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("Access-Control-Allow-Origin", "*")
	c.Writer.WriteHeader(status)
	c.Writer.WriteHeaderNow()

	n, err := inference.Pipe(c.Writer, resp.Body)
	entry.BytesRelayed = n
	entry.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		// headers are gone, all we can do is stop
		h.logger.Warn("stream interrupted",
			zap.String("model", req.Model),
			zap.Int64("bytes", n),
			zap.Error(err),
		)
		entry.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		c.Abort()
	}

	h.ingestor.Log(entry)
}
