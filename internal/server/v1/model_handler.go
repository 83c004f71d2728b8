package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-local/internal/analytics"
	"github.com/nulzo/prism-local/internal/gateway"
	"github.com/nulzo/prism-local/internal/registry"
	"github.com/nulzo/prism-local/pkg/api"
)

type ModelHandler struct {
	service gateway.Service
	auditor *analytics.Auditor
}

func NewModelHandler(service gateway.Service, auditor *analytics.Auditor) *ModelHandler {
	return &ModelHandler{
		service: service,
		auditor: auditor,
	}
}

// ListModels returns every installed model descriptor, read fresh from disk.
func (h *ModelHandler) ListModels(c *gin.Context) {
	models := h.service.ListModels(c.Request.Context())
	if models == nil {
		models = []registry.ModelDescriptor{}
	}

	c.JSON(http.StatusOK, api.ListResponse{
		Object: "list",
		Data:   models,
	})
}

func (h *ModelHandler) GetModel(c *gin.Context) {
	m, err := h.service.GetModel(c.Request.Context(), c.Param("modelId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// DeleteModel removes the model directory from the data folder.
func (h *ModelHandler) DeleteModel(c *gin.Context) {
	id := c.Param("modelId")

	res, err := h.service.DeleteModel(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if h.auditor != nil {
		h.auditor.Record(c.Request.Context(), analytics.ActionModelDeleted, id, c.ClientIP(), res)
	}

	c.JSON(http.StatusOK, res)
}
