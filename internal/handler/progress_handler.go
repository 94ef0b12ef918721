package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/classhub-api/internal/service"
	"github.com/classhub/classhub-api/pkg/response"
)

// ProgressHandler exposes the class-wide progress matrix.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler creates a new handler.
func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// Matrix godoc
// @Summary Progress matrix of every student across every assignment
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress [get]
func (h *ProgressHandler) Matrix(c *gin.Context) {
	matrix, err := h.service.Matrix(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if len(matrix.Degraded) > 0 {
		response.JSON(c, http.StatusOK, matrix, nil, map[string]any{"degraded": matrix.Degraded})
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}
