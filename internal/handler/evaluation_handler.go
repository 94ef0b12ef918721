package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

// EvaluationHandler serves the score sheet, review workflow, and exports.
type EvaluationHandler struct {
	service *service.EvaluationService
	export  *service.ExportService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService, export *service.ExportService) *EvaluationHandler {
	return &EvaluationHandler{service: svc, export: export}
}

type updateStatusRequest struct {
	Status models.ReviewStatus `json:"status" binding:"required"`
}

// Sheet godoc
// @Summary Per-student evaluation scores across all assignments
// @Tags Evaluations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) Sheet(c *gin.Context) {
	sheet, err := h.service.Sheet(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// UpdateStatus godoc
// @Summary Change the review status of a submission
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body updateStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evaluations/{userId}/{assignmentId} [patch]
func (h *EvaluationHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	submission, err := h.service.UpdateStatus(c.Request.Context(), c.Param("userId"), c.Param("assignmentId"), req.Status, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submission, nil)
}

// Export godoc
// @Summary Download the evaluation sheet as CSV or PDF
// @Tags Evaluations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /evaluations/export [get]
func (h *EvaluationHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	result, err := h.export.Evaluation(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	// RFC 5987 encoding keeps the Korean filename intact across browsers.
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(result.Filename)))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
