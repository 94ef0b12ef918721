package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

// ConsultationHandler manages mentoring session records.
type ConsultationHandler struct {
	service *service.ConsultationService
}

// NewConsultationHandler creates a new handler.
func NewConsultationHandler(svc *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: svc}
}

// Overview godoc
// @Summary Per-student consultation counts and latest session dates
// @Tags Consultations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /consultations [get]
func (h *ConsultationHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// ListByStudent godoc
// @Summary Consultation history of one student
// @Tags Consultations
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /consultations/students/{studentId} [get]
func (h *ConsultationHandler) ListByStudent(c *gin.Context) {
	logs, err := h.service.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Create godoc
// @Summary Record a consultation session
// @Tags Consultations
// @Accept json
// @Produce json
// @Param payload body service.ConsultationRequest true "Consultation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /consultations [post]
func (h *ConsultationHandler) Create(c *gin.Context) {
	var req service.ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid consultation payload"))
		return
	}

	log, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, log)
}

// Update godoc
// @Summary Update a consultation record
// @Tags Consultations
// @Accept json
// @Produce json
// @Param id path string true "Consultation ID"
// @Param payload body service.ConsultationRequest true "Consultation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /consultations/{id} [put]
func (h *ConsultationHandler) Update(c *gin.Context) {
	var req service.ConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid consultation payload"))
		return
	}

	log, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a consultation record
// @Tags Consultations
// @Param id path string true "Consultation ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /consultations/{id} [delete]
func (h *ConsultationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
