package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

// SurveyHandler manages surveys and their responses.
type SurveyHandler struct {
	service *service.SurveyService
}

// NewSurveyHandler creates a new handler.
func NewSurveyHandler(svc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{service: svc}
}

// List godoc
// @Summary List surveys with response stats for the caller
// @Tags Surveys
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /surveys [get]
func (h *SurveyHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	surveys, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, surveys, nil)
}

// Get godoc
// @Summary Get one survey with its questions
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id} [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	survey, questions, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"survey": survey, "questions": questions}, nil)
}

// Create godoc
// @Summary Create a survey with its questions
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body service.CreateSurveyRequest true "Survey payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /surveys [post]
func (h *SurveyHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid survey payload"))
		return
	}

	survey, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, survey)
}

// Respond godoc
// @Summary Submit answers to a survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param payload body service.RespondRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /surveys/{id}/responses [post]
func (h *SurveyHandler) Respond(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid response payload"))
		return
	}

	if err := h.service.Respond(c.Request.Context(), c.Param("id"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, gin.H{"submitted": true}, nil)
}

// Delete godoc
// @Summary Delete a survey
// @Tags Surveys
// @Param id path string true "Survey ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id} [delete]
func (h *SurveyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
