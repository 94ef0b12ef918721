package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classhub/classhub-api/internal/service"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/response"
)

// SubmissionHandler wires HTTP endpoints to the submission service.
type SubmissionHandler struct {
	service *service.SubmissionService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Submit godoc
// @Summary Hand in homework for an assignment
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.SubmitRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, submission)
}

// ListMine godoc
// @Summary List the caller's submissions
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/me [get]
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submissions, err := h.service.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submissions, nil)
}

// Get godoc
// @Summary Get one (user, assignment) submission
// @Tags Submissions
// @Produce json
// @Param userId path string true "User ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{userId}/{assignmentId} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.service.Get(c.Request.Context(), c.Param("userId"), c.Param("assignmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
