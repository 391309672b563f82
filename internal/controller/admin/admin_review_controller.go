package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminReviewController struct {
	submissionService service.SubmissionService
	reviewService     service.ReviewService
	sessionService    service.SessionService
}

func NewAdminReviewController(
	submissionService service.SubmissionService,
	reviewService service.ReviewService,
	sessionService service.SessionService,
) *AdminReviewController {
	return &AdminReviewController{
		submissionService: submissionService,
		reviewService:     reviewService,
		sessionService:    sessionService,
	}
}

// ListPendingReview godoc
// @Summary (Admin) List submissions awaiting manual grading
// @Description Submissions containing free-text questions stay pending until an admin sets their score.
// @Tags Admin - Review
// @Produce json
// @Success 200 {array} dto.SubmissionResponseDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/review [get]
func (c *AdminReviewController) ListPendingReview(ctx *gin.Context) {
	subs, err := c.reviewService.ListPending()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve review queue", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, subs)
}

// DraftFeedback godoc
// @Summary (Admin) Draft feedback for a free-text answer
// @Description Returns an LLM-drafted note for the grader to edit. Advisory only; it never changes the score.
// @Tags Admin - Review
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Param question_index query int true "Question position within the test"
// @Success 200 {object} dto.ReviewDraftDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/review/{submission_id}/draft [get]
func (c *AdminReviewController) DraftFeedback(ctx *gin.Context) {
	submissionID, err := strconv.ParseUint(ctx.Param("submission_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Submission ID format"})
		return
	}
	questionIndex, err := strconv.Atoi(ctx.Query("question_index"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid question_index"})
		return
	}

	draft, err := c.reviewService.DraftFeedback(ctx.Request.Context(), uint(submissionID), questionIndex)
	if err != nil {
		log.Error().Err(err).Uint64("submissionID", submissionID).Msg("Admin DraftFeedback: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to draft feedback", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, draft)
}

// SetScore godoc
// @Summary (Admin) Set a submission's score
// @Description Manual grading: updates the submission and re-reconciles its derived record.
// @Tags Admin - Review
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Param score body dto.ScoreUpdateDTO true "Score (0-100)"
// @Success 200 {object} dto.SubmissionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{submission_id}/score [put]
func (c *AdminReviewController) SetScore(ctx *gin.Context) {
	submissionID, err := strconv.ParseUint(ctx.Param("submission_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Submission ID format"})
		return
	}

	var req dto.ScoreUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.submissionService.UpdateScore(ctx.Request.Context(), uint(submissionID), req.Score)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AllowRetake godoc
// @Summary (Admin) Grant a retake
// @Description Archives the submission (audit trail survives) and clears the trainee's live-session completion marker.
// @Tags Admin - Review
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} dto.SubmissionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{submission_id}/retake [post]
func (c *AdminReviewController) AllowRetake(ctx *gin.Context) {
	submissionID, err := strconv.ParseUint(ctx.Param("submission_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Submission ID format"})
		return
	}

	resp, err := c.submissionService.AllowRetake(ctx.Request.Context(), uint(submissionID))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteSubmission godoc
// @Summary (Admin) Delete a submission
// @Tags Admin - Review
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/submissions/{submission_id} [delete]
func (c *AdminReviewController) DeleteSubmission(ctx *gin.Context) {
	submissionID, err := strconv.ParseUint(ctx.Param("submission_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Submission ID format"})
		return
	}

	if err := c.submissionService.Delete(ctx.Request.Context(), uint(submissionID)); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to delete submission", Details: []string{err.Error()}})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetSubmission godoc
// @Summary (Admin) Get a submission with its raw answers
// @Tags Admin - Review
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} dto.SubmissionDetailDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/submissions/{submission_id} [get]
func (c *AdminReviewController) GetSubmission(ctx *gin.Context) {
	submissionID, err := strconv.ParseUint(ctx.Param("submission_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Submission ID format"})
		return
	}

	detail, err := c.submissionService.GetByID(uint(submissionID))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// ListTestSubmissions godoc
// @Summary (Admin) List all submissions for a test
// @Tags Admin - Review
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.SubmissionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/tests/{test_id}/submissions [get]
func (c *AdminReviewController) ListTestSubmissions(ctx *gin.Context) {
	testID, err := strconv.ParseUint(ctx.Param("test_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Test ID format"})
		return
	}

	subs, err := c.submissionService.ListByTest(uint(testID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve submissions", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, subs)
}

// OpenSession godoc
// @Summary (Admin) Open a proctored session for a test
// @Tags Admin - Sessions
// @Accept json
// @Produce json
// @Param session body dto.SessionCreateDTO true "Test and session kind"
// @Success 201 {object} dto.SessionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/sessions [post]
func (c *AdminReviewController) OpenSession(ctx *gin.Context) {
	var req dto.SessionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	session, err := c.sessionService.Open(req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to open session", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, session)
}

// CloseSession godoc
// @Summary (Admin) Close a proctored session
// @Tags Admin - Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/sessions/{session_id} [delete]
func (c *AdminReviewController) CloseSession(ctx *gin.Context) {
	if err := c.sessionService.Close(ctx.Param("session_id")); err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}
