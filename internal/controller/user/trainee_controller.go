package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/middleware"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/service"
	"github.com/rs/zerolog/log"
)

type TraineeController struct {
	traineeTestService service.TraineeTestService
	submissionService  service.SubmissionService
}

func NewTraineeController(tts service.TraineeTestService, ss service.SubmissionService) *TraineeController {
	return &TraineeController{traineeTestService: tts, submissionService: ss}
}

// callerTrainee resolves which trainee a request acts for. Trainee-role
// callers always act as the identity in their token; only admins may name
// another trainee.
func callerTrainee(ctx *gin.Context, requested string) string {
	if role, _ := ctx.Get(middleware.CtxRole); role == model.RoleAdmin {
		return requested
	}
	if v, ok := ctx.Get(middleware.CtxUsername); ok {
		if username, _ := v.(string); username != "" {
			return username
		}
	}
	return ""
}

// ListTests godoc
// @Summary (Trainee) List available tests
// @Tags Trainee - Tests & Submissions
// @Produce json
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /tests [get]
func (c *TraineeController) ListTests(ctx *gin.Context) {
	tests, err := c.traineeTestService.ListTests()
	if err != nil {
		log.Error().Err(err).Msg("Trainee ListTests: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve tests", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTest godoc
// @Summary (Trainee) Get a test to take
// @Description Returns prompts and options only; answer keys never leave the server.
// @Tags Trainee - Tests & Submissions
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TakeTestDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tests/{test_id} [get]
func (c *TraineeController) GetTest(ctx *gin.Context) {
	testID, err := strconv.ParseUint(ctx.Param("test_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Test ID format"})
		return
	}

	test, err := c.traineeTestService.GetTestForTaking(uint(testID))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// Submit godoc
// @Summary (Trainee) Submit answers for a test
// @Description Scores the answer set and reconciles it into submissions and records. A second active submission for the same trainee and test is rejected unless forced by the vetting-timer expiry path, which is completing the one in-flight attempt.
// @Tags Trainee - Tests & Submissions
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param submission body dto.SubmissionCreateDTO true "Trainee, group, and answers"
// @Success 200 {object} dto.SubmissionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input or empty test"
// @Failure 409 {object} dto.ErrorResponse "An active submission already exists"
// @Failure 500 {object} dto.ErrorResponse
// @Router /tests/{test_id}/submissions [post]
func (c *TraineeController) Submit(ctx *gin.Context) {
	testID, err := strconv.ParseUint(ctx.Param("test_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Test ID format"})
		return
	}

	var req dto.SubmissionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Trainee Submit: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	// The submission is attributed to the token's identity, not whatever the
	// body claims.
	req.Trainee = callerTrainee(ctx, req.Trainee)
	if req.Trainee == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "trainee identity is required"})
		return
	}

	log.Info().Uint64("testID", testID).Str("trainee", req.Trainee).Int("answerCount", len(req.Answers)).Bool("forced", req.Forced).Msg("Received test submission")

	resp, err := c.submissionService.Submit(ctx.Request.Context(), uint(testID), req)
	switch {
	case errors.Is(err, service.ErrActiveSubmissionExists):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
		return
	case errors.Is(err, service.ErrEmptyTest):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	case err != nil:
		log.Error().Err(err).Uint64("testID", testID).Msg("Trainee Submit: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to submit test", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// MySubmissions godoc
// @Summary (Trainee) List my submissions
// @Tags Trainee - Tests & Submissions
// @Produce json
// @Param trainee query string false "Trainee name (admins only; trainees always see their own)"
// @Success 200 {array} dto.SubmissionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /submissions [get]
func (c *TraineeController) MySubmissions(ctx *gin.Context) {
	trainee := callerTrainee(ctx, ctx.Query("trainee"))
	if trainee == "" {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "trainee identity is required"})
		return
	}

	subs, err := c.submissionService.ListByTrainee(trainee)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve submissions", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, subs)
}
