package user

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/middleware"
	"github.com/karvel/traindesk/internal/model"
)

// stubSubmissionService records the arguments handlers pass through.
type stubSubmissionService struct {
	submittedAs string
	listedFor   string
}

func (s *stubSubmissionService) Submit(ctx context.Context, testID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionResponseDTO, error) {
	s.submittedAs = req.Trainee
	return &dto.SubmissionResponseDTO{Trainee: req.Trainee, TestID: testID}, nil
}

func (s *stubSubmissionService) AllowRetake(ctx context.Context, submissionID uint) (*dto.SubmissionResponseDTO, error) {
	return nil, nil
}

func (s *stubSubmissionService) UpdateScore(ctx context.Context, submissionID uint, score int) (*dto.SubmissionResponseDTO, error) {
	return nil, nil
}

func (s *stubSubmissionService) Delete(ctx context.Context, submissionID uint) error { return nil }

func (s *stubSubmissionService) GetByID(submissionID uint) (*dto.SubmissionDetailDTO, error) {
	return nil, nil
}

func (s *stubSubmissionService) ListByTrainee(trainee string) ([]dto.SubmissionResponseDTO, error) {
	s.listedFor = trainee
	return nil, nil
}

func (s *stubSubmissionService) ListByTest(testID uint) ([]dto.SubmissionResponseDTO, error) {
	return nil, nil
}

func traineeCtx(t *testing.T, role, username string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Set(middleware.CtxRole, role)
	ctx.Set(middleware.CtxUsername, username)
	return ctx, w
}

func TestSubmitBindsTraineeToToken(t *testing.T) {
	stub := &stubSubmissionService{}
	ctrl := &TraineeController{submissionService: stub}

	ctx, w := traineeCtx(t, model.RoleTrainee, "alice")
	ctx.Params = gin.Params{{Key: "test_id", Value: "7"}}
	body := `{"trainee":"mallory","answers":{"0":1}}`
	ctx.Request = httptest.NewRequest("POST", "/api/v1/tests/7/submissions", strings.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")

	ctrl.Submit(ctx)

	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stub.submittedAs != "alice" {
		t.Fatalf("submission attributed to %q, want token identity alice", stub.submittedAs)
	}
}

func TestSubmitAdminMaySubmitOnBehalf(t *testing.T) {
	stub := &stubSubmissionService{}
	ctrl := &TraineeController{submissionService: stub}

	ctx, w := traineeCtx(t, model.RoleAdmin, "supervisor")
	ctx.Params = gin.Params{{Key: "test_id", Value: "7"}}
	body := `{"trainee":"dave","answers":{"0":1}}`
	ctx.Request = httptest.NewRequest("POST", "/api/v1/tests/7/submissions", strings.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")

	ctrl.Submit(ctx)

	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stub.submittedAs != "dave" {
		t.Fatalf("admin submission attributed to %q, want dave", stub.submittedAs)
	}
}

func TestMySubmissionsIgnoresQueryForTrainees(t *testing.T) {
	stub := &stubSubmissionService{}
	ctrl := &TraineeController{submissionService: stub}

	ctx, w := traineeCtx(t, model.RoleTrainee, "alice")
	ctx.Request = httptest.NewRequest("GET", "/api/v1/submissions?trainee=bob", nil)

	ctrl.MySubmissions(ctx)

	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stub.listedFor != "alice" {
		t.Fatalf("listed submissions for %q, want token identity alice", stub.listedFor)
	}
}

func TestMySubmissionsAdminQueriesByName(t *testing.T) {
	stub := &stubSubmissionService{}
	ctrl := &TraineeController{submissionService: stub}

	ctx, w := traineeCtx(t, model.RoleAdmin, "supervisor")
	ctx.Request = httptest.NewRequest("GET", "/api/v1/submissions?trainee=bob", nil)

	ctrl.MySubmissions(ctx)

	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if stub.listedFor != "bob" {
		t.Fatalf("admin listed submissions for %q, want bob", stub.listedFor)
	}
}

func TestSubmitRejectsMissingIdentity(t *testing.T) {
	stub := &stubSubmissionService{}
	ctrl := &TraineeController{submissionService: stub}

	// A token with no username (and no admin role) cannot be attributed.
	ctx, w := traineeCtx(t, model.RoleTrainee, "")
	ctx.Params = gin.Params{{Key: "test_id", Value: "7"}}
	body := `{"trainee":"mallory","answers":{"0":1}}`
	ctx.Request = httptest.NewRequest("POST", "/api/v1/tests/7/submissions", strings.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")

	ctrl.Submit(ctx)

	if w.Code != 400 {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if stub.submittedAs != "" {
		t.Fatalf("unattributable submission reached the service as %q", stub.submittedAs)
	}
}
