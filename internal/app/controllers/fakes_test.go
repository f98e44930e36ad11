package controllers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/app/services"
	"github.com/atlasedu/rollcall/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// fakeSessionService records the last Start input and serves canned
// sessions.
type fakeSessionService struct {
	lastStart  *services.StartSessionInput
	session    *models.AttendanceSession
	sessions   []*models.AttendanceSession
	total      int64
	startErr   error
	getErr     error
	listCourse string
}

func (f *fakeSessionService) Start(_ context.Context, input services.StartSessionInput) (*models.AttendanceSession, error) {
	f.lastStart = &input
	if f.startErr != nil {
		return nil, f.startErr
	}
	session := &models.AttendanceSession{
		ID:             "session-1",
		CourseID:       input.CourseID,
		LecturerID:     input.LecturerID,
		Location:       input.Location,
		RadiusMeters:   input.RadiusMeters,
		AttendanceCode: input.AttendanceCode,
		Status:         models.SessionStatusPending,
	}
	f.session = session
	return session, nil
}

func (f *fakeSessionService) Activate(context.Context, string) error { return nil }
func (f *fakeSessionService) End(context.Context, string) error      { return nil }

func (f *fakeSessionService) GetSession(_ context.Context, _ string) (*models.AttendanceSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeSessionService) ListCourseSessions(_ context.Context, courseID string, _ uint64, _ int) ([]*models.AttendanceSession, int64, error) {
	f.listCourse = courseID
	return f.sessions, f.total, nil
}

// fakeCheckInService serves one canned record per Submit.
type fakeCheckInService struct {
	lastSubmit *services.SubmitCheckInInput
	record     *models.AttendanceRecord
	records    []*models.RecordWithStudent
	submitErr  error
	listErr    error
}

func (f *fakeCheckInService) Submit(_ context.Context, input services.SubmitCheckInInput) (*models.AttendanceRecord, error) {
	f.lastSubmit = &input
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.record, nil
}

func (f *fakeCheckInService) ListSessionRecords(context.Context, string) ([]*models.RecordWithStudent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

// identity injects an authenticated caller the way JWTAuth would.
func identity(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
