package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/atlasedu/rollcall/internal/app/models/dto"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleAPIErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   dto.ErrorCode
	}{
		{"session not found", apperrors.ErrSessionNotFound, 404, dto.ErrorCodeResourceNotFound},
		{"session not active", apperrors.ErrSessionNotActive, 409, dto.ErrorCodeSessionNotActive},
		{"not enrolled", apperrors.ErrNotEnrolled, 403, dto.ErrorCodeNotEnrolled},
		{"already checked in", apperrors.ErrAlreadyCheckedIn, 409, dto.ErrorCodeAlreadyCheckedIn},
		{"out of range", apperrors.ErrOutOfRange, 422, dto.ErrorCodeOutOfRange},
		{"code required", apperrors.ErrCodeRequired, 422, dto.ErrorCodeCodeRequired},
		{"code mismatch", apperrors.ErrCodeMismatch, 422, dto.ErrorCodeCodeMismatch},
		{"scheduling failure", apperrors.ErrSchedulingFailure, 503, dto.ErrorCodeSchedulingFailure},
		{"validation failed", apperrors.ErrValidationFailed, 400, dto.ErrorCodeValidationFailed},
		{"unknown error", errors.New("boom"), 500, dto.ErrorCodeInternalServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleAPIError(c, tc.err)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}

			var resp dto.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Success {
				t.Error("success = true, want false")
			}
			if resp.Error == nil {
				t.Fatal("error detail missing")
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("error code = %s, want %s", resp.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestHandleAPIErrorWrappedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	wrapped := errors.Join(errors.New("context"), apperrors.ErrOutOfRange)
	HandleAPIError(c, wrapped)

	if w.Code != 422 {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestTokenBucketExhaustsAndRejects(t *testing.T) {
	limiter := NewTokenBucket(3, 3)

	router := gin.New()
	router.POST("/x", limiter.Limit(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		router.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	for i := 0; i < 3; i++ {
		if statuses[i] != http.StatusNoContent {
			t.Errorf("request %d status = %d, want %d", i, statuses[i], http.StatusNoContent)
		}
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Errorf("request 3 status = %d, want %d", statuses[3], http.StatusTooManyRequests)
	}
}
