package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/atlasedu/rollcall/internal/app/models/dto"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
)

// HandleAPIError maps domain errors to their HTTP responses. Every
// controller funnels service errors through here so status codes and
// error codes stay consistent across endpoints.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		c.JSON(404, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Attendance session not found")))
	case errors.Is(err, apperrors.ErrSessionNotActive):
		c.JSON(409, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeSessionNotActive, "Attendance session is not active")))
	case errors.Is(err, apperrors.ErrNotEnrolled):
		c.JSON(403, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeNotEnrolled, "Student is not enrolled in this course")))
	case errors.Is(err, apperrors.ErrAlreadyCheckedIn):
		c.JSON(409, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeAlreadyCheckedIn, "Attendance already recorded for this session")))
	case errors.Is(err, apperrors.ErrOutOfRange):
		c.JSON(422, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeOutOfRange, "Location is outside the session radius")))
	case errors.Is(err, apperrors.ErrCodeRequired):
		c.JSON(422, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeCodeRequired, "Attendance code is required for this session")))
	case errors.Is(err, apperrors.ErrCodeMismatch):
		c.JSON(422, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeCodeMismatch, "Attendance code does not match")))
	case errors.Is(err, apperrors.ErrSchedulingFailure):
		c.JSON(503, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeSchedulingFailure, "Session could not be scheduled")))
	case errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(404, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(403, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")))
	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(401, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")))
	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(401, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")))
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(400, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(err.Error())))
	case errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(400, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request").WithDetails(err.Error())))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(409, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeAlreadyCheckedIn, "Conflicting state")))
	default:
		c.JSON(500, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
