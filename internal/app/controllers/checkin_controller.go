package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasedu/rollcall/internal/app/models/dto"
	"github.com/atlasedu/rollcall/internal/app/services"
	"github.com/atlasedu/rollcall/internal/middleware"
	"github.com/atlasedu/rollcall/internal/pkg/geo"
)

// CheckInController handles student check-in operations
type CheckInController struct {
	checkInService services.CheckInService
}

// NewCheckInController creates a new CheckInController
func NewCheckInController(checkInService services.CheckInService) *CheckInController {
	return &CheckInController{
		checkInService: checkInService,
	}
}

// CheckIn submits a check-in attempt for the authenticated student
// @Summary Check in to a session
// @Description Validates the student's presence and records attendance for an active session
// @Tags check-ins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body dto.CheckInRequest true "Check-in attempt"
// @Success 201 {object} dto.APIResponse{data=dto.CheckInResponse} "Attendance recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Student is not enrolled in this course"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session not active or attendance already recorded"
// @Failure 422 {object} dto.ErrorResponse "Out of range or attendance code rejected"
// @Router /attendance-sessions/{id}/check-ins [post]
func (c *CheckInController) CheckIn(ctx *gin.Context) {
	var req dto.CheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid check-in data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	studentID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	record, err := c.checkInService.Submit(ctx, services.SubmitCheckInInput{
		SessionID: ctx.Param("id"),
		StudentID: studentID,
		Location:  geo.Point{Lat: req.Location.Lat, Long: req.Location.Long},
		Code:      req.Code,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.CheckInResponse{
		RecordID:    record.ID,
		SessionID:   record.AttendanceSessionID,
		CheckedInAt: record.CheckedInAt,
		Distance:    record.Distance,
	}))
}

// ListSessionRecords returns the attendance report of a session
// @Summary Get session attendance report
// @Description Retrieves all attendance records of a session with student names
// @Tags check-ins
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.APIResponse{data=dto.RecordListResponse} "Records retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Lecturer role required"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance-sessions/{id}/records [get]
func (c *CheckInController) ListSessionRecords(ctx *gin.Context) {
	sessionID := ctx.Param("id")

	records, err := c.checkInService.ListSessionRecords(ctx, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]dto.RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.FromRecordWithStudent(record))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.RecordListResponse{
		SessionID: sessionID,
		Records:   responses,
		Total:     len(responses),
	}))
}
