package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasedu/rollcall/internal/app/models/dto"
	"github.com/atlasedu/rollcall/internal/app/services"
	"github.com/atlasedu/rollcall/internal/middleware"
	"github.com/atlasedu/rollcall/internal/pkg/auth"
	"github.com/atlasedu/rollcall/internal/pkg/geo"
	"github.com/atlasedu/rollcall/internal/pkg/helpers"
	"github.com/atlasedu/rollcall/internal/pkg/passcode"
)

// SessionController handles attendance session operations
type SessionController struct {
	sessionService services.SessionService
	codeLength     int
}

// NewSessionController creates a new SessionController. codeLength is
// the length of server-generated attendance codes.
func NewSessionController(sessionService services.SessionService, codeLength int) *SessionController {
	if codeLength <= 0 {
		codeLength = passcode.DefaultLength
	}
	return &SessionController{
		sessionService: sessionService,
		codeLength:     codeLength,
	}
}

// StartSession starts a new attendance session
// @Summary Start an attendance session
// @Description Creates a pending attendance session for a course meeting and schedules its activation and completion
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartSessionRequest true "Session parameters"
// @Success 201 {object} dto.APIResponse{data=dto.SessionResponse} "Session created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Lecturer role required"
// @Failure 503 {object} dto.ErrorResponse "Session could not be scheduled"
// @Router /attendance-sessions [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	var req dto.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid session data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	lecturerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	code := req.AttendanceCode
	if req.RequireCode && code == nil {
		generated, err := passcode.GenerateN(c.codeLength)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		code = &generated
	}

	session, err := c.sessionService.Start(ctx, services.StartSessionInput{
		CourseID:       req.CourseID,
		LecturerID:     lecturerID,
		Location:       geo.Point{Lat: req.Location.Lat, Long: req.Location.Long},
		RadiusMeters:   req.RadiusMeters,
		AttendanceCode: code,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.FromSession(session)))
}

// GetSession retrieves an attendance session by ID
// @Summary Get attendance session
// @Description Retrieves a specific attendance session by its ID
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Session retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance-sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	session, err := c.sessionService.GetSession(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.FromSession(session)
	// Students must learn the code from the lecturer, not from the API.
	if role, _ := ctx.Get(middleware.ContextRole); role != auth.RoleLecturer {
		response.AttendanceCode = nil
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(response))
}

// ListCourseSessions lists the attendance sessions of a course
// @Summary List course sessions
// @Description Retrieves a paginated list of attendance sessions for a course
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.SessionListResponse} "Sessions retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /courses/{courseId}/attendance-sessions [get]
func (c *SessionController) ListCourseSessions(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	sessions, total, err := c.sessionService.ListCourseSessions(ctx, ctx.Param("courseId"), offset, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	role, _ := ctx.Get(middleware.ContextRole)
	responses := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response := dto.FromSession(session)
		if role != auth.RoleLecturer {
			response.AttendanceCode = nil
		}
		responses = append(responses, response)
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SessionListResponse{
		Sessions:   responses,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}
