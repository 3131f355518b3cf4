package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/models/dto"
	"github.com/swipeattend/backend/internal/app/services"
	"github.com/swipeattend/backend/internal/middleware"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/helpers"
)

// AttendanceController handles attendance marking and reporting
type AttendanceController struct {
	ledger *services.Ledger
	logger zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(ledger *services.Ledger, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		ledger: ledger,
		logger: logger,
	}
}

// MarkAttendance marks one student for one day
// @Summary Mark attendance
// @Description Creates the mark for a student, class and day, or updates it when one exists
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MarkAttendanceRequest true "Mark"
// @Success 201 {object} dto.APIResponse{data=dto.MarkAttendanceResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 403 {object} dto.APIResponse "Class not owned by the caller"
// @Failure 404 {object} dto.APIResponse "Unknown student"
// @Failure 409 {object} dto.APIResponse "Concurrent mark, retry"
// @Router /attendance/mark [post]
func (c *AttendanceController) MarkAttendance(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	var req dto.MarkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid mark attendance payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	day, err := helpers.ParseInstant(req.Date)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.ErrInvalidDate)
		return
	}

	mark, created, err := c.ledger.MarkOne(ctx.Request.Context(), services.MarkInput{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		TeacherID: teacherID,
		Status:    req.Status,
		Date:      day,
		Notes:     req.Notes,
	})
	if err != nil {
		c.logger.Warn().Err(err).
			Str("teacherID", teacherID).
			Str("classID", req.ClassID).
			Str("studentID", req.StudentID).
			Msg("Mark attendance failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.MarkAttendanceResponse{
		Mark:    dto.NewAttendanceMarkResponse(mark),
		Created: created,
	}))
}

// BatchMark marks several students of one class for one day
// @Summary Batch mark attendance
// @Description Marks every entry independently; failed entries are reported with their index
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BatchMarkRequest true "Batch"
// @Success 201 {object} dto.APIResponse{data=dto.BatchMarkResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 403 {object} dto.APIResponse "Class not owned by the caller"
// @Router /attendance/batch-mark [post]
func (c *AttendanceController) BatchMark(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	var req dto.BatchMarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid batch mark payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	day, err := helpers.ParseInstant(req.Date)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.ErrInvalidDate)
		return
	}

	entries := make([]services.BatchEntry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = services.BatchEntry{StudentID: e.StudentID, Status: e.Status, Notes: e.Notes}
	}

	result, err := c.ledger.MarkBatch(ctx.Request.Context(), req.ClassID, teacherID, day, entries)
	if err != nil {
		c.logger.Warn().Err(err).Str("classID", req.ClassID).Msg("Batch mark rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.BatchMarkResponse{
		MarkedCount: result.MarkedCount,
		Failed:      make([]dto.BatchFailure, 0, len(result.Failures)),
	}
	for _, f := range result.Failures {
		_, code := middleware.StatusFor(f.Err)
		resp.Failed = append(resp.Failed, dto.BatchFailure{
			Index:     f.Index,
			StudentID: f.StudentID,
			Code:      code,
			Message:   middleware.PublicMessage(f.Err),
		})
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// UpdateAttendance edits the status and notes of a mark
// @Summary Update a mark
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param markId path string true "Mark ID"
// @Param request body dto.UpdateAttendanceRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.AttendanceMarkResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 403 {object} dto.APIResponse "Class not owned by the caller"
// @Failure 404 {object} dto.APIResponse "Unknown mark"
// @Router /attendance/{markId} [put]
func (c *AttendanceController) UpdateAttendance(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)
	markID := ctx.Param("markId")

	var req dto.UpdateAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid update attendance payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	mark, err := c.ledger.UpdateOne(ctx.Request.Context(), markID, teacherID, req.Status, req.Notes)
	if err != nil {
		c.logger.Warn().Err(err).Str("markID", markID).Msg("Update attendance failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewAttendanceMarkResponse(mark)))
}

// ClassReport returns the attendance sheet of a class for one day
// @Summary Class attendance report
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param date query string true "Day, YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.ClassReportResponse}
// @Failure 400 {object} dto.APIResponse "Missing or malformed date"
// @Failure 404 {object} dto.APIResponse "Unknown class"
// @Router /attendance/class/{classId} [get]
func (c *AttendanceController) ClassReport(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)
	classID := ctx.Param("classId")

	rawDate := ctx.Query("date")
	if rawDate == "" {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("date", "date query parameter is required"))
		return
	}
	day, err := helpers.ParseDay(rawDate)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.ErrInvalidDate)
		return
	}

	class, entries, err := c.ledger.ClassReport(ctx.Request.Context(), teacherID, classID, day)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.ClassReportResponse{
		ClassID:       class.ID,
		ClassName:     class.Name,
		Date:          helpers.FormatDay(day),
		TotalStudents: len(entries),
		Entries:       make([]dto.ReportEntry, 0, len(entries)),
	}
	for _, e := range entries {
		entry := dto.ReportEntry{
			StudentID:   e.Student.ID,
			StudentName: e.Student.Name,
			RollNo:      e.Student.RollNo,
			Status:      string(e.Status),
		}
		if e.Mark != nil {
			markID, markedAt := e.Mark.ID, e.Mark.MarkedAt
			entry.MarkID = &markID
			entry.MarkedAt = &markedAt
			entry.Notes = e.Mark.Notes
		}
		resp.Entries = append(resp.Entries, entry)
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// StudentHistory returns the most recent marks of a student
// @Summary Student attendance history
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param limit query int false "Maximum marks, capped by configuration"
// @Success 200 {object} dto.APIResponse{data=dto.StudentHistoryResponse}
// @Failure 404 {object} dto.APIResponse "No attendance records found"
// @Router /attendance/student/{studentId} [get]
func (c *AttendanceController) StudentHistory(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)
	studentID := ctx.Param("studentId")

	student, marks, err := c.ledger.StudentHistory(ctx.Request.Context(), teacherID, studentID, helpers.ParseLimit(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	history := make([]dto.AttendanceMarkResponse, 0, len(marks))
	for _, m := range marks {
		history = append(history, dto.NewAttendanceMarkResponse(m))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.StudentHistoryResponse{
		Student: dto.NewStudentResponse(student),
		History: history,
	}))
}

// ClassAnalytics returns per-student attendance figures of a class
// @Summary Class analytics
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClassAnalyticsResponse}
// @Failure 404 {object} dto.APIResponse "Unknown class"
// @Router /attendance/analytics/{classId} [get]
func (c *AttendanceController) ClassAnalytics(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	class, rows, err := c.ledger.ClassAnalytics(ctx.Request.Context(), teacherID, ctx.Param("classId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.ClassAnalyticsResponse{
		ClassID:   class.ID,
		ClassName: class.Name,
		Analytics: make([]dto.StudentAnalytics, 0, len(rows)),
	}
	for _, r := range rows {
		resp.Analytics = append(resp.Analytics, dto.StudentAnalytics{
			StudentID:    r.Student.ID,
			StudentName:  r.Student.Name,
			RollNo:       r.Student.RollNo,
			TotalClasses: r.Stats.TotalClasses,
			Present:      r.Stats.PresentCount,
			Absent:       r.Stats.AbsentCount,
			Late:         r.Stats.LateCount,
			Excused:      r.Stats.ExcusedCount,
			Percentage:   r.Percentage,
			Band:         string(r.Band),
		})
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
