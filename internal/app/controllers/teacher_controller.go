package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/models/dto"
	"github.com/swipeattend/backend/internal/app/services"
	"github.com/swipeattend/backend/internal/middleware"
)

// TeacherController serves the class and roster endpoints of the caller
type TeacherController struct {
	teacherService *services.TeacherService
	logger         zerolog.Logger
}

// NewTeacherController creates a new TeacherController
func NewTeacherController(teacherService *services.TeacherService, logger zerolog.Logger) *TeacherController {
	return &TeacherController{
		teacherService: teacherService,
		logger:         logger,
	}
}

func classSummaries(summaries []services.ClassSummary) []dto.ClassResponse {
	out := make([]dto.ClassResponse, 0, len(summaries))
	for _, s := range summaries {
		resp := dto.NewClassResponse(s.Class)
		count := s.StudentCount
		resp.StudentCount = &count
		out = append(out, resp)
	}
	return out
}

// ListClasses lists the classes owned by the caller
// @Summary List my classes
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ClassResponse}
// @Router /teacher/classes [get]
func (c *TeacherController) ListClasses(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	summaries, err := c.teacherService.ListClasses(ctx.Request.Context(), teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(classSummaries(summaries)))
}

// Dashboard summarizes the caller's classes and students
// @Summary Teacher dashboard
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse}
// @Router /teacher/dashboard [get]
func (c *TeacherController) Dashboard(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	dash, err := c.teacherService.Dashboard(ctx.Request.Context(), teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DashboardResponse{
		TotalClasses:  dash.TotalClasses,
		TotalStudents: dash.TotalStudents,
		Classes:       classSummaries(dash.Classes),
	}))
}

// CreateClass creates a class owned by the caller
// @Summary Create a class
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateClassRequest true "Class"
// @Success 201 {object} dto.APIResponse{data=dto.ClassResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 409 {object} dto.APIResponse "Class code already exists"
// @Router /teacher/classes [post]
func (c *TeacherController) CreateClass(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	var req dto.CreateClassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid create class payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	class, err := c.teacherService.CreateClass(ctx.Request.Context(), teacherID, services.NewClassInput{
		Name:        req.Name,
		Subject:     req.Subject,
		Code:        req.Code,
		Section:     req.Section,
		RoomNumber:  req.RoomNumber,
		Description: req.Description,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("teacherID", teacherID).Str("classID", class.ID).Msg("Class created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewClassResponse(class)))
}

// ClassDetail returns a class with its roster
// @Summary Class detail
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClassDetailResponse}
// @Failure 403 {object} dto.APIResponse "Class not owned by the caller"
// @Failure 404 {object} dto.APIResponse "Unknown class"
// @Router /teacher/class/{classId} [get]
func (c *TeacherController) ClassDetail(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	class, students, err := c.teacherService.ClassDetail(ctx.Request.Context(), teacherID, ctx.Param("classId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ClassDetailResponse{
		Class:    dto.NewClassResponse(class),
		Students: dto.NewStudentResponses(students),
	}))
}

// Roster lists the students of a class with their attendance figures
// @Summary Class roster
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentResponse}
// @Router /teacher/class/{classId}/students [get]
func (c *TeacherController) Roster(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)

	students, err := c.teacherService.Roster(ctx.Request.Context(), teacherID, ctx.Param("classId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentResponses(students)))
}

// EnrollStudent adds a student to a class
// @Summary Enroll a student
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param request body dto.EnrollStudentRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 403 {object} dto.APIResponse "Class not owned by the caller"
// @Failure 409 {object} dto.APIResponse "Roll number already exists in class"
// @Router /teacher/class/{classId}/students [post]
func (c *TeacherController) EnrollStudent(ctx *gin.Context) {
	teacherID, _ := middleware.CurrentTeacherID(ctx)
	classID := ctx.Param("classId")

	var req dto.EnrollStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	student, err := c.teacherService.EnrollStudent(ctx.Request.Context(), teacherID, classID, services.NewStudentInput{
		Name:   req.Name,
		RollNo: req.RollNo,
		Email:  req.Email,
		Phone:  req.Phone,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewStudentResponse(student)))
}
