package handler

import (
	"net/http"

	"qms/internal/middleware"
	"qms/internal/service"
	"qms/pkg/pagination"
	"qms/pkg/response"

	"github.com/gin-gonic/gin"
)

type TrainingHandler struct {
	trainingService service.TrainingService
}

func NewTrainingHandler(trainingService service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

func (h *TrainingHandler) RegisterRoutes(router *gin.RouterGroup) {
	courses := router.Group("/training-courses")
	{
		courses.GET("", middleware.RequirePermission("training.read"), h.ListCourses)
		courses.GET("/matrix", middleware.RequirePermission("training.read"), h.CompetencyMatrix)
		courses.GET("/:id", middleware.RequirePermission("training.read"), h.GetCourse)
		courses.POST("", middleware.RequirePermission("training.write"), h.CreateCourse)
		courses.PUT("/:id", middleware.RequirePermission("training.write"), h.UpdateCourse)
		courses.DELETE("/:id", middleware.RequirePermission("training.write"), h.DeleteCourse)

		courses.POST("/:id/records", middleware.RequirePermission("training.write"), h.RecordCompletion)
	}

	router.GET("/users/:id/training-records", middleware.RequirePermission("training.read"), h.RecordsForUser)
}

// ListCourses handles GET /training-courses
// @Summary      List training courses
// @Tags         training
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Paginated{data=[]model.TrainingCourse}
// @Router       /training-courses [get]
func (h *TrainingHandler) ListCourses(c *gin.Context) {
	params := pagination.Parse(c)

	courses, total, err := h.trainingService.ListCourses(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Data:  courses,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}))
}

// GetCourse handles GET /training-courses/:id
func (h *TrainingHandler) GetCourse(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid course id"))
		return
	}

	course, err := h.trainingService.GetCourse(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, course))
}

// CreateCourse handles POST /training-courses
// @Summary      Create training course
// @Tags         training
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TrainingCourseRequest  true  "Course Payload"
// @Success      201      {object}  response.Response{data=model.TrainingCourse}
// @Failure      400      {object}  response.Response
// @Router       /training-courses [post]
func (h *TrainingHandler) CreateCourse(c *gin.Context) {
	var req service.TrainingCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	course, err := h.trainingService.CreateCourse(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, course))
}

// UpdateCourse handles PUT /training-courses/:id
func (h *TrainingHandler) UpdateCourse(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid course id"))
		return
	}

	var req service.TrainingCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	course, err := h.trainingService.UpdateCourse(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, course))
}

// DeleteCourse handles DELETE /training-courses/:id
// @Summary      Delete training course
// @Description  Courses with completion records on file cannot be deleted
// @Tags         training
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Course ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /training-courses/{id} [delete]
func (h *TrainingHandler) DeleteCourse(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid course id"))
		return
	}

	if err := h.trainingService.DeleteCourse(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Training course deleted"))
}

// RecordCompletion handles POST /training-courses/:id/records
// @Summary      Record training completion
// @Description  Records a completion; the expiry date is derived from the course validity window
// @Tags         training
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "Course ID"
// @Param        payload  body      service.TrainingRecordRequest  true  "Record Payload"
// @Success      201      {object}  response.Response{data=service.TrainingRecordResponse}
// @Failure      400      {object}  response.Response
// @Router       /training-courses/{id}/records [post]
func (h *TrainingHandler) RecordCompletion(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid course id"))
		return
	}

	var req service.TrainingRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.trainingService.RecordCompletion(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// RecordsForUser handles GET /users/:id/training-records
func (h *TrainingHandler) RecordsForUser(c *gin.Context) {
	records, err := h.trainingService.RecordsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// CompetencyMatrix handles GET /training-courses/matrix
// @Summary      Competency matrix
// @Description  Current training status per user and course, latest completion wins
// @Tags         training
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CompetencyCell}
// @Router       /training-courses/matrix [get]
func (h *TrainingHandler) CompetencyMatrix(c *gin.Context) {
	matrix, err := h.trainingService.CompetencyMatrix(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, matrix))
}
