package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coursemart/internal/logger"
	"coursemart/internal/serializer"
	"coursemart/internal/serializers"
	"coursemart/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	db            *gorm.DB
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, db *gorm.DB, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		db:            db,
		courseService: courseService,
	}
}

func (h *CourseHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagCourse, serializerContext(c, h.db))
}

func (h *CourseHandler) List(c *gin.Context) {
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.courseService.List(c.Request.Context(), ins)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *CourseHandler) Get(c *gin.Context) {
	courseID, err := paramUUID(c, "course_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.courseService.Get(c.Request.Context(), ins, courseID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *CourseHandler) Create(c *gin.Context) {
	payload, err := bindPayload(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.courseService.Create(c.Request.Context(), ins, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *CourseHandler) Update(c *gin.Context) {
	courseID, err := paramUUID(c, "course_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	payload, err := bindPayload(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.courseService.Update(c.Request.Context(), ins, courseID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *CourseHandler) Delete(c *gin.Context) {
	courseID, err := paramUUID(c, "course_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.courseService.Delete(c.Request.Context(), courseID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CourseHandler) Enroll(c *gin.Context) {
	courseID, err := paramUUID(c, "course_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	enrollment, err := h.courseService.Enroll(c.Request.Context(), courseID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"id": enrollment.ID, "course_id": enrollment.CourseID})
}
