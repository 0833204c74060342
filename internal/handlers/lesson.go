package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/serializer"
	"coursemart/internal/serializers"
	"coursemart/internal/services"
)

type LessonHandler struct {
	log           *logger.Logger
	db            *gorm.DB
	lessonService services.LessonService
}

func NewLessonHandler(log *logger.Logger, db *gorm.DB, lessonService services.LessonService) *LessonHandler {
	return &LessonHandler{
		log:           log.With("handler", "LessonHandler"),
		db:            db,
		lessonService: lessonService,
	}
}

func (h *LessonHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagLesson, serializerContext(c, h.db))
}

func (h *LessonHandler) List(c *gin.Context) {
	moduleID, err := paramUUID(c, "module_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.lessonService.ListByModule(c.Request.Context(), ins, moduleID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *LessonHandler) Get(c *gin.Context) {
	lessonID, err := paramUUID(c, "lesson_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.lessonService.Get(c.Request.Context(), ins, lessonID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *LessonHandler) Create(c *gin.Context) {
	moduleID, err := paramUUID(c, "module_id")
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
	out, err := h.lessonService.Create(c.Request.Context(), ins, moduleID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *LessonHandler) Update(c *gin.Context) {
	lessonID, err := paramUUID(c, "lesson_id")
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
	out, err := h.lessonService.Update(c.Request.Context(), ins, lessonID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *LessonHandler) Move(c *gin.Context) {
	lessonID, err := paramUUID(c, "lesson_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	var body struct {
		Order *int `json:"order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Order == nil {
		RespondWithError(c, h.log, apierr.ValidationError{"order": "order is required"})
		return
	}
	if err := h.lessonService.Move(c.Request.Context(), lessonID, *body.Order); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LessonHandler) Delete(c *gin.Context) {
	lessonID, err := paramUUID(c, "lesson_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.lessonService.Delete(c.Request.Context(), lessonID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
