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

type QuestionHandler struct {
	log             *logger.Logger
	db              *gorm.DB
	questionService services.QuestionService
}

func NewQuestionHandler(log *logger.Logger, db *gorm.DB, questionService services.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		log:             log.With("handler", "QuestionHandler"),
		db:              db,
		questionService: questionService,
	}
}

func (h *QuestionHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagQuestion, serializerContext(c, h.db))
}

func (h *QuestionHandler) List(c *gin.Context) {
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
	out, err := h.questionService.ListByCourse(c.Request.Context(), ins, courseID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *QuestionHandler) Get(c *gin.Context) {
	questionID, err := paramUUID(c, "question_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := h.instance(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.questionService.Get(c.Request.Context(), ins, questionID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *QuestionHandler) Create(c *gin.Context) {
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
	out, err := h.questionService.Create(c.Request.Context(), ins, courseID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	questionID, err := paramUUID(c, "question_id")
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
	out, err := h.questionService.Update(c.Request.Context(), ins, questionID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, err := paramUUID(c, "question_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
