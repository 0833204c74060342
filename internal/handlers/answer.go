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

// AnswerHandler follows the same per-model route registration as
// ActionHandler.
type AnswerHandler struct {
	log           *logger.Logger
	db            *gorm.DB
	answerService services.AnswerService
}

func NewAnswerHandler(log *logger.Logger, db *gorm.DB, answerService services.AnswerService) *AnswerHandler {
	return &AnswerHandler{
		log:           log.With("handler", "AnswerHandler"),
		db:            db,
		answerService: answerService,
	}
}

func (h *AnswerHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagAnswer, serializerContext(c, h.db))
}

func (h *AnswerHandler) ListForTarget(model, pkParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, err := paramUUID(c, pkParam)
		if err != nil {
			RespondWithError(c, h.log, err)
			return
		}
		ins, err := h.instance(c)
		if err != nil {
			RespondWithError(c, h.log, err)
			return
		}
		out, err := h.answerService.ListByTarget(c.Request.Context(), ins, model, targetID)
		if err != nil {
			RespondWithError(c, h.log, err)
			return
		}
		RespondOK(c, out)
	}
}

func (h *AnswerHandler) Create(c *gin.Context) {
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
	out, err := h.answerService.Create(c.Request.Context(), ins, courseID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *AnswerHandler) Update(c *gin.Context) {
	answerID, err := paramUUID(c, "answer_id")
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
	out, err := h.answerService.Update(c.Request.Context(), ins, answerID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *AnswerHandler) Delete(c *gin.Context) {
	answerID, err := paramUUID(c, "answer_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.answerService.Delete(c.Request.Context(), answerID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
