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

type QuizHandler struct {
	log         *logger.Logger
	db          *gorm.DB
	quizService services.QuizService
}

func NewQuizHandler(log *logger.Logger, db *gorm.DB, quizService services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:         log.With("handler", "QuizHandler"),
		db:          db,
		quizService: quizService,
	}
}

func (h *QuizHandler) GetByLesson(c *gin.Context) {
	lessonID, err := paramUUID(c, "lesson_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := serializer.New(serializers.TagQuiz, serializerContext(c, h.db))
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.quizService.GetByLesson(c.Request.Context(), ins, lessonID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *QuizHandler) Create(c *gin.Context) {
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
	ins, err := serializer.New(serializers.TagQuiz, serializerContext(c, h.db))
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.quizService.Create(c.Request.Context(), ins, lessonID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, err := paramUUID(c, "quiz_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	payload, err := bindPayload(c)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	ins, err := serializer.New(serializers.TagQuizQuestion, serializerContext(c, h.db))
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.quizService.AddQuestion(c.Request.Context(), ins, quizID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *QuizHandler) MoveQuestion(c *gin.Context) {
	questionID, err := paramUUID(c, "question_id")
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
	if err := h.quizService.MoveQuestion(c.Request.Context(), questionID, *body.Order); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	questionID, err := paramUUID(c, "question_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.quizService.DeleteQuestion(c.Request.Context(), questionID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuizHandler) Submit(c *gin.Context) {
	quizID, err := paramUUID(c, "quiz_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	var body struct {
		Responses []int `json:"responses"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondWithError(c, h.log, apierr.ValidationError{"responses": "responses array is required"})
		return
	}
	result, err := h.quizService.Submit(c.Request.Context(), quizID, body.Responses)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}
