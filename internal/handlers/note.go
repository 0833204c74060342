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

type NoteHandler struct {
	log         *logger.Logger
	db          *gorm.DB
	noteService services.NoteService
}

func NewNoteHandler(log *logger.Logger, db *gorm.DB, noteService services.NoteService) *NoteHandler {
	return &NoteHandler{
		log:         log.With("handler", "NoteHandler"),
		db:          db,
		noteService: noteService,
	}
}

func (h *NoteHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagNote, serializerContext(c, h.db))
}

func (h *NoteHandler) List(c *gin.Context) {
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
	out, err := h.noteService.ListByLesson(c.Request.Context(), ins, lessonID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *NoteHandler) Create(c *gin.Context) {
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
	out, err := h.noteService.Create(c.Request.Context(), ins, lessonID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *NoteHandler) Update(c *gin.Context) {
	noteID, err := paramUUID(c, "note_id")
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
	out, err := h.noteService.Update(c.Request.Context(), ins, noteID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	noteID, err := paramUUID(c, "note_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.noteService.Delete(c.Request.Context(), noteID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
