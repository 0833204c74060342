package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/serializer"
	"coursemart/internal/serializers"
	"coursemart/internal/services"
)

// ActionHandler serves like/dislike endpoints. Target listing routes are
// registered once per allow-listed model via ListForTarget, so the wire
// discriminant is fixed by the route rather than guessed from the payload.
type ActionHandler struct {
	log           *logger.Logger
	db            *gorm.DB
	actionService services.ActionService
}

func NewActionHandler(log *logger.Logger, db *gorm.DB, actionService services.ActionService) *ActionHandler {
	return &ActionHandler{
		log:           log.With("handler", "ActionHandler"),
		db:            db,
		actionService: actionService,
	}
}

func (h *ActionHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagAction, serializerContext(c, h.db))
}

// ListForTarget returns a handler listing actions on one target of the given
// model, optionally filtered by ?action=1|2.
func (h *ActionHandler) ListForTarget(model, pkParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, err := paramUUID(c, pkParam)
		if err != nil {
			RespondWithError(c, h.log, err)
			return
		}
		kind := 0
		if raw := c.Query("action"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				RespondWithError(c, h.log, apierr.ValidationError{"action": "action must be an integer"})
				return
			}
			kind = n
		}
		ins, err := h.instance(c)
		if err != nil {
			RespondWithError(c, h.log, err)
			return
		}
		out, err := h.actionService.ListByTarget(c.Request.Context(), ins, model, targetID, kind)
		if err != nil {
			RespondWithError(c, h.log, err)
			return
		}
		RespondOK(c, out)
	}
}

func (h *ActionHandler) Create(c *gin.Context) {
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
	out, err := h.actionService.Create(c.Request.Context(), ins, courseID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *ActionHandler) Delete(c *gin.Context) {
	actionID, err := paramUUID(c, "action_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.actionService.Delete(c.Request.Context(), actionID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
