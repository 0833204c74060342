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

type RatingHandler struct {
	log           *logger.Logger
	db            *gorm.DB
	ratingService services.RatingService
}

func NewRatingHandler(log *logger.Logger, db *gorm.DB, ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{
		log:           log.With("handler", "RatingHandler"),
		db:            db,
		ratingService: ratingService,
	}
}

func (h *RatingHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagRating, serializerContext(c, h.db))
}

func (h *RatingHandler) List(c *gin.Context) {
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
	out, err := h.ratingService.ListByCourse(c.Request.Context(), ins, courseID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *RatingHandler) Create(c *gin.Context) {
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
	out, err := h.ratingService.Create(c.Request.Context(), ins, courseID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *RatingHandler) Update(c *gin.Context) {
	ratingID, err := paramUUID(c, "rating_id")
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
	out, err := h.ratingService.Update(c.Request.Context(), ins, ratingID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *RatingHandler) Delete(c *gin.Context) {
	ratingID, err := paramUUID(c, "rating_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.ratingService.Delete(c.Request.Context(), ratingID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
