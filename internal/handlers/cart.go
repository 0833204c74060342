package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/serializer"
	"coursemart/internal/serializers"
	"coursemart/internal/services"
)

type CartHandler struct {
	log         *logger.Logger
	db          *gorm.DB
	cartService services.CartService
}

func NewCartHandler(log *logger.Logger, db *gorm.DB, cartService services.CartService) *CartHandler {
	return &CartHandler{
		log:         log.With("handler", "CartHandler"),
		db:          db,
		cartService: cartService,
	}
}

func (h *CartHandler) Get(c *gin.Context) {
	ins, err := serializer.New(serializers.TagCourse, serializerContext(c, h.db))
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	out, err := h.cartService.List(c.Request.Context(), ins)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"courses": out})
}

func (h *CartHandler) Add(c *gin.Context) {
	var body struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondWithError(c, h.log, apierr.ValidationError{"detail": "malformed JSON body"})
		return
	}
	courseID, err := uuid.Parse(body.CourseID)
	if err != nil {
		RespondWithError(c, h.log, apierr.ValidationError{"course_id": "must be a valid uuid"})
		return
	}
	if err := h.cartService.Add(c.Request.Context(), courseID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Remove(c *gin.Context) {
	courseID, err := paramUUID(c, "course_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.cartService.Remove(c.Request.Context(), courseID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context()); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
