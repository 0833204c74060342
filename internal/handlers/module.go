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

type ModuleHandler struct {
	log           *logger.Logger
	db            *gorm.DB
	moduleService services.ModuleService
}

func NewModuleHandler(log *logger.Logger, db *gorm.DB, moduleService services.ModuleService) *ModuleHandler {
	return &ModuleHandler{
		log:           log.With("handler", "ModuleHandler"),
		db:            db,
		moduleService: moduleService,
	}
}

func (h *ModuleHandler) instance(c *gin.Context) (*serializer.Instance, error) {
	return serializer.New(serializers.TagModule, serializerContext(c, h.db))
}

func (h *ModuleHandler) List(c *gin.Context) {
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
	out, err := h.moduleService.ListByCourse(c.Request.Context(), ins, courseID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *ModuleHandler) Get(c *gin.Context) {
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
	out, err := h.moduleService.Get(c.Request.Context(), ins, moduleID)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

func (h *ModuleHandler) Create(c *gin.Context) {
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
	out, err := h.moduleService.Create(c.Request.Context(), ins, courseID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondCreated(c, out)
}

func (h *ModuleHandler) Update(c *gin.Context) {
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
	out, err := h.moduleService.Update(c.Request.Context(), ins, moduleID, payload)
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	RespondOK(c, out)
}

// Move is the only write path for order values.
func (h *ModuleHandler) Move(c *gin.Context) {
	moduleID, err := paramUUID(c, "module_id")
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
	if err := h.moduleService.Move(c.Request.Context(), moduleID, *body.Order); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ModuleHandler) Delete(c *gin.Context) {
	moduleID, err := paramUUID(c, "module_id")
	if err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	if err := h.moduleService.Delete(c.Request.Context(), moduleID); err != nil {
		RespondWithError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
