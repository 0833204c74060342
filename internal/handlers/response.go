package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/requestdata"
	"coursemart/internal/serializer"
)

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondWithError is the single boundary translating the error taxonomy to
// wire status and body. Validation errors render their field-keyed map
// verbatim; everything else renders {"detail": ...}.
func RespondWithError(c *gin.Context, log *logger.Logger, err error) {
	var v apierr.ValidationError
	if errors.As(err, &v) {
		c.JSON(http.StatusBadRequest, v)
		return
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		c.JSON(ae.Status, gin.H{"detail": ae.Error()})
		return
	}
	translated := apierr.Translate(err)
	switch {
	case errors.Is(translated, apierr.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "duplicate object"})
	case errors.Is(translated, apierr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(translated, apierr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	case errors.Is(translated, apierr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"detail": translated.Error()})
	default:
		if log != nil {
			log.Error("request failed", "error", err, "path", c.FullPath())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// serializerContext assembles the per-request serializer context from gin's
// request state.
func serializerContext(c *gin.Context, db *gorm.DB) *serializer.Context {
	actorID := uuid.Nil
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		actorID = rd.UserID
	}
	return &serializer.Context{
		Ctx:     c.Request.Context(),
		DB:      db.WithContext(c.Request.Context()),
		ActorID: actorID,
		Query:   c.Request.URL.Query(),
		URL:     c.Request.URL,
	}
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierr.ValidationError{name: "must be a valid uuid"}
	}
	return id, nil
}

func bindPayload(c *gin.Context) (map[string]any, error) {
	payload := map[string]any{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, apierr.ValidationError{"detail": "malformed JSON body"}
	}
	return payload, nil
}
