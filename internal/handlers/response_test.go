package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
)

func respond(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	RespondWithError(c, nil, err)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func TestRespondWithErrorValidation(t *testing.T) {
	code, body := respond(t, apierr.ValidationError{"order": "Order is automatically generated."})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body["order"] != "Order is automatically generated." {
		t.Fatalf("validation map not rendered verbatim: %v", body)
	}
	if _, ok := body["detail"]; ok {
		t.Fatalf("validation body must not be wrapped: %v", body)
	}
}

func TestRespondWithErrorAPIError(t *testing.T) {
	code, body := respond(t, apierr.Forbidden("field_permission",
		fmt.Errorf("You do not have permission to use `course_id` with this id")))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if body["detail"] != "You do not have permission to use `course_id` with this id" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}
}

func TestRespondWithErrorSentinels(t *testing.T) {
	cases := []struct {
		err    error
		code   int
		detail string
	}{
		{gorm.ErrRecordNotFound, http.StatusNotFound, "Not found."},
		{apierr.ErrNotFound, http.StatusNotFound, "Not found."},
		{apierr.ErrForbidden, http.StatusForbidden, "You do not have permission to perform this action."},
		{fmt.Errorf("save: %w", apierr.ErrForbidden), http.StatusForbidden, "You do not have permission to perform this action."},
		{errors.New("UNIQUE constraint failed: action.creator_id"), http.StatusBadRequest, "duplicate object"},
		{apierr.ErrDuplicate, http.StatusBadRequest, "duplicate object"},
	}
	for _, tc := range cases {
		code, body := respond(t, tc.err)
		if code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, code)
		}
		if body["detail"] != tc.detail {
			t.Fatalf("%v: expected detail %q, got %v", tc.err, tc.detail, body["detail"])
		}
	}
}

func TestRespondWithErrorUnknownIs500(t *testing.T) {
	code, body := respond(t, errors.New("disk on fire"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body["detail"] != "internal server error" {
		t.Fatalf("internal errors must not leak, got %v", body)
	}
}

func TestHealthcheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/healthcheck", Healthcheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestParamUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "course_id", Value: "not-a-uuid"}}

	_, err := paramUUID(c, "course_id")
	var v apierr.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
	if v["course_id"] == "" {
		t.Fatalf("message must be keyed by the param name: %v", v)
	}
}

func TestBindPayloadMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	_, err := bindPayload(c)
	var v apierr.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
}
