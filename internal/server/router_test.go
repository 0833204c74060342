package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursemart/internal/handlers"
	"coursemart/internal/logger"
	"coursemart/internal/middleware"
	"coursemart/internal/repos"
	"coursemart/internal/requestdata"
	"coursemart/internal/serializer"
	"coursemart/internal/serializers"
	"coursemart/internal/services"
	"coursemart/internal/types"
)

const testToken = "router-test-token"

// sqliteUUIDDefault stands in for the uuid-ossp column default used in
// production.
const sqliteUUIDDefault = `lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))`

var routerSchema = []string{
	`CREATE TABLE user (
		id text PRIMARY KEY, email text, password text,
		first_name text, last_name text,
		created_at datetime, updated_at datetime
	)`,
	`CREATE TABLE course (
		id text DEFAULT (` + sqliteUUIDDefault + `), instructor_id text NOT NULL,
		title text, description text, price_cents integer, published boolean,
		metadata text, created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE enrollment (
		id text DEFAULT (` + sqliteUUIDDefault + `), user_id text NOT NULL,
		course_id text NOT NULL,
		created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE module (
		id text DEFAULT (` + sqliteUUIDDefault + `), course_id text NOT NULL,
		title text, description text, "order" integer,
		created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE lesson (
		id text DEFAULT (` + sqliteUUIDDefault + `), module_id text NOT NULL,
		course_id text NOT NULL, title text, content text, metadata text,
		"order" integer, created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE rating (
		id text PRIMARY KEY, course_id text NOT NULL, creator_id text NOT NULL,
		rate integer, body text,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE action (
		id text DEFAULT (` + sqliteUUIDDefault + `), creator_id text NOT NULL,
		course_id text NOT NULL, content_type text, content_id text, action integer,
		created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
}

// fakeAuthService stands in for the jwt+redis implementation: it accepts a
// single canned token and installs the fixture user into the request context.
type fakeAuthService struct {
	userID uuid.UUID
}

func (f *fakeAuthService) RegisterUser(_ context.Context, user *types.User) (*types.User, error) {
	out := *user
	out.ID = f.userID
	out.Password = ""
	return &out, nil
}

func (f *fakeAuthService) LoginUser(context.Context, string, string) (string, string, error) {
	return testToken, "refresh-" + testToken, nil
}

func (f *fakeAuthService) RefreshUser(context.Context, string) (string, string, error) {
	return testToken, "refresh-" + testToken, nil
}

func (f *fakeAuthService) LogoutUser(context.Context) error { return nil }

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString != testToken {
		return nil, fmt.Errorf("unknown token")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: f.userID}), nil
}

// fakeCartService keeps the cart in memory; the real one needs redis.
type fakeCartService struct {
	items []uuid.UUID
}

func (f *fakeCartService) List(context.Context, *serializer.Instance) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(f.items))
	for _, id := range f.items {
		out = append(out, map[string]any{"id": id.String()})
	}
	return out, nil
}

func (f *fakeCartService) Add(_ context.Context, courseID uuid.UUID) error {
	f.items = append(f.items, courseID)
	return nil
}

func (f *fakeCartService) Remove(_ context.Context, courseID uuid.UUID) error {
	kept := f.items[:0]
	for _, id := range f.items {
		if id != courseID {
			kept = append(kept, id)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeCartService) Clear(context.Context) error {
	f.items = nil
	return nil
}

type routerFixture struct {
	db     *gorm.DB
	router *gin.Engine
	userID uuid.UUID
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	serializers.Reset()
	t.Cleanup(serializers.Reset)
	serializers.Bootstrap()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range routerSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	userID := uuid.New()
	auth := &fakeAuthService{userID: userID}

	courseRepo := repos.NewCourseRepo(db, log)
	moduleRepo := repos.NewModuleRepo(db, log)
	lessonRepo := repos.NewLessonRepo(db, log)

	courseService := services.NewCourseService(db, log, courseRepo, repos.NewEnrollmentRepo(db, log))
	moduleService := services.NewModuleService(db, log, moduleRepo, courseRepo)
	lessonService := services.NewLessonService(db, log, lessonRepo, moduleRepo, courseRepo)
	quizService := services.NewQuizService(db, log,
		repos.NewQuizRepo(db, log), repos.NewQuizQuestionRepo(db, log), lessonRepo, courseRepo)
	ratingService := services.NewRatingService(db, log, repos.NewRatingRepo(db, log), courseRepo)
	questionService := services.NewQuestionService(db, log, repos.NewQuestionRepo(db, log), courseRepo)
	answerService := services.NewAnswerService(db, log, repos.NewAnswerRepo(db, log), courseRepo)
	actionService := services.NewActionService(db, log, repos.NewActionRepo(db, log), courseRepo)
	noteService := services.NewNoteService(db, log, repos.NewNoteRepo(db, log), lessonRepo, courseRepo)

	router := NewRouter(RouterConfig{
		ServiceName:     "coursemart-test",
		AuthHandler:     handlers.NewAuthHandler(log, auth),
		AuthMiddleware:  middleware.NewAuthMiddleware(log, auth),
		CourseHandler:   handlers.NewCourseHandler(log, db, courseService),
		ModuleHandler:   handlers.NewModuleHandler(log, db, moduleService),
		LessonHandler:   handlers.NewLessonHandler(log, db, lessonService),
		QuizHandler:     handlers.NewQuizHandler(log, db, quizService),
		RatingHandler:   handlers.NewRatingHandler(log, db, ratingService),
		QuestionHandler: handlers.NewQuestionHandler(log, db, questionService),
		AnswerHandler:   handlers.NewAnswerHandler(log, db, answerService),
		ActionHandler:   handlers.NewActionHandler(log, db, actionService),
		NoteHandler:     handlers.NewNoteHandler(log, db, noteService),
		CartHandler:     handlers.NewCartHandler(log, db, &fakeCartService{}),
	})

	return &routerFixture{db: db, router: router, userID: userID}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodPost, "/api/register", "", map[string]any{
		"email": "ada@example.com", "password": "correct horse",
		"first_name": "Ada", "last_name": "Lovelace",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeObject(t, w); body["email"] != "ada@example.com" {
		t.Fatalf("unexpected register body %v", body)
	}

	w = f.do(t, http.MethodPost, "/api/login", "", map[string]any{
		"email": "ada@example.com", "password": "correct horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeObject(t, w)
	if body["access_token"] != testToken || body["refresh_token"] == "" {
		t.Fatalf("unexpected login body %v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodGet, "/api/courses", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
	if body := decodeObject(t, w); body["detail"] != "missing or invalid token" {
		t.Fatalf("unexpected body %v", body)
	}

	w = f.do(t, http.MethodGet, "/api/courses", "forged-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}
}

func TestCourseCRUD(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(t, http.MethodPost, "/api/courses?fields=id,title,published", testToken, map[string]any{
		"title": "Go in Practice", "price_cents": 4900, "published": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeObject(t, w); body["title"] != "Go in Practice" {
		t.Fatalf("unexpected create body %v", body)
	}

	// ids are generated by the database; read the row back for them
	var course types.Course
	if err := f.db.Where("title = ?", "Go in Practice").First(&course).Error; err != nil {
		t.Fatalf("load created course: %v", err)
	}
	if course.InstructorID != f.userID {
		t.Fatalf("instructor not taken from the token: %v", course.InstructorID)
	}

	w = f.do(t, http.MethodGet, "/api/courses?fields=id,title", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rows := decodeList(t, w); len(rows) != 1 || rows[0]["title"] != "Go in Practice" {
		t.Fatalf("unexpected listing %v", rows)
	}

	w = f.do(t, http.MethodGet, "/api/courses/"+course.ID.String()+"?fields=id,title,published", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeObject(t, w); body["published"] != true {
		t.Fatalf("unexpected get body %v", body)
	}

	w = f.do(t, http.MethodPatch, "/api/courses/"+course.ID.String()+"?fields=id,title", testToken, map[string]any{
		"title": "Go in Anger",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeObject(t, w); body["title"] != "Go in Anger" {
		t.Fatalf("unexpected update body %v", body)
	}

	w = f.do(t, http.MethodPost, "/api/courses/"+course.ID.String()+"/enroll", testToken, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("enroll: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeObject(t, w); body["course_id"] != course.ID.String() {
		t.Fatalf("unexpected enroll body %v", body)
	}

	w = f.do(t, http.MethodDelete, "/api/courses/"+course.ID.String(), testToken, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/courses/"+course.ID.String()+"?fields=id,title", testToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", w.Code)
	}
	if body := decodeObject(t, w); body["detail"] != "Not found." {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestActionFlow(t *testing.T) {
	f := newRouterFixture(t)
	course := &types.Course{ID: uuid.New(), InstructorID: f.userID, Title: "Go", Published: true}
	if err := f.db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	base := "/api/courses/" + course.ID.String() + "/actions"

	w := f.do(t, http.MethodPost, base+"?fields=id,action", testToken, map[string]any{
		"action": 1,
		"content_object": map[string]any{"model": "course", "object_id": course.ID.String()},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// a target that does not exist reads as absent
	w = f.do(t, http.MethodPost, base, testToken, map[string]any{
		"action": 1,
		"content_object": map[string]any{"model": "course", "object_id": uuid.NewString()},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("absent target: expected 404, got %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, base+"?fields=id,action", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rows := decodeList(t, w); len(rows) != 1 || rows[0]["action"] != float64(1) {
		t.Fatalf("unexpected actions %v", rows)
	}

	var row types.Action
	if err := f.db.Where("course_id = ?", course.ID).First(&row).Error; err != nil {
		t.Fatalf("load action: %v", err)
	}

	// someone else's action id reads as absent on delete
	other := uuid.New()
	if err := f.db.Create(&types.Action{
		ID: other, CreatorID: uuid.New(), CourseID: course.ID,
		ContentType: "course", ContentID: course.ID, Action: 2,
	}).Error; err != nil {
		t.Fatalf("seed foreign action: %v", err)
	}
	w = f.do(t, http.MethodDelete, "/api/actions/"+other.String(), testToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodDelete, "/api/actions/"+row.ID.String(), testToken, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", w.Code, w.Body.String())
	}
	// only the foreign action survives
	w = f.do(t, http.MethodGet, base+"?fields=id,action", testToken, nil)
	if rows := decodeList(t, w); len(rows) != 1 || rows[0]["action"] != float64(2) {
		t.Fatalf("unexpected actions after delete: %v", rows)
	}
}

func cartCourses(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	body := decodeObject(t, w)
	rows, ok := body["courses"].([]any)
	if !ok {
		t.Fatalf("unexpected cart body %v", body)
	}
	return rows
}

func TestCartRoutes(t *testing.T) {
	f := newRouterFixture(t)
	courseID := uuid.New()

	w := f.do(t, http.MethodPost, "/api/cart", testToken, map[string]any{"course_id": courseID})
	if w.Code != http.StatusNoContent {
		t.Fatalf("add: expected 204, got %d: %s", w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodGet, "/api/cart", testToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	rows := cartCourses(t, w)
	if len(rows) != 1 {
		t.Fatalf("unexpected cart %v", rows)
	}
	if item, _ := rows[0].(map[string]any); item["id"] != courseID.String() {
		t.Fatalf("unexpected cart item %v", rows[0])
	}

	w = f.do(t, http.MethodDelete, "/api/cart", testToken, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear: expected 204, got %d", w.Code)
	}
	w = f.do(t, http.MethodGet, "/api/cart", testToken, nil)
	if rows := cartCourses(t, w); len(rows) != 0 {
		t.Fatalf("cart not cleared: %v", rows)
	}
}
