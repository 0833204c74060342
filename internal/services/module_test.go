package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/repos"
	"coursemart/internal/requestdata"
	"coursemart/internal/serializer"
	"coursemart/internal/serializers"
	"coursemart/internal/types"
)

// sqliteRandomUUID stands in for the uuid-ossp column default used in
// production.
const sqliteRandomUUID = `lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))`

var serviceSchema = []string{
	`CREATE TABLE course (
		id text PRIMARY KEY, instructor_id text NOT NULL,
		title text, description text, price_cents integer, published boolean,
		metadata text, created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE enrollment (
		id text PRIMARY KEY, user_id text NOT NULL, course_id text NOT NULL,
		created_at datetime, updated_at datetime, deleted_at datetime
	)`,
	`CREATE TABLE module (
		id text DEFAULT (` + sqliteRandomUUID + `), course_id text NOT NULL,
		title text, description text, "order" integer,
		created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE lesson (
		id text DEFAULT (` + sqliteRandomUUID + `), module_id text NOT NULL,
		course_id text NOT NULL, title text, content text, metadata text,
		"order" integer, created_at datetime, updated_at datetime, deleted_at datetime,
		PRIMARY KEY (id)
	)`,
}

type moduleFixture struct {
	db         *gorm.DB
	service    ModuleService
	instructor uuid.UUID
	course     *types.Course
}

func newModuleFixture(t *testing.T) *moduleFixture {
	t.Helper()
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
	for _, stmt := range serviceSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	instructor := uuid.New()
	course := &types.Course{ID: uuid.New(), InstructorID: instructor, Title: "Go", Published: true}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	return &moduleFixture{
		db:         db,
		service:    NewModuleService(db, log, repos.NewModuleRepo(db, log), repos.NewCourseRepo(db, log)),
		instructor: instructor,
		course:     course,
	}
}

func (f *moduleFixture) ctx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func (f *moduleFixture) instance(t *testing.T, ctx context.Context, userID uuid.UUID) *serializer.Instance {
	t.Helper()
	u, _ := url.Parse("http://api.test/modules")
	ins, err := serializer.New(serializers.TagModule, &serializer.Context{
		Ctx: ctx, DB: f.db, ActorID: userID, Query: url.Values{}, URL: u,
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	return ins
}

func (f *moduleFixture) create(t *testing.T, title string) map[string]any {
	t.Helper()
	ctx := f.ctx(f.instructor)
	ins := f.instance(t, ctx, f.instructor)
	out, err := f.service.Create(ctx, ins, f.course.ID, map[string]any{"title": title})
	if err != nil {
		t.Fatalf("create module %q: %v", title, err)
	}
	return out
}

// moduleByTitle reads a row back directly; the create path leaves id
// generation to the database.
func (f *moduleFixture) moduleByTitle(t *testing.T, title string) *types.Module {
	t.Helper()
	var m types.Module
	if err := f.db.Where("course_id = ? AND title = ?", f.course.ID, title).First(&m).Error; err != nil {
		t.Fatalf("load module %q: %v", title, err)
	}
	return &m
}

func (f *moduleFixture) titlesInOrder(t *testing.T) []string {
	t.Helper()
	var rows []types.Module
	if err := f.db.Where("course_id = ?", f.course.ID).Order(`"order" ASC`).Find(&rows).Error; err != nil {
		t.Fatalf("load modules: %v", err)
	}
	out := make([]string, 0, len(rows))
	for i, r := range rows {
		if r.Order != i+1 {
			t.Fatalf("orders not contiguous: %q at %d (index %d)", r.Title, r.Order, i)
		}
		out = append(out, r.Title)
	}
	return out
}

func TestModuleCreateAssignsOrder(t *testing.T) {
	f := newModuleFixture(t)

	first := f.create(t, "intro")
	second := f.create(t, "types")

	if first["order"] != 1 || second["order"] != 2 {
		t.Fatalf("expected orders 1 and 2, got %v and %v", first["order"], second["order"])
	}
	if got := f.titlesInOrder(t); len(got) != 2 || got[0] != "intro" || got[1] != "types" {
		t.Fatalf("unexpected sequence %v", got)
	}
}

func TestModuleCreateRejectsClientOrder(t *testing.T) {
	f := newModuleFixture(t)
	ctx := f.ctx(f.instructor)
	ins := f.instance(t, ctx, f.instructor)

	_, err := f.service.Create(ctx, ins, f.course.ID, map[string]any{"title": "t", "order": 3})
	var v apierr.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
	if v["order"] != "Order is automatically generated." {
		t.Fatalf("unexpected message %q", v["order"])
	}
}

func TestModuleCreateRequiresInstructor(t *testing.T) {
	f := newModuleFixture(t)
	stranger := uuid.New()
	ctx := f.ctx(stranger)
	ins := f.instance(t, ctx, stranger)

	_, err := f.service.Create(ctx, ins, f.course.ID, map[string]any{"title": "t"})
	if !errors.Is(err, apierr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestModuleCreateRequiresTitle(t *testing.T) {
	f := newModuleFixture(t)
	ctx := f.ctx(f.instructor)
	ins := f.instance(t, ctx, f.instructor)

	_, err := f.service.Create(ctx, ins, f.course.ID, map[string]any{"description": "d"})
	var v apierr.ValidationError
	if !errors.As(err, &v) || v["title"] == "" {
		t.Fatalf("expected title validation error, got %v", err)
	}
}

func TestModuleMoveReorders(t *testing.T) {
	f := newModuleFixture(t)
	for _, title := range []string{"a", "b", "c", "d"} {
		f.create(t, title)
	}

	ctx := f.ctx(f.instructor)
	if err := f.service.Move(ctx, f.moduleByTitle(t, "d").ID, 2); err != nil {
		t.Fatalf("move: %v", err)
	}

	got := f.titlesInOrder(t)
	want := []string{"a", "d", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence after move = %v, want %v", got, want)
		}
	}
}

func TestModuleMoveBeyondEndRejected(t *testing.T) {
	f := newModuleFixture(t)
	f.create(t, "a")
	f.create(t, "b")

	ctx := f.ctx(f.instructor)
	err := f.service.Move(ctx, f.moduleByTitle(t, "a").ID, 5)
	var v apierr.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
	if v["order"] != "The order can not be greater than last order of the course." {
		t.Fatalf("unexpected message %q", v["order"])
	}
}

func TestModuleDeleteClosesGap(t *testing.T) {
	f := newModuleFixture(t)
	for _, title := range []string{"a", "b", "c"} {
		f.create(t, title)
	}

	ctx := f.ctx(f.instructor)
	if err := f.service.Delete(ctx, f.moduleByTitle(t, "b").ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got := f.titlesInOrder(t)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("sequence after delete = %v", got)
	}
}

func TestModuleListRequiresCourseAccess(t *testing.T) {
	f := newModuleFixture(t)
	f.create(t, "a")

	// unpublish the course; a stranger can no longer list its modules
	if err := f.db.Model(&types.Course{}).Where("id = ?", f.course.ID).
		Update("published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	stranger := uuid.New()
	ctx := f.ctx(stranger)
	ins := f.instance(t, ctx, stranger)
	_, err := f.service.ListByCourse(ctx, ins, f.course.ID)
	if !errors.Is(err, apierr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// the instructor always can
	ctx = f.ctx(f.instructor)
	ins = f.instance(t, ctx, f.instructor)
	rows, err := f.service.ListByCourse(ctx, ins, f.course.ID)
	if err != nil {
		t.Fatalf("list as instructor: %v", err)
	}
	if len(rows) != 1 || rows[0]["title"] != "a" {
		t.Fatalf("unexpected listing %v", rows)
	}
}
