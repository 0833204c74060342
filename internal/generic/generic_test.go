package generic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursemart/internal/apierr"
	"coursemart/internal/serializer"
)

type gadget struct {
	ID        uuid.UUID      `gorm:"primaryKey;column:id" json:"id"`
	Name      string         `gorm:"column:name" json:"name"`
	DeletedAt gorm.DeletedAt `json:"-"`
}

func (gadget) TableName() string { return "gadget" }

func setup(t *testing.T) *gorm.DB {
	t.Helper()
	Reset()
	serializer.Reset()
	t.Cleanup(func() {
		Reset()
		serializer.Reset()
	})

	serializer.Register(&serializer.Definition{
		Tag:       "gadget",
		Model:     gadget{},
		Table:     "gadget",
		Fields:    []string{"id", "name"},
		MinFields: []string{"id"},
	})
	Register(Entry{
		Tag:           "gadget",
		Table:         "gadget",
		SerializerTag: "gadget",
		New:           func() any { return &gadget{} },
	})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&gadget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestResolveRoundTrip(t *testing.T) {
	db := setup(t)
	row := &gadget{ID: uuid.New(), Name: "widget"}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := Resolve(db, "gadget", row.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	g, ok := got.(*gadget)
	if !ok {
		t.Fatalf("expected *gadget, got %T", got)
	}
	if g.Name != "widget" {
		t.Fatalf("resolved wrong row: %+v", g)
	}
}

func TestResolveUnknownModel(t *testing.T) {
	db := setup(t)
	_, err := Resolve(db, "sprocket", uuid.New())
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}
	if ae.Status != 404 || ae.Code != "unknown_model" {
		t.Fatalf("unexpected error %+v", ae)
	}
}

func TestResolveMissingTagOrID(t *testing.T) {
	db := setup(t)
	for _, tc := range []struct {
		tag string
		id  uuid.UUID
	}{
		{"", uuid.New()},
		{"gadget", uuid.Nil},
	} {
		_, err := Resolve(db, tc.tag, tc.id)
		var v apierr.ValidationError
		if !errors.As(err, &v) {
			t.Fatalf("expected validation error for (%q, %s), got %T: %v", tc.tag, tc.id, err, err)
		}
		if v["content_object"] == "" {
			t.Fatalf("expected content_object message, got %v", v)
		}
	}
}

func TestResolveAbsentRow(t *testing.T) {
	db := setup(t)
	_, err := Resolve(db, "gadget", uuid.New())
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}
	if ae.Status != 404 || ae.Code != "target_not_found" {
		t.Fatalf("unexpected error %+v", ae)
	}
}

func TestResolveSkipsSoftDeletedRows(t *testing.T) {
	db := setup(t)
	row := &gadget{ID: uuid.New(), Name: "widget"}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Delete(row).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := Resolve(db, "gadget", row.ID)
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != "target_not_found" {
		t.Fatalf("expected target_not_found, got %v", err)
	}
}

func TestRepresentAddsModelDiscriminant(t *testing.T) {
	db := setup(t)
	row := &gadget{ID: uuid.New(), Name: "widget"}

	out, err := Represent(&serializer.Context{Ctx: context.Background(), DB: db}, row)
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	if out["model"] != "gadget" {
		t.Fatalf("missing model tag: %v", out)
	}
	if out["name"] != "widget" {
		t.Fatalf("fields not rendered: %v", out)
	}
}

func TestRepresentUnregisteredType(t *testing.T) {
	db := setup(t)
	type stranger struct{ ID uuid.UUID }

	_, err := Represent(&serializer.Context{Ctx: context.Background(), DB: db}, &stranger{})
	var v apierr.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}
}
