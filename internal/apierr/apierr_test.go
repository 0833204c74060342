package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	if Translate(nil) != nil {
		t.Fatalf("nil must pass through")
	}
	if got := Translate(gorm.ErrRecordNotFound); !errors.Is(got, ErrNotFound) {
		t.Fatalf("record-not-found = %v", got)
	}
	if got := Translate(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)); !errors.Is(got, ErrNotFound) {
		t.Fatalf("wrapped record-not-found = %v", got)
	}

	pgDup := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	if got := Translate(pgDup); !errors.Is(got, ErrDuplicate) {
		t.Fatalf("pg 23505 = %v", got)
	}
	if got := Translate(fmt.Errorf("insert: %w", pgDup)); !errors.Is(got, ErrDuplicate) {
		t.Fatalf("wrapped pg 23505 = %v", got)
	}
	sqliteDup := errors.New("UNIQUE constraint failed: action.creator_id")
	if got := Translate(sqliteDup); !errors.Is(got, ErrDuplicate) {
		t.Fatalf("sqlite unique = %v", got)
	}

	other := errors.New("disk on fire")
	if got := Translate(other); got != other {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
	pgOther := &pgconn.PgError{Code: "23503"}
	if got := Translate(pgOther); errors.Is(got, ErrDuplicate) {
		t.Fatalf("non-unique pg error folded: %v", got)
	}
}

func TestErrorMessage(t *testing.T) {
	e := NotFound("course_not_found", fmt.Errorf("no course"))
	if e.Status != 404 || e.Error() != "no course" {
		t.Fatalf("unexpected %d %q", e.Status, e.Error())
	}
	if !errors.Is(e, e.Err) {
		t.Fatalf("unwrap broken")
	}

	e = &Error{Status: 403, Code: "forbidden"}
	if e.Error() != "forbidden" {
		t.Fatalf("code fallback broken: %q", e.Error())
	}
	e = &Error{Status: 500}
	if e.Error() != "api error (500)" {
		t.Fatalf("status fallback broken: %q", e.Error())
	}
}

func TestValidationErrorDeterministicMessage(t *testing.T) {
	v := ValidationError{"b": "two", "a": "one"}
	if v.Error() != "a: one; b: two" {
		t.Fatalf("unexpected message %q", v.Error())
	}
}
