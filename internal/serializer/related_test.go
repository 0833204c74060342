package serializer

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"coursemart/internal/apierr"
)

func authorWithPosts(n int) *testAuthor {
	a := &testAuthor{ID: uuid.New(), Name: "Ada"}
	for i := 0; i < n; i++ {
		a.Posts = append(a.Posts, &testPost{
			ID:       uuid.New(),
			AuthorID: a.ID,
			Title:    fmt.Sprintf("post %d", i+1),
		})
	}
	return a
}

func TestRelatedSinglePageIsBareList(t *testing.T) {
	registerTestDefs(t)
	ins, err := New("author", testCtx("fields[posts]=id,title"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := ins.Represent(authorWithPosts(5))
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	results, ok := out["posts"].([]map[string]any)
	if !ok {
		t.Fatalf("expected bare list, got %T", out["posts"])
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 posts, got %d", len(results))
	}
	if results[0]["title"] != "post 1" {
		t.Fatalf("unexpected first post %v", results[0])
	}
	if _, ok := results[0]["body"]; ok {
		t.Fatalf("nested restriction ignored: %v", results[0])
	}
}

func TestRelatedMultiPageEnvelope(t *testing.T) {
	registerTestDefs(t)
	ins, err := New("author", testCtx("fields[posts]=id,title,page_size(10),page(2)"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := ins.Represent(authorWithPosts(25))
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	env, ok := out["posts"].(map[string]any)
	if !ok {
		t.Fatalf("expected envelope, got %T", out["posts"])
	}
	if env["count"] != 25 {
		t.Fatalf("count = %v", env["count"])
	}
	results := env["results"].([]map[string]any)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if results[0]["title"] != "post 11" {
		t.Fatalf("wrong slice start: %v", results[0])
	}

	next, ok := env["next"].(string)
	if !ok {
		t.Fatalf("expected next link, got %v", env["next"])
	}
	nu, err := url.Parse(next)
	if err != nil {
		t.Fatalf("parse next: %v", err)
	}
	if got := nu.Query().Get("fields[posts]"); got != "id,title,page_size(10),page(3)" {
		t.Fatalf("next selector = %q", got)
	}

	// previous points at page 1, whose token is dropped entirely
	prev, ok := env["previous"].(string)
	if !ok {
		t.Fatalf("expected previous link, got %v", env["previous"])
	}
	pu, err := url.Parse(prev)
	if err != nil {
		t.Fatalf("parse previous: %v", err)
	}
	if got := pu.Query().Get("fields[posts]"); got != "id,title,page_size(10)" {
		t.Fatalf("previous selector = %q", got)
	}
}

func TestRelatedFirstAndLastPageLinks(t *testing.T) {
	registerTestDefs(t)
	ins, err := New("author", testCtx("fields[posts]=id,page_size(10)"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := ins.Represent(authorWithPosts(25))
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	env := out["posts"].(map[string]any)
	if env["previous"] != nil {
		t.Fatalf("page 1 has a previous link: %v", env["previous"])
	}
	if env["next"] == nil {
		t.Fatalf("page 1 of 3 missing next link")
	}

	ins, err = New("author", testCtx("fields[posts]=id,page_size(10),page(3)"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err = ins.Represent(authorWithPosts(25))
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	env = out["posts"].(map[string]any)
	if env["next"] != nil {
		t.Fatalf("last page has a next link: %v", env["next"])
	}
	results := env["results"].([]map[string]any)
	if len(results) != 5 {
		t.Fatalf("expected trailing 5 results, got %d", len(results))
	}
}

func TestRelatedPageOutOfRange(t *testing.T) {
	registerTestDefs(t)
	ins, err := New("author", testCtx("fields[posts]=id,page_size(10),page(4)"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = ins.Represent(authorWithPosts(25))
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}
	if ae.Status != 404 {
		t.Fatalf("expected 404, got %d", ae.Status)
	}
}

func TestRelatedPermissionDenied(t *testing.T) {
	registerTestDefs(t)
	postsVisible = func(c *Context, parent any) error { return apierr.ErrForbidden }

	ins, err := New("author", testCtx("fields[posts]=id"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = ins.Represent(authorWithPosts(2))
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error, got %T: %v", err, err)
	}
	if ae.Status != 403 {
		t.Fatalf("expected 403, got %d", ae.Status)
	}
	if ae.Error() != "You do not have permission to use `posts` with this id" {
		t.Fatalf("unexpected message %q", ae.Error())
	}
}

func TestRelatedNotRequestedNotExpanded(t *testing.T) {
	registerTestDefs(t)
	// a failing permission must not matter when the relation is not requested
	postsVisible = func(c *Context, parent any) error { return apierr.ErrForbidden }

	ins, err := New("author", testCtx(""))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := ins.Represent(authorWithPosts(2))
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	if _, ok := out["posts"]; ok {
		t.Fatalf("unrequested relation expanded: %v", out)
	}
}

func TestRelatedRestrictedAwayIsNotTraversed(t *testing.T) {
	registerTestDefs(t)
	postsVisible = func(c *Context, parent any) error { return apierr.ErrForbidden }

	// fields= slices posts away, so the fields[posts] request is inert
	ins, err := New("author", testCtx("fields=id,name&fields[posts]=id"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := ins.Represent(authorWithPosts(2))
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	if _, ok := out["posts"]; ok {
		t.Fatalf("sliced-away relation expanded: %v", out)
	}
}

func TestRelatedToOne(t *testing.T) {
	registerTestDefs(t)
	ins, err := New("post", testCtx("fields[author]=id,name"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	author := &testAuthor{ID: uuid.New(), Name: "Ada", Bio: "hidden"}
	post := &testPost{ID: uuid.New(), AuthorID: author.ID, Title: "t", Author: author}
	out, err := ins.Represent(post)
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	nested, ok := out["author"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested object, got %T", out["author"])
	}
	if nested["name"] != "Ada" {
		t.Fatalf("nested author = %v", nested)
	}
	if _, ok := nested["bio"]; ok {
		t.Fatalf("nested restriction ignored: %v", nested)
	}

	// nil association renders as null, not an error
	out, err = ins.Represent(&testPost{ID: uuid.New(), Title: "orphan"})
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	if out["author"] != nil {
		t.Fatalf("expected nil author, got %v", out["author"])
	}
}

func TestRelatedEmptySelectorUsesDefaults(t *testing.T) {
	registerTestDefs(t)
	ins, err := New("post", testCtx("fields[author]="))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	author := &testAuthor{ID: uuid.New(), Name: "Ada", Bio: "b", Nickname: "n"}
	out, err := ins.Represent(&testPost{ID: uuid.New(), AuthorID: author.ID, Author: author})
	if err != nil {
		t.Fatalf("represent: %v", err)
	}
	nested := out["author"].(map[string]any)
	for _, f := range []string{"id", "name", "bio"} {
		if _, ok := nested[f]; !ok {
			t.Fatalf("default field %q missing: %v", f, nested)
		}
	}
	if _, ok := nested["nickname"]; ok {
		t.Fatalf("non-default field rendered: %v", nested)
	}
}
