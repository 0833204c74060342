// Package generic resolves (model name, object id) pairs against an
// allow-list of entity types and serializes the resolved target back through
// the matching registered serializer. Matching is explicit type-tag lookup in
// both directions; nothing is inferred from which schema happens to accept a
// payload.
package generic

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/serializer"
)

type Entry struct {
	Tag           string     // lowercased model name used on the wire
	New           func() any // fresh model instance, pointer
	Table         string
	SerializerTag string
}

var (
	mu     sync.RWMutex
	byTag  = map[string]Entry{}
	byType = map[reflect.Type]Entry{}
)

// Register adds an allow-listed target type. Call at startup.
func Register(e Entry) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := byTag[e.Tag]; dup {
		panic(fmt.Sprintf("generic: duplicate tag %q", e.Tag))
	}
	t := reflect.TypeOf(e.New())
	byTag[e.Tag] = e
	byType[t] = e
}

// Reset drops all registrations. Test hook.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	byTag = map[string]Entry{}
	byType = map[reflect.Type]Entry{}
}

// LookupTag reports whether the model name is allow-listed.
func LookupTag(tag string) (Entry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := byTag[tag]
	return e, ok
}

// Resolve loads the target row for a (model, id) pair. A missing model name
// or nil id is a validation failure; an unknown model or absent row is
// not-found.
func Resolve(tx *gorm.DB, tag string, id uuid.UUID) (any, error) {
	if tag == "" {
		return nil, apierr.ValidationError{"content_object": "model is required"}
	}
	if id == uuid.Nil {
		return nil, apierr.ValidationError{"content_object": "object_id is required"}
	}
	e, ok := LookupTag(tag)
	if !ok {
		return nil, apierr.NotFound("unknown_model", fmt.Errorf("no registered model named %q", tag))
	}
	target := e.New()
	if err := tx.Table(e.Table).Where("id = ?", id).First(target).Error; err != nil {
		if translated := apierr.Translate(err); translated == apierr.ErrNotFound {
			return nil, apierr.NotFound("target_not_found",
				fmt.Errorf("no %s with id %s", tag, id))
		}
		return nil, err
	}
	return target, nil
}

// Represent serializes a resolved target row through its registered
// serializer. The row's concrete type must be allow-listed; there is no
// ancestry walk.
func Represent(c *serializer.Context, row any) (map[string]any, error) {
	mu.RLock()
	e, ok := byType[reflect.TypeOf(row)]
	mu.RUnlock()
	if !ok {
		return nil, apierr.ValidationError{
			"content_object": fmt.Sprintf("unserializable target type %T", row),
		}
	}
	ins, err := serializer.New(e.SerializerTag, &serializer.Context{
		Ctx:     c.Ctx,
		DB:      c.DB,
		ActorID: c.ActorID,
	})
	if err != nil {
		return nil, err
	}
	out, err := ins.Represent(row)
	if err != nil {
		return nil, err
	}
	out["model"] = e.Tag
	return out, nil
}
