package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/cache"
	"coursemart/internal/logger"
	"coursemart/internal/repos"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

type CartService interface {
	List(ctx context.Context, ins *serializer.Instance) ([]map[string]any, error)
	Add(ctx context.Context, courseID uuid.UUID) error
	Remove(ctx context.Context, courseID uuid.UUID) error
	Clear(ctx context.Context) error
}

type cartService struct {
	db         *gorm.DB
	log        *logger.Logger
	store      *cache.CartStore
	courseRepo repos.CourseRepo
}

func NewCartService(db *gorm.DB, log *logger.Logger, store *cache.CartStore, courseRepo repos.CourseRepo) CartService {
	return &cartService{
		db:         db,
		log:        log.With("service", "CartService"),
		store:      store,
		courseRepo: courseRepo,
	}
}

// List resolves the cart's course ids against postgres and renders the
// surviving courses. Ids whose course has gone away are dropped from the cart.
func (cs *cartService) List(ctx context.Context, ins *serializer.Instance) ([]map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := cs.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []map[string]any{}, nil
	}
	q := ins.Optimize(cs.courseRepo.Query(ctx, nil)).Where(`"course"."id" IN ?`, ids)
	var rows []*types.Course
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	found := map[uuid.UUID]bool{}
	for _, c := range rows {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			if err := cs.store.Remove(ctx, userID, id); err != nil {
				cs.log.Warn("failed to prune stale cart entry", "user_id", userID, "course_id", id, "error", err)
			}
		}
	}
	return ins.RepresentMany(rows)
}

func (cs *cartService) Add(ctx context.Context, courseID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return apierr.Translate(err)
	}
	if !course.Published {
		return apierr.NotFound("course_not_found", fmt.Errorf("no course with id %s", courseID))
	}
	if course.InstructorID == userID {
		return apierr.ValidationError{"course_id": "you cannot buy your own course"}
	}
	return cs.store.Add(ctx, userID, courseID)
}

func (cs *cartService) Remove(ctx context.Context, courseID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	return cs.store.Remove(ctx, userID, courseID)
}

func (cs *cartService) Clear(ctx context.Context) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	return cs.store.Clear(ctx, userID)
}
