package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/apierr"
	"coursemart/internal/logger"
	"coursemart/internal/repos"
	"coursemart/internal/serializer"
	"coursemart/internal/types"
)

type RatingService interface {
	ListByCourse(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) ([]map[string]any, error)
	Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, ins *serializer.Instance, ratingID uuid.UUID, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, ratingID uuid.UUID) error
}

type ratingService struct {
	db         *gorm.DB
	log        *logger.Logger
	ratingRepo repos.RatingRepo
	courseRepo repos.CourseRepo
}

func NewRatingService(db *gorm.DB, log *logger.Logger, ratingRepo repos.RatingRepo, courseRepo repos.CourseRepo) RatingService {
	return &ratingService{
		db:         db,
		log:        log.With("service", "RatingService"),
		ratingRepo: ratingRepo,
		courseRepo: courseRepo,
	}
}

func (rs *ratingService) ListByCourse(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID) ([]map[string]any, error) {
	if _, err := courseRead(ctx, rs.db, rs.courseRepo, courseID); err != nil {
		return nil, err
	}
	q := ins.Optimize(rs.ratingRepo.Query(ctx, nil)).
		Where(`"rating"."course_id" = ?`, courseID).
		Order(`"rating"."created_at" DESC`)
	var rows []*types.Rating
	if err := q.Find(&rows).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.RepresentMany(rows)
}

func (rs *ratingService) Create(ctx context.Context, ins *serializer.Instance, courseID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	// field permission: rating a course requires enrollment
	payload["course_id"] = courseID.String()
	attrs, err := ins.Deserialize(payload, serializer.OpCreate)
	if err != nil {
		return nil, err
	}
	rating := &types.Rating{}
	if err := serializer.ApplyAttrs(rating, attrs); err != nil {
		return nil, err
	}
	rating.CourseID = courseID
	rating.CreatorID = userID
	if rating.Rate < 1 || rating.Rate > 5 {
		return nil, apierr.ValidationError{"rate": "rate must be between 1 and 5"}
	}
	created, err := rs.ratingRepo.Create(ctx, nil, rating)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(created)
}

func (rs *ratingService) Update(ctx context.Context, ins *serializer.Instance, ratingID uuid.UUID, payload map[string]any) (map[string]any, error) {
	userID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	rating, err := rs.ratingRepo.GetByID(ctx, nil, ratingID)
	if err != nil {
		return nil, apierr.Translate(err)
	}
	if rating.CreatorID != userID {
		return nil, apierr.ErrNotFound
	}
	attrs, err := ins.Deserialize(payload, serializer.OpUpdate)
	if err != nil {
		return nil, err
	}
	if raw, ok := attrs["rate"]; ok {
		if f, ok := raw.(float64); ok && (f < 1 || f > 5) {
			return nil, apierr.ValidationError{"rate": "rate must be between 1 and 5"}
		}
	}
	if len(attrs) > 0 {
		if err := rs.ratingRepo.UpdateFields(ctx, nil, ratingID, attrs); err != nil {
			return nil, apierr.Translate(err)
		}
	}
	q := ins.Optimize(rs.ratingRepo.Query(ctx, nil)).Where(`"rating"."id" = ?`, ratingID)
	var row types.Rating
	if err := q.First(&row).Error; err != nil {
		return nil, apierr.Translate(err)
	}
	return ins.Represent(&row)
}

func (rs *ratingService) Delete(ctx context.Context, ratingID uuid.UUID) error {
	userID, err := actor(ctx)
	if err != nil {
		return err
	}
	rating, err := rs.ratingRepo.GetByID(ctx, nil, ratingID)
	if err != nil {
		return apierr.Translate(err)
	}
	if rating.CreatorID != userID {
		return apierr.ErrNotFound
	}
	return apierr.Translate(rs.ratingRepo.SoftDeleteByID(ctx, nil, ratingID))
}
