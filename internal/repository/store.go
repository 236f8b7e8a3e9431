package repository

import (
	"context"
	"errors"

	"coursebay/internal/model"
)

var (
	// ErrNotFound covers both a missing row and an ownership filter
	// that matched nothing; callers must not distinguish the two.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate maps a store-level unique constraint violation
	// (email per principal table, (user_id, course_id) on purchases).
	ErrDuplicate = errors.New("repository: duplicate")
)

// CourseUpdate carries the replacement fields for an ownership-scoped
// course update. A nil Image keeps the stored image unchanged.
type CourseUpdate struct {
	Title       string
	Description string
	Price       float64
	Image       *model.Image
}

type Store interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	AddPurchasedCourses(ctx context.Context, userID string, courseIDs []string) error

	CreateAdmin(ctx context.Context, admin model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (model.Admin, error)

	CreateCourse(ctx context.Context, course model.Course) error
	GetCourseByID(ctx context.Context, courseID string) (model.Course, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	UpdateCourseOwned(ctx context.Context, courseID, adminID string, update CourseUpdate) (model.Course, error)
	DeleteCourseOwned(ctx context.Context, courseID, adminID string) error

	HasPurchase(ctx context.Context, userID, courseID string) (bool, error)
	ListPurchasedCourses(ctx context.Context, userID string) ([]model.Course, error)
	CreateOrder(ctx context.Context, order model.Order, purchase model.Purchase) error
}
