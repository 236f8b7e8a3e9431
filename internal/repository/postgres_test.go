package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursebay/internal/model"
)

// Requires a database with migrations/001_init.sql applied; skipped
// otherwise.
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("COURSEBAY_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("COURSEBAY_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	return pool
}

func testUser(email string) model.User {
	now := time.Now().UTC()
	return model.User{
		ID:                 uuid.NewString(),
		FirstName:          "Ann",
		LastName:           "Lee",
		Email:              email,
		PasswordHash:       "hash",
		PurchasedCourseIDs: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func testAdmin(email string) model.Admin {
	now := time.Now().UTC()
	return model.Admin{
		ID:           uuid.NewString(),
		FirstName:    "Ada",
		LastName:     "Law",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testCourse(creatorID string) model.Course {
	now := time.Now().UTC()
	return model.Course{
		ID:          uuid.NewString(),
		Title:       "Go 101",
		Description: "an introduction",
		Price:       20,
		Image:       model.Image{URL: "https://cdn.example/go101.png", PublicID: "course-thumbnails/go101"},
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUserUniqueEmail(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	store := NewPostgresStore(pool)
	ctx := context.Background()

	email := uuid.NewString() + "@example.local"
	if err := store.CreateUser(ctx, testUser(email)); err != nil {
		t.Fatalf("create user: %v", err)
	}
	err := store.CreateUser(ctx, testUser(email))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != email {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestCourseOwnershipScope(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	store := NewPostgresStore(pool)
	ctx := context.Background()

	owner := testAdmin(uuid.NewString() + "@example.local")
	other := testAdmin(uuid.NewString() + "@example.local")
	if err := store.CreateAdmin(ctx, owner); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if err := store.CreateAdmin(ctx, other); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	course := testCourse(owner.ID)
	if err := store.CreateCourse(ctx, course); err != nil {
		t.Fatalf("create course: %v", err)
	}

	update := CourseUpdate{Title: "Hijacked", Description: "x", Price: 1}
	if _, err := store.UpdateCourseOwned(ctx, course.ID, other.ID, update); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner update, got %v", err)
	}
	if err := store.DeleteCourseOwned(ctx, course.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner delete, got %v", err)
	}

	got, err := store.GetCourseByID(ctx, course.ID)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if got.Title != course.Title {
		t.Fatalf("course changed by non-owner: %+v", got)
	}

	updated, err := store.UpdateCourseOwned(ctx, course.ID, owner.ID, CourseUpdate{Title: "Go 102", Description: "deeper", Price: 25})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Go 102" || updated.Price != 25 {
		t.Fatalf("owner update not applied: %+v", updated)
	}
	if updated.Image.URL != course.Image.URL {
		t.Fatalf("image should be retained when update omits it")
	}

	if err := store.DeleteCourseOwned(ctx, course.ID, owner.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestPurchaseUniquePair(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	store := NewPostgresStore(pool)
	ctx := context.Background()

	admin := testAdmin(uuid.NewString() + "@example.local")
	user := testUser(uuid.NewString() + "@example.local")
	if err := store.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	course := testCourse(admin.ID)
	if err := store.CreateCourse(ctx, course); err != nil {
		t.Fatalf("create course: %v", err)
	}

	now := time.Now().UTC()
	order := model.Order{
		ID: uuid.NewString(), UserID: user.ID, CourseID: course.ID,
		PaymentID: "pi_test", AmountCents: 2000, Currency: "usd",
		Status: "paid", CreatedAt: now,
	}
	purchase := model.Purchase{ID: uuid.NewString(), UserID: user.ID, CourseID: course.ID, CreatedAt: now}
	if err := store.CreateOrder(ctx, order, purchase); err != nil {
		t.Fatalf("create order: %v", err)
	}

	dup := model.Purchase{ID: uuid.NewString(), UserID: user.ID, CourseID: course.ID, CreatedAt: now}
	order.ID = uuid.NewString()
	if err := store.CreateOrder(ctx, order, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	has, err := store.HasPurchase(ctx, user.ID, course.ID)
	if err != nil || !has {
		t.Fatalf("expected purchase to exist, got %v %v", has, err)
	}

	courses, err := store.ListPurchasedCourses(ctx, user.ID)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != course.ID {
		t.Fatalf("expected exactly one purchased course, got %v", courses)
	}

	reloaded, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(reloaded.PurchasedCourseIDs) != 1 || reloaded.PurchasedCourseIDs[0] != course.ID {
		t.Fatalf("denormalized set not updated: %v", reloaded.PurchasedCourseIDs)
	}
}
