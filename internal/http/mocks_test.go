package http

import (
	"context"
	"errors"
	"io"
	"sync"

	"coursebay/internal/media"
	"coursebay/internal/model"
	"coursebay/internal/payment"
	"coursebay/internal/repository"
)

// memStore implements repository.Store with the same uniqueness
// semantics the schema enforces.
type memStore struct {
	mu        sync.Mutex
	users     map[string]model.User
	admins    map[string]model.Admin
	courses   map[string]model.Course
	purchases []model.Purchase
	orders    []model.Order
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]model.User{},
		admins:  map[string]model.Admin{},
		courses: map[string]model.Course{},
	}
}

func (m *memStore) CreateUser(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, userID string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *memStore) AddPurchasedCourses(_ context.Context, userID string, courseIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addPurchasedLocked(userID, courseIDs)
}

func (m *memStore) addPurchasedLocked(userID string, courseIDs []string) error {
	user, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, courseID := range courseIDs {
		found := false
		for _, existing := range user.PurchasedCourseIDs {
			if existing == courseID {
				found = true
				break
			}
		}
		if !found {
			user.PurchasedCourseIDs = append(user.PurchasedCourseIDs, courseID)
		}
	}
	m.users[userID] = user
	return nil
}

func (m *memStore) CreateAdmin(_ context.Context, admin model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admins {
		if existing.Email == admin.Email {
			return repository.ErrDuplicate
		}
	}
	m.admins[admin.ID] = admin
	return nil
}

func (m *memStore) GetAdminByEmail(_ context.Context, email string) (model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, admin := range m.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return model.Admin{}, repository.ErrNotFound
}

func (m *memStore) CreateCourse(_ context.Context, course model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[course.ID] = course
	return nil
}

func (m *memStore) GetCourseByID(_ context.Context, courseID string) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[courseID]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	return course, nil
}

func (m *memStore) ListCourses(_ context.Context) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	courses := []model.Course{}
	for _, course := range m.courses {
		courses = append(courses, course)
	}
	return courses, nil
}

func (m *memStore) UpdateCourseOwned(_ context.Context, courseID, adminID string, update repository.CourseUpdate) (model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[courseID]
	if !ok || course.CreatorID != adminID {
		return model.Course{}, repository.ErrNotFound
	}
	course.Title = update.Title
	course.Description = update.Description
	course.Price = update.Price
	if update.Image != nil {
		course.Image = *update.Image
	}
	m.courses[courseID] = course
	return course, nil
}

func (m *memStore) DeleteCourseOwned(_ context.Context, courseID, adminID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[courseID]
	if !ok || course.CreatorID != adminID {
		return repository.ErrNotFound
	}
	delete(m.courses, courseID)
	return nil
}

func (m *memStore) HasPurchase(_ context.Context, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasPurchaseLocked(userID, courseID), nil
}

func (m *memStore) hasPurchaseLocked(userID, courseID string) bool {
	for _, purchase := range m.purchases {
		if purchase.UserID == userID && purchase.CourseID == courseID {
			return true
		}
	}
	return false
}

func (m *memStore) ListPurchasedCourses(_ context.Context, userID string) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	courses := []model.Course{}
	for _, purchase := range m.purchases {
		if purchase.UserID != userID {
			continue
		}
		if course, ok := m.courses[purchase.CourseID]; ok {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (m *memStore) CreateOrder(_ context.Context, order model.Order, purchase model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasPurchaseLocked(purchase.UserID, purchase.CourseID) {
		return repository.ErrDuplicate
	}
	m.purchases = append(m.purchases, purchase)
	m.orders = append(m.orders, order)
	return m.addPurchasedLocked(purchase.UserID, []string{purchase.CourseID})
}

type fakeIntents struct {
	err error
}

var _ payment.IntentCreator = (*fakeIntents)(nil)

func (f *fakeIntents) CreateIntent(_ context.Context, amountCents int64, currency string) (payment.Intent, error) {
	if f.err != nil {
		return payment.Intent{}, f.err
	}
	if amountCents <= 0 || currency == "" {
		return payment.Intent{}, errors.New("fake intents: bad request")
	}
	return payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

type fakeUploader struct {
	err error
}

var _ media.Uploader = (*fakeUploader)(nil)

func (f *fakeUploader) UploadImage(_ context.Context, file io.Reader) (media.Asset, error) {
	if f.err != nil {
		return media.Asset{}, f.err
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return media.Asset{}, err
	}
	return media.Asset{URL: "https://cdn.example/course-thumbnails/test.png", PublicID: "course-thumbnails/test"}, nil
}
