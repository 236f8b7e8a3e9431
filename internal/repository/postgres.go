package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursebay/internal/model"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, purchased_course_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.PurchasedCourseIDs, user.CreatedAt, user.UpdatedAt)
	return mapError(err)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, purchased_course_ids, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.PurchasedCourseIDs,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, mapError(err)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, purchased_course_ids, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.PurchasedCourseIDs,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, mapError(err)
}

// AddPurchasedCourses unions courseIDs into the user's denormalized
// purchased set. Additive only, never removes entries.
func (s *PostgresStore) AddPurchasedCourses(ctx context.Context, userID string, courseIDs []string) error {
	if len(courseIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET purchased_course_ids = (
			SELECT COALESCE(array_agg(DISTINCT cid), '{}')
			FROM unnest(purchased_course_ids || $2::text[]) AS cid
		), updated_at = now()
		WHERE id = $1
	`, userID, courseIDs)
	return mapError(err)
}

func (s *PostgresStore) CreateAdmin(ctx context.Context, admin model.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (id, first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, admin.ID, admin.FirstName, admin.LastName, admin.Email, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt)
	return mapError(err)
}

func (s *PostgresStore) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, password_hash, created_at, updated_at
		FROM admins
		WHERE email = $1
	`, email)
	err := row.Scan(
		&admin.ID,
		&admin.FirstName,
		&admin.LastName,
		&admin.Email,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	return admin, mapError(err)
}

func (s *PostgresStore) CreateCourse(ctx context.Context, course model.Course) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO courses (id, title, description, price, image_url, image_public_id, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, course.ID, course.Title, course.Description, course.Price, course.Image.URL, course.Image.PublicID, course.CreatorID, course.CreatedAt, course.UpdatedAt)
	return mapError(err)
}

func (s *PostgresStore) GetCourseByID(ctx context.Context, courseID string) (model.Course, error) {
	row := s.pool.QueryRow(ctx, courseSelect+` WHERE id = $1`, courseID)
	return scanCourse(row)
}

func (s *PostgresStore) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx, courseSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, mapError(rows.Err())
}

// UpdateCourseOwned applies the update scoped by (id, creator_id) in a
// single statement, so "missing" and "owned by someone else" are the
// same ErrNotFound to the caller.
func (s *PostgresStore) UpdateCourseOwned(ctx context.Context, courseID, adminID string, update CourseUpdate) (model.Course, error) {
	var row pgx.Row
	if update.Image != nil {
		row = s.pool.QueryRow(ctx, `
			UPDATE courses
			SET title = $1, description = $2, price = $3, image_url = $4, image_public_id = $5, updated_at = now()
			WHERE id = $6 AND creator_id = $7
			RETURNING id, title, description, price, image_url, image_public_id, creator_id, created_at, updated_at
		`, update.Title, update.Description, update.Price, update.Image.URL, update.Image.PublicID, courseID, adminID)
	} else {
		row = s.pool.QueryRow(ctx, `
			UPDATE courses
			SET title = $1, description = $2, price = $3, updated_at = now()
			WHERE id = $4 AND creator_id = $5
			RETURNING id, title, description, price, image_url, image_public_id, creator_id, created_at, updated_at
		`, update.Title, update.Description, update.Price, courseID, adminID)
	}
	return scanCourse(row)
}

func (s *PostgresStore) DeleteCourseOwned(ctx context.Context, courseID, adminID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM courses
		WHERE id = $1 AND creator_id = $2
	`, courseID, adminID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HasPurchase(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = $1 AND course_id = $2)
	`, userID, courseID).Scan(&exists)
	return exists, mapError(err)
}

func (s *PostgresStore) ListPurchasedCourses(ctx context.Context, userID string) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.title, c.description, c.price, c.image_url, c.image_public_id, c.creator_id, c.created_at, c.updated_at
		FROM purchases p
		JOIN courses c ON c.id = p.course_id
		WHERE p.user_id = $1
		ORDER BY p.created_at
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, mapError(rows.Err())
}

// CreateOrder writes the order and the purchase entitlement in one
// transaction and folds the new course id into the user's denormalized
// set. The unique (user_id, course_id) index is the duplicate guard.
func (s *PostgresStore) CreateOrder(ctx context.Context, order model.Order, purchase model.Purchase) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO purchases (id, user_id, course_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, purchase.ID, purchase.UserID, purchase.CourseID, purchase.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, course_id, payment_id, amount_cents, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.UserID, order.CourseID, order.PaymentID, order.AmountCents, order.Currency, order.Status, order.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET purchased_course_ids = (
			SELECT COALESCE(array_agg(DISTINCT cid), '{}')
			FROM unnest(purchased_course_ids || $2::text[]) AS cid
		), updated_at = now()
		WHERE id = $1
	`, purchase.UserID, []string{purchase.CourseID})
	if err != nil {
		return mapError(err)
	}

	return mapError(tx.Commit(ctx))
}

const courseSelect = `
	SELECT id, title, description, price, image_url, image_public_id, creator_id, created_at, updated_at
	FROM courses`

func scanCourse(row pgx.Row) (model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Price,
		&course.Image.URL,
		&course.Image.PublicID,
		&course.CreatorID,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	return course, mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
