package http

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursebay/internal/model"
	"coursebay/internal/repository"
)

func (s *Server) handleBuyCourse(w http.ResponseWriter, r *http.Request) {
	userID := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "missing_course_id")
		return
	}

	course, err := s.store.GetCourseByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Fast pre-check for the caller; the unique (user_id, course_id)
	// index on purchases is the guard that holds under races.
	purchased, err := s.store.HasPurchase(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if purchased {
		writeError(w, http.StatusBadRequest, "already_purchased")
		return
	}

	intent, err := s.intents.CreateIntent(r.Context(), minorUnits(course.Price), s.cfg.Currency)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "payment_provider_error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"course":       course,
		"clientSecret": intent.ClientSecret,
	})
}

type createOrderRequest struct {
	CourseID  string `json:"courseId"`
	PaymentID string `json:"paymentId"`
}

type orderView struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	PaymentID string    `json:"paymentId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleCreateOrder records a payment the client reports as settled and
// writes the purchase entitlement with it.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := principalFromContext(r.Context())

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "missing_course_id")
		return
	}

	course, err := s.store.GetCourseByID(r.Context(), req.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now().UTC()
	order := model.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		CourseID:    course.ID,
		PaymentID:   req.PaymentID,
		AmountCents: minorUnits(course.Price),
		Currency:    s.cfg.Currency,
		Status:      "paid",
		CreatedAt:   now,
	}
	purchase := model.Purchase{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  course.ID,
		CreatedAt: now,
	}
	if err := s.store.CreateOrder(r.Context(), order, purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "already_purchased")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, orderView{
		ID:        order.ID,
		CourseID:  order.CourseID,
		PaymentID: order.PaymentID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	})
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	userID := principalFromContext(r.Context())

	courses, err := s.store.ListPurchasedCourses(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Reconcile the denormalized set on the user record; additive only.
	if len(courses) > 0 {
		courseIDs := make([]string, 0, len(courses))
		for _, course := range courses {
			courseIDs = append(courseIDs, course.ID)
		}
		if err := s.store.AddPurchasedCourses(r.Context(), userID, courseIDs); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	writeJSON(w, http.StatusOK, courses)
}

func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
