package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursebay/internal/model"
	"coursebay/internal/repository"
)

type courseRequest struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Price         interface{} `json:"price"`
	ImageURL      string      `json:"imageUrl"`
	ImagePublicID string      `json:"imagePublicId"`
}

// parsePrice accepts a JSON number or a numeric string, matching what
// the browser form sends in either mode.
func parsePrice(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return price, true
	default:
		return 0, false
	}
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	adminID := principalFromContext(r.Context())

	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	var messages []string
	if strings.TrimSpace(req.Title) == "" {
		messages = append(messages, "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		messages = append(messages, "description is required")
	}
	price, ok := parsePrice(req.Price)
	if !ok || price <= 0 {
		messages = append(messages, "price must be a number greater than 0")
	}
	if req.ImageURL == "" || req.ImagePublicID == "" {
		messages = append(messages, "image must be uploaded first")
	}
	if len(messages) > 0 {
		writeValidationError(w, messages)
		return
	}

	now := time.Now().UTC()
	course := model.Course{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       price,
		Image: model.Image{
			URL:      req.ImageURL,
			PublicID: req.ImagePublicID,
		},
		CreatorID: adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateCourse(r.Context(), course); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateCatalog(r.Context(), course.ID)
	writeJSON(w, http.StatusCreated, course)
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	adminID := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "missing_course_id")
		return
	}

	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	var messages []string
	if strings.TrimSpace(req.Title) == "" {
		messages = append(messages, "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		messages = append(messages, "description is required")
	}
	price, ok := parsePrice(req.Price)
	if !ok || price <= 0 {
		messages = append(messages, "price must be a number greater than 0")
	}
	if len(messages) > 0 {
		writeValidationError(w, messages)
		return
	}

	update := repository.CourseUpdate{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       price,
	}
	// Image fields are optional on update; both must be present to
	// replace the stored image.
	if req.ImageURL != "" && req.ImagePublicID != "" {
		update.Image = &model.Image{
			URL:      req.ImageURL,
			PublicID: req.ImagePublicID,
		}
	}

	course, err := s.store.UpdateCourseOwned(r.Context(), courseID, adminID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found_or_forbidden")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateCatalog(r.Context(), course.ID)
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	adminID := principalFromContext(r.Context())
	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "missing_course_id")
		return
	}

	if err := s.store.DeleteCourseOwned(r.Context(), courseID, adminID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found_or_forbidden")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.invalidateCatalog(r.Context(), courseID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	if courses, ok := s.cachedCourseList(r.Context()); ok {
		writeJSON(w, http.StatusOK, courses)
		return
	}

	courses, err := s.store.ListCourses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.storeCourseList(r.Context(), courses)
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleCourseDetail(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "missing_course_id")
		return
	}

	if course, ok := s.cachedCourse(r.Context(), courseID); ok {
		writeJSON(w, http.StatusOK, course)
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

	s.storeCourse(r.Context(), course)
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no_file_uploaded")
		return
	}
	defer file.Close()

	asset, err := s.uploads.UploadImage(r.Context(), file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload_failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":      asset.URL,
		"publicId": asset.PublicID,
	})
}
