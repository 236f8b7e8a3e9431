package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"coursebay/internal/auth"
	"coursebay/internal/crypto"
	"coursebay/internal/model"
	"coursebay/internal/repository"
)

type signupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type principalView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type userView struct {
	principalView
	PurchasedCourses []string `json:"purchasedCourses"`
}

func (req *signupRequest) normalize() {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
}

// validateSignup collects every violated field so the caller sees all
// problems at once rather than one per round-trip.
func validateSignup(req signupRequest) []string {
	var messages []string
	if len(req.FirstName) < 3 {
		messages = append(messages, "firstName must be at least 3 characters")
	}
	if len(req.LastName) < 3 {
		messages = append(messages, "lastName must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		messages = append(messages, "email must be a valid address")
	}
	if len(req.Password) < 6 {
		messages = append(messages, "password must be at least 6 characters")
	}
	return messages
}

func (s *Server) handleUserSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.normalize()
	if messages := validateSignup(req); len(messages) > 0 {
		writeValidationError(w, messages)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:                 uuid.NewString(),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		PasswordHash:       hash,
		PurchasedCourseIDs: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "duplicate_email")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, principalView{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
}

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusForbidden, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusForbidden, "invalid_credentials")
		return
	}

	token, err := auth.NewSessionToken(s.cfg.JWTUserSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	purchased := user.PurchasedCourseIDs
	if purchased == nil {
		purchased = []string{}
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user": userView{
			principalView: principalView{
				ID:        user.ID,
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Email:     user.Email,
			},
			PurchasedCourses: purchased,
		},
	})
}

func (s *Server) handleAdminSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.normalize()
	if messages := validateSignup(req); len(messages) > 0 {
		writeValidationError(w, messages)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	admin := model.Admin{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAdmin(r.Context(), admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "duplicate_email")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, principalView{
		ID:        admin.ID,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		Email:     admin.Email,
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	admin, err := s.store.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusForbidden, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusForbidden, "invalid_credentials")
		return
	}

	token, err := auth.NewSessionToken(s.cfg.JWTAdminSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, admin.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"admin": principalView{
			ID:        admin.ID,
			FirstName: admin.FirstName,
			LastName:  admin.LastName,
			Email:     admin.Email,
		},
	})
}

// Sessions are stateless, so logout only clears the cookie; the bearer
// token stays valid until expiry.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
