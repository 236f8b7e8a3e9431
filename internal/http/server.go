package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"coursebay/internal/auth"
	"coursebay/internal/config"
	"coursebay/internal/media"
	"coursebay/internal/model"
	"coursebay/internal/payment"
	"coursebay/internal/repository"
)

const sessionCookieName = "jwt"

type Server struct {
	cfg     config.Config
	store   repository.Store
	intents payment.IntentCreator
	uploads media.Uploader
	redis   *redis.Client
}

func NewServer(cfg config.Config, store repository.Store, intents payment.IntentCreator, uploads media.Uploader, redisClient *redis.Client) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		intents: intents,
		uploads: uploads,
		redis:   redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/signup", s.handleUserSignup)
			r.Post("/login", s.handleUserLogin)
			r.Post("/logout", s.handleLogout)
			r.With(s.userAuth).Get("/purchases", s.handleListPurchases)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/signup", s.handleAdminSignup)
			r.Post("/login", s.handleAdminLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Route("/course", func(r chi.Router) {
			r.Get("/courses", s.handleListCourses)
			r.Get("/{courseId}", s.handleCourseDetail)
			r.With(s.adminAuth).Post("/", s.handleCreateCourse)
			r.With(s.adminAuth).Post("/upload-image", s.handleUploadImage)
			r.With(s.adminAuth).Put("/update/{courseId}", s.handleUpdateCourse)
			r.With(s.adminAuth).Delete("/delete/{courseId}", s.handleDeleteCourse)
			r.With(s.userAuth).Post("/buy/{courseId}", s.handleBuyCourse)
		})

		r.With(s.userAuth).Post("/order", s.handleCreateOrder)
	})

	return r
}

// userAuth and adminAuth are the same check bound to disjoint secrets,
// so a token of one kind never authorizes a route of the other.
func (s *Server) userAuth(next http.Handler) http.Handler {
	return s.requirePrincipal(s.cfg.JWTUserSecret, next)
}

func (s *Server) adminAuth(next http.Handler) http.Handler {
	return s.requirePrincipal(s.cfg.JWTAdminSecret, next)
}

func (s *Server) requirePrincipal(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication_required")
			return
		}

		claims, err := auth.ParseSessionToken(secret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, claims.PrincipalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type principalKey struct{}

func principalFromContext(ctx context.Context) string {
	id, _ := ctx.Value(principalKey{}).(string)
	return id
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cfg.SessionTTL),
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: http.SameSiteStrictMode,
	})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeValidationError(w http.ResponseWriter, messages []string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":    "validation_failed",
		"messages": messages,
	})
}

const catalogListKey = "catalog:courses"

func catalogCourseKey(courseID string) string {
	return "catalog:course:" + courseID
}

func (s *Server) cachedCourseList(ctx context.Context) ([]model.Course, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, catalogListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var courses []model.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, false
	}
	return courses, true
}

func (s *Server) storeCourseList(ctx context.Context, courses []model.Course) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(courses)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, catalogListKey, raw, s.cfg.CatalogCacheTTL).Err()
}

func (s *Server) cachedCourse(ctx context.Context, courseID string) (model.Course, bool) {
	if s.redis == nil {
		return model.Course{}, false
	}
	raw, err := s.redis.Get(ctx, catalogCourseKey(courseID)).Bytes()
	if err != nil {
		return model.Course{}, false
	}
	var course model.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return model.Course{}, false
	}
	return course, true
}

func (s *Server) storeCourse(ctx context.Context, course model.Course) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(course)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, catalogCourseKey(course.ID), raw, s.cfg.CatalogCacheTTL).Err()
}

func (s *Server) invalidateCatalog(ctx context.Context, courseID string) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, catalogListKey, catalogCourseKey(courseID)).Err()
}
