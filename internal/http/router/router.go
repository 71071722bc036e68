package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"travelwatch/internal/health"
	"travelwatch/internal/http/handler"
	"travelwatch/internal/http/middleware"
	"travelwatch/internal/http/response"
	"travelwatch/internal/security"
)

type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	RecordHandler   *handler.RecordHandler
	ExternalHandler *handler.ExternalHandler
	JWTManager      *security.JWTManager
	APIKey          string
	CORSOrigins     []string
	RequestTimeout  time.Duration

	AuthRateLimitRPM int
	APIRateLimitRPM  int
	AuthRateLimiter  func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

// NewRouter declares every route's gate chain. Gates run left to right
// and the first rejection wins: service key, then bearer token, then
// request shape. Auth routes sit in front of the service-key gate
// because they are how a token is obtained.
func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(dep.RequestTimeout))
	}
	r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	serviceKey := middleware.ServiceKey(dep.APIKey)
	bearer := middleware.Auth(dep.JWTManager)

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter)
		r.Post("/signup", dep.AuthHandler.Signup)
		r.Post("/login", dep.AuthHandler.Login)
		r.With(bearer).Get("/me", dep.AuthHandler.Me)
		r.Get("/google", dep.AuthHandler.GoogleLogin)
		r.Get("/google/callback", dep.AuthHandler.GoogleCallback)
	})

	r.Route("/api/external", func(r chi.Router) {
		r.Use(serviceKey)
		r.Get("/covid/{country}", dep.ExternalHandler.Covid)
		r.Get("/travel/{country}", dep.ExternalHandler.Travel)
	})

	r.Route("/records", func(r chi.Router) {
		r.Use(serviceKey)
		r.Use(bearer)
		r.With(middleware.RequireRecordShape).Post("/", dep.RecordHandler.Create)
		r.Get("/", dep.RecordHandler.List)
		r.With(middleware.RequireRecordShape).Put("/{id}", dep.RecordHandler.Update)
		r.Delete("/{id}", dep.RecordHandler.Delete)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
