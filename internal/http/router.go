package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rayus223/backend/internal/domain/user"
	"github.com/Rayus223/backend/internal/http/handlers"
	"github.com/Rayus223/backend/internal/http/metrics"
	httpmw "github.com/Rayus223/backend/internal/http/middleware"
)

type RouterDependencies struct {
	VacancyHandler     *handlers.VacancyHandler
	ApplicationHandler *handlers.ApplicationHandler
	TeacherHandler     *handlers.TeacherHandler
	AuthMiddleware     *httpmw.AuthMiddleware
	MetricsHandler     http.Handler
	Metrics            *metrics.Collector
	WebSocketHandler   http.HandlerFunc
	Logger             *slog.Logger
	RequestTimeout     time.Duration
	Throttle           *rate.Limiter
	RateLimiter        httpmw.Limiter
}

type Router struct {
	deps RouterDependencies
}

const maxBodyBytes = 1 << 20

// Per-IP ceiling, wide enough for polling clients. The global throttle
// and the per-endpoint apply limit sit on either side of it.
const (
	ipRateLimit  = 300
	ipRateWindow = time.Minute
)

func NewRouter(deps RouterDependencies) http.Handler {
	return &Router{deps: deps}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// The websocket upgrade hijacks the connection, so it bypasses the
	// wrapping middleware chain.
	if req.Method == http.MethodGet && req.URL.Path == "/ws" && r.deps.WebSocketHandler != nil {
		r.deps.WebSocketHandler(w, req)
		return
	}
	middlewares := []httpmw.Middleware{
		httpmw.RequestID,
		httpmw.Logging(r.deps.Logger),
		httpmw.BodyLimit(maxBodyBytes),
		httpmw.Recover(r.deps.Logger),
		httpmw.Metrics(r.deps.Metrics),
		httpmw.Timeout(r.deps.RequestTimeout),
	}
	if r.deps.RateLimiter != nil {
		middlewares = append([]httpmw.Middleware{httpmw.RateLimit(r.deps.RateLimiter, ipRateLimit, ipRateWindow)}, middlewares...)
	}
	if r.deps.Throttle != nil {
		middlewares = append([]httpmw.Middleware{httpmw.Throttle(r.deps.Throttle)}, middlewares...)
	}
	httpmw.Chain(r.baseHandler(), middlewares...).ServeHTTP(w, req)
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		switch {
		case req.Method == http.MethodGet && path == "/health":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		case req.Method == http.MethodGet && path == "/metrics":
			r.deps.MetricsHandler.ServeHTTP(w, req)
			return
		case req.Method == http.MethodGet && path == "/vacancies":
			r.deps.VacancyHandler.ListOpen(w, req)
			return
		case req.Method == http.MethodGet && strings.HasPrefix(path, "/vacancies/") &&
			path != "/vacancies/available" && segmentCount(path) == 2:
			r.deps.VacancyHandler.Get(w, req)
			return
		}

		if strings.HasPrefix(path, "/vacancies") || strings.HasPrefix(path, "/applications") || strings.HasPrefix(path, "/teachers") {
			protected := r.deps.AuthMiddleware.Authenticate(http.HandlerFunc(r.handleProtected))
			protected.ServeHTTP(w, req)
			return
		}

		http.NotFound(w, req)
	})
}

func (r *Router) handleProtected(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	switch {
	case req.Method == http.MethodGet && path == "/vacancies/available":
		httpmw.RequireRole(user.RoleTeacher)(http.HandlerFunc(r.deps.ApplicationHandler.ListAvailable)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/applications":
		httpmw.RequireRole(user.RoleTeacher)(http.HandlerFunc(r.deps.ApplicationHandler.Apply)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/applications":
		httpmw.RequireRole(user.RoleTeacher)(http.HandlerFunc(r.deps.ApplicationHandler.ListOwn)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/teachers/profile":
		httpmw.RequireRole(user.RoleTeacher)(http.HandlerFunc(r.deps.TeacherHandler.GetProfile)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPut && path == "/teachers/profile":
		httpmw.RequireRole(user.RoleTeacher)(http.HandlerFunc(r.deps.TeacherHandler.UpsertProfile)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && strings.HasPrefix(path, "/vacancies/") && strings.HasSuffix(path, "/applicants"):
		httpmw.RequireRole(user.RoleAdmin)(http.HandlerFunc(r.deps.ApplicationHandler.ListApplicants)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPatch && strings.HasPrefix(path, "/vacancies/") && strings.Contains(path, "/applications/") && strings.HasSuffix(path, "/status"):
		httpmw.RequireRole(user.RoleAdmin)(http.HandlerFunc(r.deps.ApplicationHandler.SetStatus)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/vacancies":
		httpmw.RequireRole(user.RoleAdmin)(http.HandlerFunc(r.deps.VacancyHandler.Create)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPatch && strings.HasPrefix(path, "/vacancies/") && strings.HasSuffix(path, "/status"):
		httpmw.RequireRole(user.RoleAdmin)(http.HandlerFunc(r.deps.VacancyHandler.UpdateStatus)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPatch && strings.HasPrefix(path, "/vacancies/") && segmentCount(path) == 2:
		httpmw.RequireRole(user.RoleAdmin)(http.HandlerFunc(r.deps.VacancyHandler.Update)).ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func segmentCount(path string) int {
	return len(strings.Split(strings.Trim(path, "/"), "/"))
}
