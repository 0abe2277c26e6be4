package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/middleware"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/jwt"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	JWTService     jwt.Service
	ScannerKeys    middleware.KeyVerifier
}

type Handlers struct {
	Scan       ScanHandler
	Auth       AuthHandler
	Employee   EmployeeHandler
	Attendance AttendanceHandler
	Report     ReportHandler
	Event      EventHandler
}

func NewRouter(cfg RouterConfig, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(cfg.Metrics.Middleware)

	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	scanner := chi.Chain(
		chiMiddleware.AllowContentType("application/json"),
		middleware.ScannerKeyRequired(cfg.ScannerKeys),
	)

	// Path deployed readers post to
	r.With(scanner...).Post("/api/attendance", h.Scan.Submit)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(scanner...).Post("/scans", h.Scan.Submit)
		r.Post("/auth/token", h.Auth.Login)

		// Token comes in the query, see EventHandler.Stream
		r.Get("/events/stream", h.Event.Stream)

		// Requires admin access token
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.AdminOnly)

			r.Post("/auth/stream-token", h.Auth.StreamToken)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.Employee.List)
				r.Post("/", h.Employee.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Employee.Get)
					r.Post("/cards", h.Employee.AssignCard)
				})
			})

			r.Delete("/cards/{serial}", h.Employee.RevokeCard)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", h.Attendance.List)
				r.Post("/close-day", h.Attendance.CloseDay)
				r.Get("/{id}", h.Attendance.Get)
				r.Put("/{id}", h.Attendance.Correct)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/monthly", h.Report.GetMonthlyReport)
				r.Get("/monthly/export", h.Report.ExportMonthlyReport)
			})
		})
	})

	return r
}
