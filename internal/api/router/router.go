package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicore/hospital-platform/internal/directory"
	httpmiddleware "github.com/clinicore/hospital-platform/internal/http/middleware"
	"github.com/clinicore/hospital-platform/internal/patients"
	"github.com/clinicore/hospital-platform/internal/session"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	Guard            *session.Guard
	PatientsHandler  *patients.Handler
	DirectoryHandler *directory.Handler
	RealtimeHandler  http.Handler
	MetricsHandler   http.Handler

	CORSAllowedOrigins []string

	// Rate limit applied to the credential endpoints only.
	AuthRateLimit float64
	AuthRateBurst int
}

// New creates a new Chi router with all routes configured. Each workspace
// path is gated to its role; admin passes every gate.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Unknown paths point browsers back to the login screen.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":    "not found",
			"redirect": "/login",
		})
	})

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		// Credential endpoints carry a per-IP rate limit against guessing.
		public.Group(func(auth chi.Router) {
			if cfg.AuthRateLimit > 0 {
				auth.Use(httpmiddleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
			}
			auth.Post("/login", cfg.DirectoryHandler.Login)
			auth.Post("/register", cfg.DirectoryHandler.Register)
		})
	})

	// Authenticated endpoints
	r.Group(func(private chi.Router) {
		private.Use(cfg.Guard.Authenticate)

		private.Post("/logout", cfg.DirectoryHandler.Logout)
		if cfg.RealtimeHandler != nil {
			private.Handle("/ws", cfg.RealtimeHandler)
		}

		private.Route("/receptionist", func(r chi.Router) {
			r.Use(cfg.Guard.RequireRole("receptionist"))
			r.Post("/patients", cfg.PatientsHandler.Create)
		})

		private.Route("/doctor", func(r chi.Router) {
			r.Use(cfg.Guard.RequireRole("doctor"))
			r.Get("/patients", cfg.PatientsHandler.DoctorList)
			r.Patch("/patients/{id}", cfg.PatientsHandler.UpdateChart)
			r.Post("/patients/{id}/send-to-cashier", cfg.PatientsHandler.SendToCashier)
		})

		private.Route("/cashier", func(r chi.Router) {
			r.Use(cfg.Guard.RequireRole("cashier"))
			r.Get("/patients", cfg.PatientsHandler.CashierList)
			r.Post("/patients/{id}/billing", cfg.PatientsHandler.RecordBilling)
		})

		private.Route("/lab", func(r chi.Router) {
			r.Use(cfg.Guard.RequireRole("lab"))
			r.Get("/patients", cfg.PatientsHandler.LabList)
			r.Post("/patients/{id}/results", cfg.PatientsHandler.CompleteTest)
		})

		private.Route("/pharmacy", func(r chi.Router) {
			r.Use(cfg.Guard.RequireRole("pharmacy"))
			r.Get("/patients", cfg.PatientsHandler.PharmacyList)
			r.Post("/patients/{id}/dispense", cfg.PatientsHandler.Dispense)
		})

		private.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Guard.RequireRole("admin"))
			r.Get("/patients", cfg.PatientsHandler.AdminList)
			r.Get("/users", cfg.DirectoryHandler.Roster)
			r.Get("/users/active", cfg.DirectoryHandler.ActiveRoster)
			r.Post("/add-user", cfg.DirectoryHandler.AddUser)
			r.Post("/users/{id}/force-logout", cfg.DirectoryHandler.ForceLogout)
		})
	})

	return r
}
