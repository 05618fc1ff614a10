package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/lumina-media/backoffice/internal/access"
	"github.com/lumina-media/backoffice/internal/audit"
	"github.com/lumina-media/backoffice/internal/auth"
	"github.com/lumina-media/backoffice/internal/observability"
	"github.com/lumina-media/backoffice/internal/platform/httpx"
	"github.com/lumina-media/backoffice/internal/shared"
	"github.com/lumina-media/backoffice/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Resolver       PrincipalResolver
	Checker        *access.Checker
	AccessMW       access.Middleware
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	AuditHandler   *audit.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Resolver:       params.Resolver,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		// Tighter limit on credential guessing than the global one.
		r.Use(httprate.LimitByIP(20, time.Minute))
		params.AuthHandler.MountRoutes(r)
	})

	r.Get("/departments", func(w http.ResponseWriter, r *http.Request) {
		principal := access.PrincipalFromContext(r.Context())
		if principal == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
			return
		}
		accessible := params.Checker.AccessibleDepartments(principal.Role, principal.Department)
		out := make([]map[string]string, 0, len(accessible))
		for _, dept := range accessible {
			out = append(out, map[string]string{"tag": string(dept), "label": dept.Label()})
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"departments": out})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.AccessMW.GuardPages())

		r.Get("/", adminHome(params.Checker))

		r.Route("/iam", func(r chi.Router) {
			r.Get("/", departmentHome(access.DeptSuperAdmin))
			r.Route("/users", func(r chi.Router) {
				params.UsersHandler.MountRoutes(r)
			})
			r.Route("/audit", func(r chi.Router) {
				params.AuditHandler.MountRoutes(r)
			})
		})

		r.Get("/customer-service", departmentHome(access.DeptCustomerService))
		r.Get("/editorial", departmentHome(access.DeptEditorial))
		r.Get("/membership", departmentHome(access.DeptMembership))
		r.Get("/engineering", departmentHome(access.DeptEngineering))
		r.Get("/marketing", departmentHome(access.DeptMarketing))
		r.Get("/coaching", departmentHome(access.DeptCoaching))
	})

	return r
}

// adminHome lists the sections the caller may enter; the admin landing page
// itself has no owning department.
func adminHome(checker *access.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := access.PrincipalFromContext(r.Context())
		accessible := checker.AccessibleDepartments(principal.Role, principal.Department)
		sections := make([]string, 0, len(accessible))
		for _, dept := range accessible {
			sections = append(sections, string(dept))
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"sections": sections})
	}
}

func departmentHome(dept access.Department) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{
			"department": string(dept),
			"label":      dept.Label(),
		})
	}
}
