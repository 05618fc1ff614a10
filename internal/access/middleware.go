package access

import (
	"log/slog"
	"net/http"

	"github.com/lumina-media/backoffice/internal/platform/httpx"
)

// DecisionMetrics counts authorization outcomes per department.
type DecisionMetrics interface {
	ObserveDecision(department, outcome string)
}

// Middleware wires the Checker into HTTP routing.
type Middleware struct {
	Checker *Checker
	Logger  *slog.Logger
	Metrics DecisionMetrics
}

// GuardPages authorizes every request against the page registry. Mount it on
// the admin subtree so route handlers never re-implement the matrix lookup.
func (m Middleware) GuardPages() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := m.Checker.AuthorizePage(r.Context(), PrincipalFromContext(r.Context()), r.URL.Path)
			m.observe(decision)
			switch decision.Outcome {
			case OutcomeAllowed:
				next.ServeHTTP(w, r)
			case OutcomeUnauthenticated:
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
			default:
				if m.Logger != nil {
					principal := PrincipalFromContext(r.Context())
					m.Logger.Warn("access denied",
						slog.Int64("user_id", principal.UserID),
						slog.String("department", string(decision.Department)),
						slog.String("path", r.URL.Path))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Reason)
			}
		})
	}
}

// RequireDepartment gates a route subtree on one department regardless of the
// registry. Used for routes whose path does not encode their owner.
func (m Middleware) RequireDepartment(dept Department) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				m.observe(Decision{Outcome: OutcomeUnauthenticated, Department: dept})
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
				return
			}
			if !m.Checker.CanAccess(principal.Role, principal.Department, dept) {
				m.observe(Decision{Outcome: OutcomeDenied, Department: dept})
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "role "+string(principal.Role)+" may not access the "+dept.Label()+" department")
				return
			}
			m.observe(Decision{Outcome: OutcomeAllowed, Department: dept})
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) observe(decision Decision) {
	if m.Metrics == nil {
		return
	}
	m.Metrics.ObserveDecision(string(decision.Department), string(decision.Outcome))
}
