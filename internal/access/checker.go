package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Outcome is the three-way result of a page authorization.
type Outcome string

const (
	OutcomeUnauthenticated Outcome = "UNAUTHENTICATED"
	OutcomeDenied          Outcome = "DENIED"
	OutcomeAllowed         Outcome = "ALLOWED"
)

// Decision is the result of authorizing a page request. Reason is set when
// the outcome is Denied and is safe to show to the user.
type Decision struct {
	Outcome    Outcome
	Department Department
	Reason     string
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

// AuditSink receives authorization audit events. Implementations may fail;
// the Checker treats every sink as best effort and never lets a sink error
// or panic reach the caller or change a decision.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// Checker is the single decision surface for department access. It holds a
// private copy of the permission matrix, so concurrent reads need no
// synchronization and callers cannot mutate the table after construction.
type Checker struct {
	matrix   Matrix
	registry *Registry
	sink     AuditSink
	logger   *slog.Logger
}

// NewChecker constructs a Checker. registry and sink may be nil: without a
// registry every page resolves to no owning department, and without a sink
// no audit events are emitted.
func NewChecker(matrix Matrix, registry *Registry, sink AuditSink, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		matrix:   matrix.clone(),
		registry: registry,
		sink:     sink,
		logger:   logger,
	}
}

// CanAccess decides whether a principal with the given role and home
// department may act within the target department. Pure and deterministic;
// unknown roles and departments fail closed to false, never to an error.
//
// The order matters: the super-admin bypass precedes the matrix lookup, so a
// super admin is never blocked even from departments missing from the table,
// and the membership check precedes the ADMIN grant, so a department can opt
// out of the cross-department grant by omitting ADMIN from its set.
func (c *Checker) CanAccess(role Role, primary, target Department) bool {
	if role == RoleSuperAdmin {
		return true
	}
	if !c.matrix.Allows(target, role) {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	return primary == target
}

// AccessibleDepartments enumerates the departments the principal may browse.
// It filters the department enumeration through CanAccess, so membership in
// the result always agrees with the corresponding CanAccess call.
func (c *Checker) AccessibleDepartments(role Role, primary Department) []Department {
	var out []Department
	for _, dept := range Departments() {
		if c.CanAccess(role, primary, dept) {
			out = append(out, dept)
		}
	}
	return out
}

// AuthorizePage gates a page request. A nil principal yields Unauthenticated,
// which callers turn into a login redirect rather than an access-denied
// message. Pages without an owning department require authentication only.
//
// One audit event is emitted per decision on authenticated requests, fire and
// forget: the decision is returned without waiting for the write.
func (c *Checker) AuthorizePage(ctx context.Context, principal *Principal, pagePath string) Decision {
	if principal == nil {
		return Decision{Outcome: OutcomeUnauthenticated}
	}

	var dept Department
	if c.registry != nil {
		dept, _ = c.registry.Resolve(pagePath)
	}

	decision := Decision{Outcome: OutcomeAllowed, Department: dept}
	if dept != "" && !c.CanAccess(principal.Role, principal.Department, dept) {
		decision = Decision{
			Outcome:    OutcomeDenied,
			Department: dept,
			Reason:     fmt.Sprintf("role %s may not access the %s department", principal.Role, dept.Label()),
		}
	}

	c.emit(ctx, principal, decision, pagePath)
	return decision
}

func (c *Checker) emit(ctx context.Context, principal *Principal, decision Decision, pagePath string) {
	if c.sink == nil {
		return
	}
	action := ActionAccessAllowed
	if decision.Outcome == OutcomeDenied {
		action = ActionAccessDenied
	}
	event := AuditEvent{
		UserID:     principal.UserID,
		UserEmail:  principal.Email,
		Department: decision.Department,
		PagePath:   pagePath,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
	if meta, ok := RequestMetaFromContext(ctx); ok {
		event.IPAddress = meta.IPAddress
		event.UserAgent = meta.UserAgent
	}

	// Detach from the request context so an audit write outliving the
	// request is not cancelled mid-flight.
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Debug("audit sink panic", slog.Any("panic", r))
			}
		}()
		if err := c.sink.Record(ctx, event); err != nil {
			c.logger.Debug("audit write dropped", slog.Any("error", err))
		}
	}()
}
