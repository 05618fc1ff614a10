package access

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, sink AuditSink) *Checker {
	t.Helper()
	matrix := DefaultMatrix()
	require.NoError(t, matrix.Validate())
	return NewChecker(matrix, DefaultRegistry(), sink, nil)
}

func TestSuperAdminBypass(t *testing.T) {
	c := newTestChecker(t, nil)

	for _, dept := range Departments() {
		assert.True(t, c.CanAccess(RoleSuperAdmin, "", dept), "dept %s", dept)
		assert.True(t, c.CanAccess(RoleSuperAdmin, DeptMarketing, dept), "dept %s", dept)
	}
	// Even departments the matrix has never heard of.
	assert.True(t, c.CanAccess(RoleSuperAdmin, "", Department("ARCHIVES")))
}

func TestAdminCrossDepartmentGrant(t *testing.T) {
	c := newTestChecker(t, nil)

	for _, dept := range Departments() {
		if dept == DeptSuperAdmin {
			continue
		}
		assert.True(t, c.CanAccess(RoleAdmin, "", dept), "dept %s", dept)
		assert.True(t, c.CanAccess(RoleAdmin, DeptEditorial, dept), "dept %s with home dept", dept)
	}
}

func TestAdminExcludedFromTopDepartment(t *testing.T) {
	c := newTestChecker(t, nil)

	assert.False(t, c.CanAccess(RoleAdmin, "", DeptSuperAdmin))
	assert.False(t, c.CanAccess(RoleAdmin, DeptSuperAdmin, DeptSuperAdmin))
}

func TestOrdinaryRoleRequiresDepartmentMatch(t *testing.T) {
	c := newTestChecker(t, nil)

	assert.True(t, c.CanAccess(RoleEditor, DeptEditorial, DeptEditorial))
	assert.False(t, c.CanAccess(RoleEditor, DeptMarketing, DeptEditorial), "home department mismatch")
	assert.False(t, c.CanAccess(RoleEditor, "", DeptEditorial), "no home department")
}

func TestRoleNotInMatrixDeniedDespiteDepartmentMatch(t *testing.T) {
	c := newTestChecker(t, nil)

	// EDITOR is not in CUSTOMER_SERVICE's allowed set.
	assert.False(t, c.CanAccess(RoleEditor, DeptCustomerService, DeptCustomerService))
}

func TestFailClosedOnUnknownInputs(t *testing.T) {
	c := newTestChecker(t, nil)

	assert.False(t, c.CanAccess(RoleEditor, DeptEditorial, Department("ARCHIVES")))
	assert.False(t, c.CanAccess(RoleAdmin, "", Department("ARCHIVES")))
	assert.False(t, c.CanAccess(Role("INTERN"), DeptEditorial, DeptEditorial))
	assert.False(t, c.CanAccess(Role(""), "", DeptEditorial))
}

func TestAccessibleDepartmentsEquivalence(t *testing.T) {
	c := newTestChecker(t, nil)

	primaries := append([]Department{""}, Departments()...)
	roles := append(Roles(), Role("INTERN"))
	for _, role := range roles {
		for _, primary := range primaries {
			accessible := c.AccessibleDepartments(role, primary)
			member := make(map[Department]bool, len(accessible))
			for _, dept := range accessible {
				member[dept] = true
			}
			for _, dept := range Departments() {
				assert.Equal(t, c.CanAccess(role, primary, dept), member[dept],
					"role=%s primary=%s dept=%s", role, primary, dept)
			}
		}
	}
}

func TestAccessibleDepartmentsShape(t *testing.T) {
	c := newTestChecker(t, nil)

	assert.Equal(t, Departments(), c.AccessibleDepartments(RoleSuperAdmin, ""))

	admin := c.AccessibleDepartments(RoleAdmin, "")
	assert.Len(t, admin, len(Departments())-1)
	assert.NotContains(t, admin, DeptSuperAdmin)

	assert.Equal(t, []Department{DeptEditorial}, c.AccessibleDepartments(RoleEditor, DeptEditorial))
	assert.Empty(t, c.AccessibleDepartments(RoleEditor, ""))
}

func TestCanAccessIdempotent(t *testing.T) {
	c := newTestChecker(t, nil)

	first := c.CanAccess(RoleEditor, DeptEditorial, DeptEditorial)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, c.CanAccess(RoleEditor, DeptEditorial, DeptEditorial))
	}
}

func TestMatrixCopiedAtConstruction(t *testing.T) {
	matrix := DefaultMatrix()
	c := NewChecker(matrix, nil, nil, nil)

	// Mutating the caller's table must not change decisions.
	matrix[DeptEditorial] = nil
	assert.True(t, c.CanAccess(RoleEditor, DeptEditorial, DeptEditorial))
}

type captureSink struct {
	mu     sync.Mutex
	events []AuditEvent
	done   chan struct{}
	err    error
	panics bool
}

func newCaptureSink() *captureSink {
	return &captureSink{done: make(chan struct{}, 16)}
}

func (s *captureSink) Record(ctx context.Context, event AuditEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.done <- struct{}{}
	if s.panics {
		panic("sink exploded")
	}
	return s.err
}

func (s *captureSink) last(t *testing.T) AuditEvent {
	t.Helper()
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.events)
	return s.events[len(s.events)-1]
}

func TestAuthorizePageOutcomes(t *testing.T) {
	sink := newCaptureSink()
	c := newTestChecker(t, sink)

	editor := &Principal{UserID: 7, Email: "editor@lumina.test", Role: RoleEditor, Department: DeptEditorial}

	decision := c.AuthorizePage(context.Background(), editor, "/admin/editorial/articles")
	assert.Equal(t, OutcomeAllowed, decision.Outcome)
	assert.True(t, decision.Allowed())
	event := sink.last(t)
	assert.Equal(t, ActionAccessAllowed, event.Action)
	assert.Equal(t, DeptEditorial, event.Department)
	assert.Equal(t, int64(7), event.UserID)

	decision = c.AuthorizePage(context.Background(), editor, "/admin/customer-service/tickets")
	assert.Equal(t, OutcomeDenied, decision.Outcome)
	assert.NotEmpty(t, decision.Reason)
	event = sink.last(t)
	assert.Equal(t, ActionAccessDenied, event.Action)

	decision = c.AuthorizePage(context.Background(), nil, "/admin/editorial")
	assert.Equal(t, OutcomeUnauthenticated, decision.Outcome)
	assert.False(t, decision.Allowed())
}

func TestAuthorizePageAdminScenarios(t *testing.T) {
	c := newTestChecker(t, nil)

	admin := &Principal{UserID: 3, Email: "admin@lumina.test", Role: RoleAdmin}

	decision := c.AuthorizePage(context.Background(), admin, "/admin/marketing/campaigns")
	assert.Equal(t, OutcomeAllowed, decision.Outcome)

	decision = c.AuthorizePage(context.Background(), admin, "/admin/iam/users")
	assert.Equal(t, OutcomeDenied, decision.Outcome)
	assert.NotEmpty(t, decision.Reason)
}

func TestAuthorizePageWithoutOwningDepartment(t *testing.T) {
	c := newTestChecker(t, nil)

	author := &Principal{UserID: 11, Role: RoleAuthor, Department: DeptEditorial}
	decision := c.AuthorizePage(context.Background(), author, "/admin")
	assert.Equal(t, OutcomeAllowed, decision.Outcome)
	assert.Equal(t, Department(""), decision.Department)

	decision = c.AuthorizePage(context.Background(), nil, "/admin")
	assert.Equal(t, OutcomeUnauthenticated, decision.Outcome)
}

func TestAuditFailureDoesNotAffectDecision(t *testing.T) {
	sink := newCaptureSink()
	sink.err = errors.New("audit store down")
	c := newTestChecker(t, sink)

	editor := &Principal{UserID: 7, Role: RoleEditor, Department: DeptEditorial}
	decision := c.AuthorizePage(context.Background(), editor, "/admin/editorial")
	assert.Equal(t, OutcomeAllowed, decision.Outcome)
	sink.last(t)

	decision = c.AuthorizePage(context.Background(), editor, "/admin/marketing")
	assert.Equal(t, OutcomeDenied, decision.Outcome)
	sink.last(t)
}

func TestAuditPanicDoesNotAffectDecision(t *testing.T) {
	sink := newCaptureSink()
	sink.panics = true
	c := newTestChecker(t, sink)

	editor := &Principal{UserID: 7, Role: RoleEditor, Department: DeptEditorial}
	decision := c.AuthorizePage(context.Background(), editor, "/admin/editorial")
	assert.Equal(t, OutcomeAllowed, decision.Outcome)
	sink.last(t)
}

func TestAuditEventCarriesRequestMeta(t *testing.T) {
	sink := newCaptureSink()
	c := newTestChecker(t, sink)

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{
		IPAddress: "203.0.113.9",
		UserAgent: "backoffice-test/1.0",
	})
	editor := &Principal{UserID: 7, Email: "editor@lumina.test", Role: RoleEditor, Department: DeptEditorial}
	c.AuthorizePage(ctx, editor, "/admin/editorial")

	event := sink.last(t)
	assert.Equal(t, "203.0.113.9", event.IPAddress)
	assert.Equal(t, "backoffice-test/1.0", event.UserAgent)
	assert.False(t, event.OccurredAt.IsZero())
}
