// Package access decides whether a staff principal may act within a company
// department. It is a pure decision core: a static permission matrix plus a
// handful of derived queries, with no storage of its own.
package access

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is a fixed job-function tag assigned to a staff account.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleEditor       Role = "EDITOR"
	RoleAuthor       Role = "AUTHOR"
	RoleSupportAgent Role = "SUPPORT_AGENT"
	RoleEngineer     Role = "ENGINEER"
	RoleMarketer     Role = "MARKETER"
	RoleCoach        Role = "COACH"
)

// Roles returns the closed role enumeration.
func Roles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleAdmin,
		RoleEditor,
		RoleAuthor,
		RoleSupportAgent,
		RoleEngineer,
		RoleMarketer,
		RoleCoach,
	}
}

// ParseRole maps a stored string onto the role enumeration. Unknown values
// return ok=false; callers must treat that as no access, never as an error.
func ParseRole(value string) (Role, bool) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(value)))
	for _, r := range Roles() {
		if r == candidate {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether the role belongs to the enumeration.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Department is a fixed organizational unit used as the unit of access
// scoping. The zero value means "no department".
type Department string

const (
	DeptSuperAdmin      Department = "SUPER_ADMIN"
	DeptCustomerService Department = "CUSTOMER_SERVICE"
	DeptEditorial       Department = "EDITORIAL"
	DeptMembership      Department = "MEMBERSHIP"
	DeptEngineering     Department = "ENGINEERING"
	DeptMarketing       Department = "MARKETING"
	DeptCoaching        Department = "COACHING"
)

// Departments returns the closed department enumeration in display order.
func Departments() []Department {
	return []Department{
		DeptSuperAdmin,
		DeptCustomerService,
		DeptEditorial,
		DeptMembership,
		DeptEngineering,
		DeptMarketing,
		DeptCoaching,
	}
}

// ParseDepartment maps a stored string onto the department enumeration.
func ParseDepartment(value string) (Department, bool) {
	candidate := Department(strings.ToUpper(strings.TrimSpace(value)))
	for _, d := range Departments() {
		if d == candidate {
			return d, true
		}
	}
	return "", false
}

// Valid reports whether the department belongs to the enumeration.
func (d Department) Valid() bool {
	_, ok := ParseDepartment(string(d))
	return ok
}

var labelCaser = cases.Title(language.English)

// Label renders the department tag as a human-readable name, e.g.
// CUSTOMER_SERVICE becomes "Customer Service".
func (d Department) Label() string {
	return labelCaser.String(strings.ReplaceAll(strings.ToLower(string(d)), "_", " "))
}

// Principal is the authenticated actor evaluated by an access check. It is
// built once per request from session state and never mutated here.
type Principal struct {
	UserID     int64
	Email      string
	Role       Role
	Department Department
}

// AuditEvent is the append-only record emitted for an authorization decision.
// Delivery is best effort; a dropped event never affects the decision.
type AuditEvent struct {
	ID         string
	UserID     int64
	UserEmail  string
	Department Department
	PagePath   string
	Action     string
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}

// Audit actions recorded for page authorization.
const (
	ActionAccessAllowed = "ACCESS_ALLOWED"
	ActionAccessDenied  = "ACCESS_DENIED"
)
