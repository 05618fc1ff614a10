package access

import "fmt"

// Matrix maps each department to the roles permitted to act within it. It is
// static configuration: constructed at startup, handed to the Checker, never
// mutated afterwards. Changing it is a code review, not a data write.
type Matrix map[Department][]Role

// DefaultMatrix returns the shipped department permission table. Every set
// contains SUPER_ADMIN; every set except the top department's contains ADMIN,
// which is what makes ADMIN a cross-department role under the decision order.
func DefaultMatrix() Matrix {
	return Matrix{
		DeptSuperAdmin:      {RoleSuperAdmin},
		DeptCustomerService: {RoleSuperAdmin, RoleAdmin, RoleSupportAgent},
		DeptEditorial:       {RoleSuperAdmin, RoleAdmin, RoleEditor, RoleAuthor},
		DeptMembership:      {RoleSuperAdmin, RoleAdmin, RoleSupportAgent},
		DeptEngineering:     {RoleSuperAdmin, RoleAdmin, RoleEngineer},
		DeptMarketing:       {RoleSuperAdmin, RoleAdmin, RoleMarketer},
		DeptCoaching:        {RoleSuperAdmin, RoleAdmin, RoleCoach},
	}
}

// Allows reports whether the role appears in the department's allowed set.
// An unknown department allows nothing.
func (m Matrix) Allows(dept Department, role Role) bool {
	for _, allowed := range m[dept] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of the table: every department in
// the enumeration has a non-empty entry that includes SUPER_ADMIN. Intended
// for startup, where a misconfigured matrix should fail loudly.
func (m Matrix) Validate() error {
	for _, dept := range Departments() {
		roles, ok := m[dept]
		if !ok || len(roles) == 0 {
			return fmt.Errorf("access: matrix entry for %s is empty", dept)
		}
		if !m.Allows(dept, RoleSuperAdmin) {
			return fmt.Errorf("access: matrix entry for %s omits %s", dept, RoleSuperAdmin)
		}
	}
	return nil
}

func (m Matrix) clone() Matrix {
	out := make(Matrix, len(m))
	for dept, roles := range m {
		copied := make([]Role, len(roles))
		copy(copied, roles)
		out[dept] = copied
	}
	return out
}
