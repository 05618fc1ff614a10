package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryResolve(t *testing.T) {
	reg := DefaultRegistry()

	dept, ok := reg.Resolve("/admin/editorial/articles/42")
	assert.True(t, ok)
	assert.Equal(t, DeptEditorial, dept)

	dept, ok = reg.Resolve("/admin/iam")
	assert.True(t, ok)
	assert.Equal(t, DeptSuperAdmin, dept)

	_, ok = reg.Resolve("/admin")
	assert.False(t, ok)

	_, ok = reg.Resolve("/healthz")
	assert.False(t, ok)
}

func TestRegistryLongestPrefixWins(t *testing.T) {
	reg := NewRegistry(
		PageRule{Prefix: "/admin/iam", Department: DeptSuperAdmin},
		PageRule{Prefix: "/admin/iam/audit", Department: DeptEngineering},
	)

	dept, ok := reg.Resolve("/admin/iam/audit/timeline")
	assert.True(t, ok)
	assert.Equal(t, DeptEngineering, dept)

	dept, ok = reg.Resolve("/admin/iam/users")
	assert.True(t, ok)
	assert.Equal(t, DeptSuperAdmin, dept)
}

func TestRegistryDoesNotMatchBarePrefixFragments(t *testing.T) {
	reg := DefaultRegistry()

	// /admin/editorial-archive is a different page than /admin/editorial.
	_, ok := reg.Resolve("/admin/editorial-archive")
	assert.False(t, ok)
}

func TestDepartmentLabel(t *testing.T) {
	assert.Equal(t, "Customer Service", DeptCustomerService.Label())
	assert.Equal(t, "Editorial", DeptEditorial.Label())
}
