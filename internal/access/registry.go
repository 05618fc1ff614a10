package access

import (
	"sort"
	"strings"
)

// PageRule maps a URL path prefix to the department that owns it.
type PageRule struct {
	Prefix     string
	Department Department
}

// Registry resolves page paths to their owning department. It is routing
// configuration supplied by the caller, not derived from the matrix.
type Registry struct {
	rules []PageRule
}

// NewRegistry builds a Registry from the given rules. Longer prefixes win,
// so /admin/iam/audit may own a different department than /admin/iam.
func NewRegistry(rules ...PageRule) *Registry {
	sorted := make([]PageRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Registry{rules: sorted}
}

// DefaultRegistry returns the admin-suite route table.
func DefaultRegistry() *Registry {
	return NewRegistry(
		PageRule{Prefix: "/admin/iam", Department: DeptSuperAdmin},
		PageRule{Prefix: "/admin/customer-service", Department: DeptCustomerService},
		PageRule{Prefix: "/admin/editorial", Department: DeptEditorial},
		PageRule{Prefix: "/admin/membership", Department: DeptMembership},
		PageRule{Prefix: "/admin/engineering", Department: DeptEngineering},
		PageRule{Prefix: "/admin/marketing", Department: DeptMarketing},
		PageRule{Prefix: "/admin/coaching", Department: DeptCoaching},
	)
}

// Resolve returns the owning department for a path. ok is false when no rule
// matches, which callers treat as "authentication required, no department
// gate".
func (r *Registry) Resolve(path string) (Department, bool) {
	for _, rule := range r.rules {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule.Department, true
		}
	}
	return "", false
}
