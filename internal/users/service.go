package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-media/backoffice/internal/access"
	"github.com/lumina-media/backoffice/internal/platform/httpx"
)

// Service handles staff directory business rules.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the fields for a new staff account.
type CreateInput struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department"`
	Password   string `json:"password" validate:"required,min=10"`
}

// UpdateInput carries the mutable fields of an existing account.
type UpdateInput struct {
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department"`
}

// List returns all staff accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches one staff account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create validates input against the closed role and department
// enumerations, hashes the password, and inserts the account.
func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	role, dept, err := resolveRoleAndDepartment(input.Role, input.Department)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, User{
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Name:       strings.TrimSpace(input.Name),
		Role:       role,
		Department: dept,
	}, string(hash))
}

// Update rewrites name, role, and department of an account.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	role, dept, err := resolveRoleAndDepartment(input.Role, input.Department)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, User{
		ID:         id,
		Name:       strings.TrimSpace(input.Name),
		Role:       role,
		Department: dept,
	})
}

// Deactivate disables an account and revokes its sessions.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// PrincipalForUser builds the access principal for an authenticated user ID.
// Inactive accounts yield no principal, the same as an anonymous request.
func (s *Service) PrincipalForUser(ctx context.Context, id int64) (*access.Principal, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, httpx.ErrNotFound
	}
	return &access.Principal{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
	}, nil
}

func resolveRoleAndDepartment(rawRole, rawDept string) (access.Role, access.Department, error) {
	role, ok := access.ParseRole(rawRole)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, rawRole)
	}

	var dept access.Department
	if strings.TrimSpace(rawDept) != "" {
		parsed, ok := access.ParseDepartment(rawDept)
		if !ok {
			return "", "", fmt.Errorf("%w: unknown department %q", httpx.ErrValidation, rawDept)
		}
		dept = parsed
	}

	switch role {
	case access.RoleSuperAdmin, access.RoleAdmin:
		// Cross-department roles carry no home department.
		dept = ""
	default:
		if dept == "" {
			return "", "", fmt.Errorf("%w: role %s requires a home department", httpx.ErrValidation, role)
		}
	}
	return role, dept, nil
}
