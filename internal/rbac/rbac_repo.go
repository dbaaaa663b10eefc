package rbac

import "go-skillmatrix/internal/domain"

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetRolePermissions() ([]RolePermissionRow, error)
}

type RolePermissionRow struct {
	Role     string
	Resource string
	Action   string
}

type staticRepository struct {
	rows []RolePermissionRow
}

// NewRepository serves the built-in role policy.
func NewRepository() Repository {
	return &staticRepository{rows: defaultPolicy()}
}

func (r *staticRepository) GetRolePermissions() ([]RolePermissionRow, error) {
	out := make([]RolePermissionRow, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func grant(role, resource string, actions ...string) []RolePermissionRow {
	rows := make([]RolePermissionRow, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, RolePermissionRow{Role: role, Resource: resource, Action: a})
	}
	return rows
}

func defaultPolicy() []RolePermissionRow {
	var rows []RolePermissionRow
	add := func(r []RolePermissionRow) { rows = append(rows, r...) }

	add(grant(domain.RoleAdmin, "department", "create", "read"))
	add(grant(domain.RoleAdmin, "employee", "create", "read", "update"))
	add(grant(domain.RoleAdmin, "skill", "read"))
	add(grant(domain.RoleAdmin, "assignment", "read"))
	add(grant(domain.RoleAdmin, "analytics", "overview", "progress"))

	add(grant(domain.RoleHR, "department", "read"))
	add(grant(domain.RoleHR, "employee", "read"))
	add(grant(domain.RoleHR, "skill", "create", "read"))
	add(grant(domain.RoleHR, "project", "create", "read", "update", "delete", "analyze"))
	add(grant(domain.RoleHR, "deliverable", "create", "read", "update", "delete"))
	add(grant(domain.RoleHR, "recommendation", "read", "export"))
	add(grant(domain.RoleHR, "assignment", "request", "read"))
	add(grant(domain.RoleHR, "analytics", "overview", "progress"))

	add(grant(domain.RoleManager, "department", "read"))
	add(grant(domain.RoleManager, "employee", "read"))
	add(grant(domain.RoleManager, "skill", "read"))
	add(grant(domain.RoleManager, "rating", "self", "review"))
	add(grant(domain.RoleManager, "assignment", "review", "read"))
	add(grant(domain.RoleManager, "analytics", "progress"))

	add(grant(domain.RoleEmployee, "department", "read"))
	add(grant(domain.RoleEmployee, "skill", "read"))
	add(grant(domain.RoleEmployee, "rating", "self"))

	return rows
}
