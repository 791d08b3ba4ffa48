package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Role is an enumerated identity with a fixed permission set. Roles are
// ordered by priority: a lower ordinal means higher priority.
type Role int

const (
	RoleSuperAdmin Role = iota
	RoleAdmin
	RoleManager
	RoleTeacher
	RoleAnalyst
	RoleModerator
	RoleStudent
	RoleGuest
)

var ErrUnknownRole = errors.New("unknown role")

type roleSpec struct {
	name        string
	displayName string
	permissions []Permission
}

// roleSpecs is the fixed role catalog. Order must match the Role constants.
var roleSpecs = [...]roleSpec{
	RoleSuperAdmin: {
		name:        "SUPER_ADMIN",
		displayName: "Super Administrator",
		permissions: []Permission{
			PermSystemManage, PermUserManageAll, PermCourseManageAll,
			PermAnalyticsViewAll, PermSettingsManage, PermBackupManage, PermAuditView,
		},
	},
	RoleAdmin: {
		name:        "ADMIN",
		displayName: "Administrator",
		permissions: []Permission{
			PermCourseManageAll, PermStudentManageAll, PermTeacherManageAll,
			PermAnalyticsViewAll, PermReportsGenerate, PermScheduleManage,
		},
	},
	RoleManager: {
		name:        "MANAGER",
		displayName: "Manager",
		permissions: []Permission{
			PermCourseCreate, PermCourseEditAll, PermTeacherAssign,
			PermStudentViewAll, PermAnalyticsViewLimited, PermReportsView,
			PermCommunicationSend,
		},
	},
	RoleTeacher: {
		name:        "TEACHER",
		displayName: "Teacher",
		permissions: []Permission{
			PermCourseCreateOwn, PermCourseEditOwn, PermStudentManageOwn,
			PermTaskManageOwn, PermGradeManageOwn, PermAnalyticsViewOwn,
			PermReportsViewOwn,
		},
	},
	RoleAnalyst: {
		name:        "ANALYST",
		displayName: "Analyst",
		permissions: []Permission{
			PermAnalyticsViewAll, PermReportsGenerate, PermReportsView,
			PermDataExport, PermStatisticsView,
		},
	},
	RoleModerator: {
		name:        "MODERATOR",
		displayName: "Moderator",
		permissions: []Permission{
			PermContentModerate, PermStudentApplicationsManage, PermSupportProvide,
			PermCommunicationModerate, PermReportsView,
		},
	},
	RoleStudent: {
		name:        "STUDENT",
		displayName: "Student",
		permissions: []Permission{
			PermCourseView, PermCourseEnroll, PermTaskSubmit,
			PermGradeViewOwn, PermProgressViewOwn, PermProfileEditOwn,
		},
	},
	RoleGuest: {
		name:        "GUEST",
		displayName: "Guest",
		permissions: []Permission{
			PermCourseViewPublic, PermRegistrationRequest,
		},
	},
}

// Roles returns every role in priority order.
func Roles() []Role {
	roles := make([]Role, len(roleSpecs))
	for i := range roleSpecs {
		roles[i] = Role(i)
	}
	return roles
}

// ParseRole resolves a role name (case insensitive) to its Role value.
func ParseRole(name string) (Role, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, spec := range roleSpecs {
		if spec.name == upper {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

func (r Role) valid() bool {
	return r >= 0 && int(r) < len(roleSpecs)
}

// Name returns the canonical role name, e.g. "TEACHER".
func (r Role) Name() string {
	if !r.valid() {
		return fmt.Sprintf("ROLE(%d)", int(r))
	}
	return roleSpecs[r].name
}

func (r Role) String() string {
	return r.Name()
}

// DisplayName returns the human readable role name.
func (r Role) DisplayName() string {
	if !r.valid() {
		return r.Name()
	}
	return roleSpecs[r].displayName
}

// Permissions returns a copy of the role's fixed permission set.
func (r Role) Permissions() []Permission {
	if !r.valid() {
		return nil
	}
	perms := make([]Permission, len(roleSpecs[r].permissions))
	copy(perms, roleSpecs[r].permissions)
	return perms
}

// HasPermission reports whether the role's fixed set contains the permission.
func (r Role) HasPermission(p Permission) bool {
	if !r.valid() {
		return false
	}
	for _, rp := range roleSpecs[r].permissions {
		if rp == p {
			return true
		}
	}
	return false
}

// HasHigherOrEqualPriority reports whether r ranks at least as high as other.
// Priority is the declaration order: SUPER_ADMIN outranks everything.
func (r Role) HasHigherOrEqualPriority(other Role) bool {
	return r <= other
}

// AdministrativeRoles returns the roles with system administration access.
func AdministrativeRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin}
}

// EducationalRoles returns the roles that work with courses directly.
func EducationalRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTeacher, RoleStudent}
}

// DashboardRoles returns every role with dashboard access (all but GUEST).
func DashboardRoles() []Role {
	return []Role{
		RoleSuperAdmin, RoleAdmin, RoleManager, RoleTeacher,
		RoleAnalyst, RoleModerator, RoleStudent,
	}
}
