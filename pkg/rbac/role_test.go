package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("teacher")
	require.NoError(t, err)
	assert.Equal(t, RoleTeacher, role)

	role, err = ParseRole(" SUPER_ADMIN ")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, role)

	_, err = ParseRole("WIZARD")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestAuthorities(t *testing.T) {
	authorities := Authorities(RoleGuest)
	assert.Equal(t, []string{
		"ROLE_GUEST",
		"PERMISSION_COURSE_VIEW_PUBLIC",
		"PERMISSION_REGISTRATION_REQUEST",
	}, authorities)

	// Every role grants exactly one ROLE_ authority plus its permissions.
	for _, role := range Roles() {
		authorities := Authorities(role)
		assert.Equal(t, "ROLE_"+role.Name(), authorities[0])
		assert.Len(t, authorities, len(role.Permissions())+1)
	}
}

func TestHasPermission(t *testing.T) {
	assert.True(t, RoleStudent.HasPermission(PermCourseEnroll))
	assert.False(t, RoleStudent.HasPermission(PermSystemManage))
	assert.True(t, RoleSuperAdmin.HasPermission(PermSystemManage))
	assert.False(t, RoleGuest.HasPermission(PermCourseView))
}

func TestRolePriority(t *testing.T) {
	assert.True(t, RoleSuperAdmin.HasHigherOrEqualPriority(RoleGuest))
	assert.True(t, RoleAdmin.HasHigherOrEqualPriority(RoleAdmin))
	assert.False(t, RoleStudent.HasHigherOrEqualPriority(RoleTeacher))

	// Reflexive for every role, antisymmetric for distinct roles.
	for _, a := range Roles() {
		assert.True(t, a.HasHigherOrEqualPriority(a))
		for _, b := range Roles() {
			if a != b {
				assert.NotEqual(t,
					a.HasHigherOrEqualPriority(b),
					b.HasHigherOrEqualPriority(a),
					"priority must order %s and %s", a, b)
			}
		}
	}
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(RoleAdmin, "ADMIN"))
	assert.True(t, Allows(RoleAdmin, "ROLE_ADMIN"))
	assert.True(t, Allows(RoleAdmin, "PERMISSION_COURSE_MANAGE_ALL"))
	assert.True(t, Allows(RoleAdmin, "COURSE_MANAGE_ALL"))
	assert.False(t, Allows(RoleStudent, "ROLE_ADMIN", "PERMISSION_SYSTEM_MANAGE"))
	assert.True(t, Allows(RoleStudent, "ROLE_ADMIN", "COURSE_ENROLL"))

	// Empty requirement list allows any role.
	assert.True(t, Allows(RoleGuest))
}
