package rbac

const (
	rolePrefix       = "ROLE_"
	permissionPrefix = "PERMISSION_"
)

// Authorities returns the full authority set for a role: the role authority
// ("ROLE_" + name) plus one "PERMISSION_" authority per permission in the
// role's fixed set. Deterministic and side-effect free.
func Authorities(r Role) []string {
	perms := r.Permissions()
	authorities := make([]string, 0, len(perms)+1)
	authorities = append(authorities, rolePrefix+r.Name())
	for _, p := range perms {
		authorities = append(authorities, permissionPrefix+string(p))
	}
	return authorities
}

// Allows reports whether the role satisfies at least one of the requirements.
// A requirement is either a role name ("ADMIN"), a role authority
// ("ROLE_ADMIN"), a permission name ("COURSE_VIEW") or a permission authority
// ("PERMISSION_COURSE_VIEW"). An empty requirement list allows everyone.
func Allows(r Role, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, req := range required {
		if matches(r, req) {
			return true
		}
	}
	return false
}

func matches(r Role, req string) bool {
	switch {
	case len(req) > len(rolePrefix) && req[:len(rolePrefix)] == rolePrefix:
		return r.Name() == req[len(rolePrefix):]
	case len(req) > len(permissionPrefix) && req[:len(permissionPrefix)] == permissionPrefix:
		return r.HasPermission(Permission(req[len(permissionPrefix):]))
	default:
		if r.Name() == req {
			return true
		}
		return r.HasPermission(Permission(req))
	}
}
