package tracking

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/clavionx/ecs-auth/pkg/rbac"
)

// contextKey is a value for use with context.WithValue. It's used as a
// pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "tracking context value " + k.name
}

// PrincipalKey is the context key under which the authenticated principal is
// stored.
var PrincipalKey = &contextKey{"Principal"}

// Principal identifies the authenticated caller of a request.
type Principal struct {
	UserID    uuid.UUID
	Username  string
	Role      rbac.Role
	SessionID string
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext extracts the principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

// PrincipalFromRequest extracts the principal from the request context.
func PrincipalFromRequest(r *http.Request) (Principal, bool) {
	return PrincipalFromContext(r.Context())
}
