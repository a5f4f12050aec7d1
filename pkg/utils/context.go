package utils

import "context"

// caller is what the auth middleware learned about the request's user.
type caller struct {
	userID int64
	role   string
}

type callerKey struct{}

// SetUserContext attaches the authenticated user to ctx.
func SetUserContext(ctx context.Context, userID int64, role string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller{userID: userID, role: role})
}

// GetUserIDFromContext returns the authenticated user id, false when the
// request is anonymous.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	c, ok := ctx.Value(callerKey{}).(caller)
	if !ok || c.userID < 1 {
		return 0, false
	}
	return c.userID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(callerKey{}).(caller)
	if !ok || c.role == "" {
		return "", false
	}
	return c.role, true
}
