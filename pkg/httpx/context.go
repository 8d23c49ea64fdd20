package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID        ctxKey = "user_id"
	CtxKeyEmail         ctxKey = "email"
	CtxKeyEmailVerified ctxKey = "email_verified"
)

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CtxKeyUserID).(string)
	return id, ok && id != ""
}

// EmailFromContext returns the authenticated user's email and whether that
// email has been verified.
func EmailFromContext(ctx context.Context) (email string, verified bool) {
	email, _ = ctx.Value(CtxKeyEmail).(string)
	verified, _ = ctx.Value(CtxKeyEmailVerified).(bool)
	return email, verified
}
