package httpx

import "context"

type ctxKey string

// Context keys populated by AuthnMiddleware. Handlers read the subject with
// ctx.Value(CtxKeyUserID).(string).
const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyScopes ctxKey = "scopes"
	CtxKeyClaims ctxKey = "claims"
)

func scopesFromCtx(ctx context.Context) []string {
	v, _ := ctx.Value(CtxKeyScopes).([]string)
	return v
}
