package middlewares

const (
	CtxRequestID = "request_id"
	// gin-context key under which RequireAuth stores the principal
	ctxPrincipalKey = "auth.principal"
)
