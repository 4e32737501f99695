package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facility/internal/domain"
	logpkg "github.com/kailas-cloud/facility/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type callerKey struct{}

// ContextWithCaller stores the authenticated account in the context.
func ContextWithCaller(ctx context.Context, caller common.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the authenticated account, if any.
func CallerFromContext(ctx context.Context) (common.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(common.Address)
	return caller, ok
}

// BearerAuthMiddleware resolves Bearer tokens to the account each key acts as.
// If accounts is empty, authentication is disabled: requests pass through without
// a caller, so only read routes can succeed.
func BearerAuthMiddleware(accounts map[string]common.Address) func(http.Handler) http.Handler {
	valid := make(map[string]common.Address, len(accounts))
	for k, addr := range accounts {
		if k != "" {
			valid[k] = addr
		}
	}

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, domain.CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					domain.CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			caller, ok := valid[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, domain.CodeUnauthorized, "invalid api key")
				return
			}

			ctx := ContextWithCaller(r.Context(), caller)
			ctx = logpkg.With(ctx, zap.String("caller", caller.Hex()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
