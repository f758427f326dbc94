package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/selfheal/observe"
)

// Guard authenticates requests and authorizes them against a policy.
type Guard struct {
	authn  Authenticator
	authz  Authorizer
	logger observe.Logger
}

// NewGuard creates a guard. A nil authenticator admits every request as
// Anonymous; a nil authorizer allows every action.
func NewGuard(authn Authenticator, authz Authorizer, logger observe.Logger) *Guard {
	if authz == nil {
		authz = AllowAll{}
	}
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Guard{authn: authn, authz: authz, logger: logger}
}

// Require wraps next so that only identities allowed to perform action reach
// it. The identity is stored in the request context.
func (g *Guard) Require(action string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := Anonymous(Wildcard)
		if g.authn != nil {
			var err error
			id, err = g.authn.Authenticate(ctx, r.Header)
			switch {
			case IsAuthFailure(err):
				g.logger.Warn(ctx, "authentication failed",
					observe.Field{Key: "action", Value: action},
					observe.Field{Key: "error", Value: err})
				w.Header().Set("WWW-Authenticate", `Bearer realm="selfheal"`)
				writeError(w, http.StatusUnauthorized, err)
				return
			case err != nil:
				g.logger.Error(ctx, "authentication error",
					observe.Field{Key: "action", Value: action},
					observe.Field{Key: "error", Value: err})
				writeError(w, http.StatusInternalServerError, errors.New("authentication unavailable"))
				return
			}
		}

		if err := g.authz.Authorize(ctx, id, action); err != nil {
			g.logger.Warn(ctx, "authorization denied",
				observe.Field{Key: "principal", Value: id.Principal},
				observe.Field{Key: "action", Value: action})
			writeError(w, http.StatusForbidden, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
