package auth

import (
	"context"
	"net/http"

	coreauth "github.com/NordCoder/Vidrate/internal/auth"
	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/services/api/httpx"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.Identity, error)
}

// RequireAuth runs the gate in front of next. Admitted requests carry the
// identity and raw token in their context.
func RequireAuth(gate Authenticator) runtime.Middleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			token, _ := coreauth.BearerToken(r.Header.Get("Authorization"))
			id, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				if status, _ := httpx.Translate(err); status == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="vidrate"`)
				}
				httpx.WriteErr(w, err)
				return
			}
			next(w, r.WithContext(coreauth.WithIdentity(r.Context(), id, token)), params)
		}
	}
}
