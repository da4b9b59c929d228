package middleware

import (
	"context"
	"net/http"

	"github.com/pradeepsarraf/sajilomart-backend/api/responses"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/logger"
)

// AdminChecker resolves whether an email is on the admin allowlist.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// AdminOnly gates a route group to allowlisted admins. It must run after Auth
// so the email is already in the context. Admin status is resolved against the
// allowlist on every request, so revoking an admin takes effect immediately.
func AdminOnly(checker AdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := UserEmailFromContext(r.Context())
			if email == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ok, err := checker.IsAdmin(r.Context(), email)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve admin status"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxIsAdmin, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
