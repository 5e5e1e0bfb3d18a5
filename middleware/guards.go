package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parlour/auth"
	"parlour/models"
	"parlour/utils"
)

type ctxKey string

const emailKey ctxKey = "email"

// Decision is the outcome of a guard: either Allow or Deny with a reason
// from the utils error taxonomy.
type Decision struct {
	allowed bool
	reason  error
}

func Allow() Decision { return Decision{allowed: true} }

func Deny(reason error) Decision { return Decision{reason: reason} }

func (d Decision) Allowed() bool { return d.allowed }

func (d Decision) Reason() error { return d.reason }

// Guard inspects a request. An allowing guard may return an enriched
// context for the guards and handler that follow it.
type Guard func(r *http.Request, ps httprouter.Params) (context.Context, Decision)

// Protect evaluates guards in order and runs h only when every guard allows.
// The first denial answers the request.
func Protect(h httprouter.Handle, guards ...Guard) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		for _, g := range guards {
			ctx, d := g(r, ps)
			if !d.Allowed() {
				utils.RespondWithErr(w, r, d.Reason())
				return
			}
			if ctx != nil {
				r = r.WithContext(ctx)
			}
		}
		h(w, r, ps)
	}
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type RoleLookup interface {
	RoleOf(ctx context.Context, email string) (string, error)
}

// Authenticated admits requests carrying a valid bearer token and stores the
// bound email in the context. No header or a non-bearer header is
// Unauthenticated; a token that fails verification is Forbidden.
func Authenticated(v TokenVerifier) Guard {
	return func(r *http.Request, _ httprouter.Params) (context.Context, Decision) {
		token, present, ok := utils.BearerToken(r)
		if !present || !ok {
			return nil, Deny(utils.ErrUnauthenticated)
		}
		email, err := v.Verify(token)
		if errors.Is(err, auth.ErrUnauthenticated) {
			return nil, Deny(utils.ErrUnauthenticated)
		}
		if err != nil {
			return nil, Deny(utils.ErrForbidden)
		}
		return WithEmail(r.Context(), email), Allow()
	}
}

// Admin must run after Authenticated. Unknown accounts and non-admins get
// the same Forbidden answer.
func Admin(roles RoleLookup) Guard {
	return func(r *http.Request, _ httprouter.Params) (context.Context, Decision) {
		email, ok := EmailFrom(r.Context())
		if !ok {
			return nil, Deny(utils.ErrUnauthenticated)
		}
		role, err := roles.RoleOf(r.Context(), email)
		if errors.Is(err, utils.ErrNotFound) {
			return nil, Deny(utils.ErrForbidden)
		}
		if err != nil {
			return nil, Deny(fmt.Errorf("admin check: %w", err))
		}
		if role != models.RoleAdmin {
			return nil, Deny(utils.ErrForbidden)
		}
		return nil, Allow()
	}
}

// SelfOnly must run after Authenticated. It admits the caller only when the
// path parameter param names the caller's own email.
func SelfOnly(param string) Guard {
	return func(r *http.Request, ps httprouter.Params) (context.Context, Decision) {
		email, ok := EmailFrom(r.Context())
		if !ok {
			return nil, Deny(utils.ErrUnauthenticated)
		}
		if ps.ByName(param) != email {
			return nil, Deny(utils.ErrForbidden)
		}
		return nil, Allow()
	}
}

func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// EmailFrom returns the verified caller email set by Authenticated.
func EmailFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}
