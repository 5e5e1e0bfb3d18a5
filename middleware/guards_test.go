package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parlour/auth"
	"parlour/models"
	"parlour/utils"
)

type mockRoles struct {
	mock.Mock
}

func (m *mockRoles) RoleOf(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// echoEmail answers with the email the guards put into the context.
func echoEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, _ := EmailFrom(r.Context())
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"email": email})
}

func do(h httprouter.Handle, pattern, target, authz string) *httptest.ResponseRecorder {
	router := httprouter.New()
	router.GET(pattern, h)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticated(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	good, err := tokens.Issue("ayesha@example.com")
	require.NoError(t, err)
	foreign, err := auth.NewTokens("other", time.Hour).Issue("ayesha@example.com")
	require.NoError(t, err)

	h := Protect(echoEmail, Authenticated(tokens))

	tests := []struct {
		name   string
		authz  string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bare token", good, http.StatusUnauthorized},
		{"bad signature", "Bearer " + foreign, http.StatusForbidden},
		{"garbage", "Bearer garbage", http.StatusForbidden},
		{"valid", "Bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, "/r", "/r", tt.authz)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := do(h, "/r", "/r", "Bearer "+good)
	assert.JSONEq(t, `{"email":"ayesha@example.com"}`, rec.Body.String())
}

func TestAuthenticated_ExpiredTokenForbidden(t *testing.T) {
	issuedAt := time.Now().Add(-31 * 24 * time.Hour)
	old := auth.NewTokens("secret", auth.DefaultTTL, auth.WithClock(func() time.Time { return issuedAt }))
	token, err := old.Issue("ayesha@example.com")
	require.NoError(t, err)

	h := Protect(echoEmail, Authenticated(auth.NewTokens("secret", auth.DefaultTTL)))
	rec := do(h, "/r", "/r", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	roles := &mockRoles{}
	roles.On("RoleOf", mock.Anything, "boss@example.com").Return(models.RoleAdmin, nil)
	roles.On("RoleOf", mock.Anything, "guest@example.com").Return(models.RoleUser, nil)
	roles.On("RoleOf", mock.Anything, "ghost@example.com").Return("", fmt.Errorf("user: %w", utils.ErrNotFound))
	roles.On("RoleOf", mock.Anything, "flaky@example.com").Return("", fmt.Errorf("%w: timeout", utils.ErrUpstream))

	ran := false
	h := Protect(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ran = true
		w.WriteHeader(http.StatusOK)
	}, Authenticated(tokens), Admin(roles))

	bearer := func(email string) string {
		tok, err := tokens.Issue(email)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	rec := do(h, "/r", "/r", bearer("boss@example.com"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)

	ran = false
	guest := do(h, "/r", "/r", bearer("guest@example.com"))
	ghost := do(h, "/r", "/r", bearer("ghost@example.com"))
	assert.Equal(t, http.StatusForbidden, guest.Code)
	assert.Equal(t, http.StatusForbidden, ghost.Code)
	assert.Equal(t, guest.Body.String(), ghost.Body.String(), "must not reveal whether the account exists")
	assert.False(t, ran)

	rec = do(h, "/r", "/r", bearer("flaky@example.com"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(h, "/r", "/r", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	roles.AssertNumberOfCalls(t, "RoleOf", 4)
}

func TestAdmin_WithoutAuthenticated(t *testing.T) {
	h := Protect(echoEmail, Admin(&mockRoles{}))
	rec := do(h, "/r", "/r", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfOnly(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	tok, err := tokens.Issue("ayesha@example.com")
	require.NoError(t, err)

	h := Protect(echoEmail, Authenticated(tokens), SelfOnly("id"))

	rec := do(h, "/booking/:id", "/booking/ayesha@example.com", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, "/booking/:id", "/booking/rina@example.com", "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDecision(t *testing.T) {
	assert.True(t, Allow().Allowed())
	assert.Nil(t, Allow().Reason())

	d := Deny(utils.ErrForbidden)
	assert.False(t, d.Allowed())
	assert.ErrorIs(t, d.Reason(), utils.ErrForbidden)
}
