package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	svc, err := NewService(st.UserRepo(), "test-secret", time.Hour)
	require.NoError(t, err)
	return svc
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx, "ana", "s3cret"))

	tok, err := svc.Login(ctx, "ana", "s3cret")
	require.NoError(t, err)

	user, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ana", user)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx, "ana", "s3cret"))

	for _, c := range [][2]string{{"ana", "wrong"}, {"bob", "s3cret"}} {
		_, err := svc.Login(ctx, c[0], c[1])
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q) err = %v, want ErrInvalidCredentials", c[0], err)
		}
	}
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx, "ana", "first"))
	require.NoError(t, svc.Seed(ctx, "ana", "second"))
	require.NoError(t, svc.Seed(ctx, "", ""))

	_, err := svc.Login(ctx, "ana", "first")
	assert.NoError(t, err)

	require.NoError(t, svc.SetPassword(ctx, "ana", "second"))
	_, err = svc.Login(ctx, "ana", "second")
	assert.NoError(t, err)
}

func TestVerifyRejectsExpiredAndForged(t *testing.T) {
	svc := newTestService(t)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	tok, err := svc.Issue("ana")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewService(nil, "another-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue("ana")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewServiceNeedsSecret(t *testing.T) {
	_, err := NewService(nil, "", 0)
	assert.Error(t, err)
}

func TestAuthenticateMiddleware(t *testing.T) {
	svc := newTestService(t)
	tok, err := svc.Issue("ana")
	require.NoError(t, err)

	h := svc.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok {
			t.Fatalf("no user in context")
		}
		_, _ = w.Write([]byte(u))
	}))

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + tok, http.StatusOK},
		{"lowercase scheme", "bearer " + tok, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
		{"basic", "Basic YW5hOnB3", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "ana", rec.Body.String())
			}
		})
	}
}
