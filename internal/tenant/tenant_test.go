package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountContext(t *testing.T) {
	_, ok := AccountID(context.Background())
	assert.False(t, ok)

	_, err := RequireAccount(context.Background())
	assert.ErrorIs(t, err, ErrNoAccount)

	ctx := WithAccount(context.Background(), "acct-1")
	id, err := RequireAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", id)

	_, ok = AccountID(WithAccount(context.Background(), ""))
	assert.False(t, ok)
}

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AccountID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("header present", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderAccountID, " acct-9 ")
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "acct-9", seen)
	})

	t.Run("local dev default", func(t *testing.T) {
		rr := httptest.NewRecorder()
		LocalDevMiddleware("dev-account")(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "dev-account", seen)
	})
}
