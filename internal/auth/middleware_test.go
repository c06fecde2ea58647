package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
)

type fakeAccounts map[string]*model.Account

func (f fakeAccounts) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	a, ok := f[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	return a, nil
}

func TestRequireOwner(t *testing.T) {
	ts := newTestTokenService(t)
	accounts := fakeAccounts{
		"active":   {ID: "active", Kind: model.OwnerStudent, IsActive: true},
		"inactive": {ID: "inactive", Kind: model.OwnerStudent, IsActive: false},
	}

	var seen model.Owner
	h := RequireOwner(ts, accounts, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token := func(owner model.Owner) string {
		s, err := ts.Generate(owner)
		require.NoError(t, err)
		return s
	}
	active := model.Owner{ID: "active", Kind: model.OwnerStudent}

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(active)) }, http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token(active)}) }, http.StatusNoContent},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token(active)) }, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"inactive account", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(model.Owner{ID: "inactive", Kind: model.OwnerStudent}))
		}, http.StatusUnauthorized},
		{"unknown account", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(model.Owner{ID: "ghost", Kind: model.OwnerStudent}))
		}, http.StatusUnauthorized},
		{"kind mismatch", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(model.Owner{ID: "active", Kind: model.OwnerCounselor}))
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = model.Owner{}
			req := httptest.NewRequest(http.MethodGet, "/api/moods", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, active, seen)
			} else {
				assert.Contains(t, rec.Body.String(), `"unauthorized"`)
			}
		})
	}
}

type failingAccounts struct{ err error }

func (f failingAccounts) GetAccountByID(context.Context, string) (*model.Account, error) {
	return nil, f.err
}

func TestRequireOwner_LookupFailure(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate(model.Owner{ID: "active", Kind: model.OwnerStudent})
	require.NoError(t, err)

	tests := []struct {
		name      string
		err       error
		status    int
		wantError string
	}{
		{"store down", errors.New("sqlite: database is locked"), http.StatusInternalServerError, "store_failure"},
		{"wrapped store failure", apperror.StoreFailure("loading account", errors.New("i/o timeout")), http.StatusInternalServerError, "store_failure"},
		{"not found", apperror.NotFound("account", "active"), http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireOwner(ts, failingAccounts{err: tt.err}, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/moods", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotContains(t, body["message"], "locked", "driver detail stays in the log")
		})
	}
}

func TestOwnerFromContext_Empty(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	assert.False(t, ok)

	owner, ok := OwnerFromContext(WithOwner(context.Background(), testOwner))
	assert.True(t, ok)
	assert.Equal(t, testOwner, owner)
}
