package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-autoclear/internal/application/service"
	"github.com/eshaffer321/ledger-autoclear/internal/infrastructure/storage"
)

func setChiURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

// newRequest builds a request with an optional JSON body and the {id} URL param.
func newRequest(t *testing.T, method, target, id string, body interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if id != "" {
		req = req.WithContext(setChiURLParam(req.Context(), "id", id))
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func newService(repo storage.Repository) *service.AutoClearService {
	return service.NewAutoClearService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// seedAccount stores an account "checking" with a cleared balance of -10.00
// and uncleared splits of -2.50, -0.50 and -1.00.
func seedAccount(t *testing.T, repo storage.Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.CreateAccount(ctx, &storage.Account{ID: "checking", Name: "Checking", Denom: 100}))

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, s := range []struct {
		id      string
		num     int64
		cleared bool
	}{
		{"opening", -1000, true},
		{"groceries", -250, false},
		{"coffee", -50, false},
		{"books", -100, false},
	} {
		require.NoError(t, repo.AddSplit(ctx, &storage.Split{
			ID:          s.id,
			AccountID:   "checking",
			AmountNum:   s.num,
			AmountDenom: 100,
			Cleared:     s.cleared,
			PostedAt:    base.AddDate(0, 0, i),
		}))
	}
}
