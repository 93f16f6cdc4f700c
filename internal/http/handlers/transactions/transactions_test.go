package transactions_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/subscription-gatekeeper/internal/http/handlers/transactions"
	"github.com/membergate/subscription-gatekeeper/internal/http/middlewarectx"
	"github.com/membergate/subscription-gatekeeper/internal/http/response"
	"github.com/membergate/subscription-gatekeeper/internal/models"
	"github.com/membergate/subscription-gatekeeper/internal/services/history"
)

type mockLister struct {
	ListFunc func(ctx context.Context, userID int64, direction history.Direction, transactionID string) (*models.HistoryPage, error)
}

func (m *mockLister) List(ctx context.Context, userID int64, direction history.Direction, transactionID string) (*models.HistoryPage, error) {
	return m.ListFunc(ctx, userID, direction, transactionID)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func newHistoryRequest(direction, transactionID string, userID int64) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("direction", direction)
	rctx.URLParams.Add("transactionID", transactionID)
	req := httptest.NewRequest(http.MethodGet,
		"/member/subscription-history/"+direction+"/"+transactionID, nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middlewarectx.UserID, userID)
	return req.WithContext(ctx)
}

func TestTransactionsHandler(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		lister := &mockLister{
			ListFunc: func(_ context.Context, userID int64, direction history.Direction, transactionID string) (*models.HistoryPage, error) {
				require.Equal(t, int64(42), userID)
				require.Equal(t, history.DirectionNone, direction)
				require.Empty(t, transactionID)
				return &models.HistoryPage{
					Items: []models.HistoryItem{
						{ID: "ch_1", Amount: 999, Currency: "usd", Status: "succeeded"},
					},
					HasMore: true,
				}, nil
			},
		}

		req := newHistoryRequest("none", "none", 42)
		w := httptest.NewRecorder()

		transactions.New(makeLogger(), lister).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusOK, resp.Status)
		assert.Equal(t, true, resp.Data.(map[string]any)["has_more"])
	})

	t.Run("next page forwards cursor", func(t *testing.T) {
		lister := &mockLister{
			ListFunc: func(_ context.Context, _ int64, direction history.Direction, transactionID string) (*models.HistoryPage, error) {
				require.Equal(t, history.DirectionNext, direction)
				require.Equal(t, "ch_100", transactionID)
				return &models.HistoryPage{}, nil
			},
		}

		req := newHistoryRequest("next", "ch_100", 42)
		w := httptest.NewRecorder()

		transactions.New(makeLogger(), lister).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no history", func(t *testing.T) {
		lister := &mockLister{
			ListFunc: func(context.Context, int64, history.Direction, string) (*models.HistoryPage, error) {
				return nil, history.ErrNoHistory
			},
		}

		req := newHistoryRequest("none", "none", 42)
		w := httptest.NewRecorder()

		transactions.New(makeLogger(), lister).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "You have no transaction history!")
	})

	t.Run("gateway failure", func(t *testing.T) {
		lister := &mockLister{
			ListFunc: func(context.Context, int64, history.Direction, string) (*models.HistoryPage, error) {
				return nil, errors.New("processor unavailable")
			},
		}

		req := newHistoryRequest("prev", "ch_100", 42)
		w := httptest.NewRecorder()

		transactions.New(makeLogger(), lister).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "failed to list transaction history")
	})
}
