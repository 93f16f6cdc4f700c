package subscribe_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membergate/subscription-gatekeeper/internal/http/handlers/subscribe"
	"github.com/membergate/subscription-gatekeeper/internal/http/middlewarectx"
	"github.com/membergate/subscription-gatekeeper/internal/http/response"
)

type mockDirectory struct {
	GetCustomerRefFunc func(ctx context.Context, userID int64) (string, error)
}

func (m *mockDirectory) GetCustomerRef(ctx context.Context, userID int64) (string, error) {
	return m.GetCustomerRefFunc(ctx, userID)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func newSubscribeRequest(userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/member/subscriptions", nil)
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, userID))
}

func TestSubscribeHandler(t *testing.T) {
	t.Run("returning customer", func(t *testing.T) {
		directory := &mockDirectory{
			GetCustomerRefFunc: func(_ context.Context, userID int64) (string, error) {
				require.Equal(t, int64(42), userID)
				return "cus_123", nil
			},
		}

		w := httptest.NewRecorder()
		subscribe.New(makeLogger(), directory, 999).ServeHTTP(w, newSubscribeRequest(42))

		require.Equal(t, http.StatusOK, w.Code)
		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(999), data["amount_due"])
		assert.Equal(t, "usd", data["currency"])
		assert.Equal(t, true, data["has_customer_ref"])
	})

	t.Run("new customer", func(t *testing.T) {
		directory := &mockDirectory{
			GetCustomerRefFunc: func(context.Context, int64) (string, error) {
				return "", nil
			},
		}

		w := httptest.NewRecorder()
		subscribe.New(makeLogger(), directory, 999).ServeHTTP(w, newSubscribeRequest(42))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"has_customer_ref":false`)
	})

	t.Run("directory failure", func(t *testing.T) {
		directory := &mockDirectory{
			GetCustomerRefFunc: func(context.Context, int64) (string, error) {
				return "", errors.New("db down")
			},
		}

		w := httptest.NewRecorder()
		subscribe.New(makeLogger(), directory, 999).ServeHTTP(w, newSubscribeRequest(42))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
