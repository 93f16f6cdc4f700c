package history

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/membergate/subscription-gatekeeper/internal/models"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetCustomerRef(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListCharges(ctx context.Context, customerID string, limit int64, startingAfter, endingBefore string) (*models.HistoryPage, error) {
	args := m.Called(ctx, customerID, limit, startingAfter, endingBefore)
	if res := args.Get(0); res != nil {
		return res.(*models.HistoryPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(dir *MockDirectory, gw *MockGateway) *Service {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(dir, gw, logger)
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, DirectionNext, ParseDirection("next"))
	assert.Equal(t, DirectionPrev, ParseDirection("prev"))
	assert.Equal(t, DirectionNone, ParseDirection(""))
	assert.Equal(t, DirectionNone, ParseDirection("sideways"))
}

func TestList_NoCustomerRef(t *testing.T) {
	tests := []struct {
		name          string
		direction     Direction
		transactionID string
	}{
		{name: "без направления", direction: DirectionNone},
		{name: "с курсором вперёд", direction: DirectionNext, transactionID: "ch_1"},
		{name: "с курсором назад", direction: DirectionPrev, transactionID: "ch_50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(MockDirectory)
			gw := new(MockGateway)
			dir.On("GetCustomerRef", mock.Anything, int64(7)).Return("", nil)
			service := newTestService(dir, gw)

			_, err := service.List(context.Background(), 7, tt.direction, tt.transactionID)

			require.ErrorIs(t, err, ErrNoHistory)
			gw.AssertNotCalled(t, "ListCharges")
		})
	}
}

func TestList_CursorMapping(t *testing.T) {
	page := &models.HistoryPage{
		Items:   []models.HistoryItem{{ID: "ch_2", Amount: 2000, Currency: "usd"}},
		HasMore: true,
	}

	tests := []struct {
		name              string
		direction         Direction
		transactionID     string
		wantStartingAfter string
		wantEndingBefore  string
	}{
		{
			name:              "next запрашивает строго после id",
			direction:         DirectionNext,
			transactionID:     "ch_1",
			wantStartingAfter: "ch_1",
		},
		{
			name:             "prev запрашивает строго до id",
			direction:        DirectionPrev,
			transactionID:    "ch_50",
			wantEndingBefore: "ch_50",
		},
		{
			name:          "без направления курсор игнорируется",
			direction:     DirectionNone,
			transactionID: "ch_1",
		},
		{
			name:      "next без id — первая страница",
			direction: DirectionNext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(MockDirectory)
			gw := new(MockGateway)
			dir.On("GetCustomerRef", mock.Anything, int64(7)).Return("cus_123", nil)
			gw.On("ListCharges", mock.Anything, "cus_123", int64(100),
				tt.wantStartingAfter, tt.wantEndingBefore).Return(page, nil)
			service := newTestService(dir, gw)

			got, err := service.List(context.Background(), 7, tt.direction, tt.transactionID)

			require.NoError(t, err)
			assert.Equal(t, page, got)
			gw.AssertExpectations(t)
		})
	}
}
