package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/meal-ordering/internal/lib/clock"
	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) GetOrder(ctx context.Context, userID, date string) (*models.Order, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockRepository) CreateOrder(ctx context.Context, userID, date string) (*models.Order, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockRepository) ToggleOrder(ctx context.Context, userID, date string) (*models.Order, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, userID, from, to string, limit, offset int) ([]*models.Order, int, error) {
	args := m.Called(ctx, userID, from, to, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Order), args.Int(1), args.Error(2)
}

func (m *MockRepository) LockOrders(ctx context.Context, tenantID, date string) (int64, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Get(0).(int64), args.Error(1)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) OrderToggled(result string) {
	m.Called(result)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// at момент в бизнес-часовом поясе.
func at(date string, hour, minute int) clock.Fixed {
	d, err := time.ParseInLocation("2006-01-02", date, clock.Location)
	if err != nil {
		panic(err)
	}
	return clock.Fixed{T: d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)}
}

func TestService_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	existing := &models.Order{ID: 1, UserID: "u", Date: "2025-06-10", Status: models.StatusNotEating}
	created := &models.Order{ID: 2, UserID: "u", Date: "2025-06-10", Status: models.StatusEating}
	dbErr := errors.New("db down")

	tests := []struct {
		name       string
		setupMocks func(r *MockRepository)
		date       string
		want       *models.Order
		wantErr    error
	}{
		{
			name: "existing order",
			setupMocks: func(r *MockRepository) {
				r.On("GetOrder", ctx, "u", "2025-06-10").Return(existing, nil).Once()
			},
			date: "2025-06-10",
			want: existing,
		},
		{
			name: "создание при отсутствии",
			setupMocks: func(r *MockRepository) {
				r.On("GetOrder", ctx, "u", "2025-06-10").Return(nil, models.ErrNotFound).Once()
				r.On("CreateOrder", ctx, "u", "2025-06-10").Return(created, nil).Once()
			},
			date: "2025-06-10",
			want: created,
		},
		{
			name: "проигранная гонка перечитывает строку",
			setupMocks: func(r *MockRepository) {
				r.On("GetOrder", ctx, "u", "2025-06-10").Return(nil, models.ErrNotFound).Once()
				r.On("CreateOrder", ctx, "u", "2025-06-10").Return(nil, models.ErrConflict).Once()
				r.On("GetOrder", ctx, "u", "2025-06-10").Return(created, nil).Once()
			},
			date: "2025-06-10",
			want: created,
		},
		{
			name: "store error propagates",
			setupMocks: func(r *MockRepository) {
				r.On("GetOrder", ctx, "u", "2025-06-10").Return(nil, dbErr).Once()
			},
			date:    "2025-06-10",
			wantErr: dbErr,
		},
		{
			name:       "невалидная дата",
			setupMocks: func(_ *MockRepository) {},
			date:       "10-06-2025",
			wantErr:    models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)
			svc := New(repo, at("2025-06-10", 5, 30), 6, new(MockMetrics), newNoopLogger())

			got, err := svc.GetOrCreate(ctx, "u", tt.date)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Toggle(t *testing.T) {
	ctx := context.Background()
	toggled := &models.Order{ID: 1, UserID: "u", Date: "2025-06-10", Status: models.StatusNotEating}

	tests := []struct {
		name       string
		clock      clock.Fixed
		date       string
		setupMocks func(r *MockRepository)
		metric     string
		wantErr    error
	}{
		{
			name:  "до дедлайна",
			clock: at("2025-06-10", 5, 30),
			date:  "2025-06-10",
			setupMocks: func(r *MockRepository) {
				r.On("ToggleOrder", ctx, "u", "2025-06-10").Return(toggled, nil).Once()
			},
			metric: "ok",
		},
		{
			name:       "после дедлайна",
			clock:      at("2025-06-10", 6, 15),
			date:       "2025-06-10",
			setupMocks: func(_ *MockRepository) {},
			metric:     "deadline_passed",
			wantErr:    models.ErrDeadlinePassed,
		},
		{
			name:       "ровно в дедлайн",
			clock:      at("2025-06-10", 6, 0),
			date:       "2025-06-10",
			setupMocks: func(_ *MockRepository) {},
			metric:     "deadline_passed",
			wantErr:    models.ErrDeadlinePassed,
		},
		{
			name:       "past date",
			clock:      at("2025-06-10", 1, 0),
			date:       "2025-06-09",
			setupMocks: func(_ *MockRepository) {},
			metric:     "deadline_passed",
			wantErr:    models.ErrDeadlinePassed,
		},
		{
			name:  "заблокирован",
			clock: at("2025-06-10", 5, 0),
			date:  "2025-06-10",
			setupMocks: func(r *MockRepository) {
				r.On("ToggleOrder", ctx, "u", "2025-06-10").Return(nil, models.ErrOrderLocked).Once()
			},
			metric:  "locked",
			wantErr: models.ErrOrderLocked,
		},
		{
			name:  "нет заказа",
			clock: at("2025-06-10", 5, 0),
			date:  "2025-06-10",
			setupMocks: func(r *MockRepository) {
				r.On("ToggleOrder", ctx, "u", "2025-06-10").Return(nil, models.ErrNotFound).Once()
			},
			metric:  "not_found",
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)
			metrics := new(MockMetrics)
			metrics.On("OrderToggled", tt.metric).Once()
			svc := New(repo, tt.clock, 6, metrics, newNoopLogger())

			got, err := svc.Toggle(ctx, "u", tt.date)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, toggled, got)
			}
			repo.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

// Заблокированный заказ после дедлайна: побеждает дедлайн, хранилище не трогается.
func TestService_Toggle_DeadlineBeforeLock(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("GetOrder", ctx, "u", "2025-06-10").
		Return(&models.Order{ID: 1, UserID: "u", Date: "2025-06-10", Status: models.StatusEating, Locked: true}, nil).Maybe()
	metrics := new(MockMetrics)
	metrics.On("OrderToggled", "deadline_passed").Once()

	svc := New(repo, at("2025-06-10", 6, 15), 6, metrics, newNoopLogger())
	got, err := svc.Toggle(ctx, "u", "2025-06-10")

	assert.ErrorIs(t, err, models.ErrDeadlinePassed)
	assert.NotErrorIs(t, err, models.ErrOrderLocked)
	assert.Nil(t, got)
	repo.AssertNotCalled(t, "ToggleOrder", mock.Anything, mock.Anything, mock.Anything)
	metrics.AssertExpectations(t)
}

func TestService_ToggleToday_UsesBusinessDate(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	metrics := new(MockMetrics)
	metrics.On("OrderToggled", "ok").Once()

	// 22:30 UTC 9 июня = 05:30 ICT 10 июня
	clk := clock.Fixed{T: time.Date(2025, 6, 9, 22, 30, 0, 0, time.UTC)}
	repo.On("ToggleOrder", ctx, "u", "2025-06-10").
		Return(&models.Order{Date: "2025-06-10", Status: models.StatusNotEating}, nil).Once()

	svc := New(repo, clk, 6, metrics, newNoopLogger())
	got, err := svc.ToggleToday(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotEating, got.Status)
	repo.AssertExpectations(t)
}

func TestService_ListForRange(t *testing.T) {
	ctx := context.Background()
	orders := []*models.Order{{ID: 2, Date: "2025-06-02"}, {ID: 1, Date: "2025-06-01"}}

	tests := []struct {
		name       string
		query      models.OrderHistoryQuery
		setupMocks func(r *MockRepository)
		wantPage   *models.OrderPage
		wantErr    error
	}{
		{
			name:  "вторая страница",
			query: models.OrderHistoryQuery{From: "2025-06-01", To: "2025-06-30", Page: 2, PageSize: 10},
			setupMocks: func(r *MockRepository) {
				r.On("ListOrders", ctx, "u", "2025-06-01", "2025-06-30", 10, 10).Return(orders, 12, nil).Once()
			},
			wantPage: &models.OrderPage{Orders: orders, Total: 12, Page: 2, PageSize: 10},
		},
		{
			name:  "defaults and clamp",
			query: models.OrderHistoryQuery{From: "2025-06-01", To: "2025-06-01", PageSize: 1000},
			setupMocks: func(r *MockRepository) {
				r.On("ListOrders", ctx, "u", "2025-06-01", "2025-06-01", 100, 0).Return(orders, 2, nil).Once()
			},
			wantPage: &models.OrderPage{Orders: orders, Total: 2, Page: 1, PageSize: 100},
		},
		{
			name:       "перевёрнутый период",
			query:      models.OrderHistoryQuery{From: "2025-06-30", To: "2025-06-01"},
			setupMocks: func(_ *MockRepository) {},
			wantErr:    models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)
			svc := New(repo, at("2025-06-10", 5, 0), 6, new(MockMetrics), newNoopLogger())

			page, err := svc.ListForRange(ctx, "u", tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPage, page)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_LockDay(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("LockOrders", ctx, "t-1", "2025-06-10").Return(int64(7), nil).Once()

	svc := New(repo, at("2025-06-10", 7, 0), 6, new(MockMetrics), newNoopLogger())
	n, err := svc.LockDay(ctx, "t-1", "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = svc.LockDay(ctx, "t-1", "bad")
	assert.ErrorIs(t, err, models.ErrValidation)
	repo.AssertExpectations(t)
}
