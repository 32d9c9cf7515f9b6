package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/meal-ordering/internal/migrations"
)

// TestDataFactory создаёт тестовые данные напрямую через SQL.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateTenant создаёт тенанта в статусе trialing.
func (f *TestDataFactory) CreateTenant(t *testing.T, slug string) string {
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO tenants (id, name, slug, trial_ends_at)
		VALUES ($1, $2, $3, $4)`, id, "Tenant "+slug, slug, time.Now().Add(14*24*time.Hour))
	require.NoError(t, err)
	return id
}

// CreateShift создаёт смену тенанта.
func (f *TestDataFactory) CreateShift(t *testing.T, tenantID, name, start, end string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO shifts (tenant_id, name, start_time, end_time)
		VALUES ($1, $2, $3, $4) RETURNING id`, tenantID, name, start, end).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateUser создаёт активного сотрудника.
func (f *TestDataFactory) CreateUser(t *testing.T, tenantID, department string, shiftID *int64) string {
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, tenant_id, email, full_name, department, shift_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, tenantID, id+"@example.com", "User "+id[:8], department, shiftID)
	require.NoError(t, err)
	return id
}

// CreateOrder создаёт заказ с заданным статусом.
func (f *TestDataFactory) CreateOrder(t *testing.T, userID, date, status string, locked bool) {
	_, err := f.storage.DB.Exec(`INSERT INTO orders (user_id, date, status, locked)
		VALUES ($1, $2::date, $3, $4)`, userID, date, status, locked)
	require.NoError(t, err)
}

// OrderStatus читает статус заказа.
func (f *TestDataFactory) OrderStatus(t *testing.T, userID, date string) string {
	var status string
	err := f.storage.DB.QueryRow(`SELECT status FROM orders WHERE user_id = $1 AND date = $2::date`,
		userID, date).Scan(&status)
	require.NoError(t, err)
	return status
}

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("integration test requires docker")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}

	return storage, cleanup
}
