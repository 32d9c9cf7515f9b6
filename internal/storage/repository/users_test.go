package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_UsersAndShifts(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	tenantID := factory.CreateTenant(t, "people-co")
	otherID := factory.CreateTenant(t, "people-other")

	morning := factory.CreateShift(t, tenantID, "Morning", "06:00", "14:00")
	factory.CreateShift(t, tenantID, "Night", "22:00", "06:00")
	withShift := factory.CreateUser(t, tenantID, "Kitchen", &morning)
	factory.CreateUser(t, tenantID, "IT", nil)
	factory.CreateUser(t, otherID, "IT", nil)

	inactive := factory.CreateUser(t, tenantID, "IT", nil)
	_, err := storage.DB.Exec(`UPDATE users SET active = false WHERE id = $1`, inactive)
	require.NoError(t, err)

	users, err := storage.ListActiveUsers(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.True(t, u.Active)
		assert.Equal(t, tenantID, u.TenantID)
		if u.ID == withShift {
			require.NotNil(t, u.ShiftID)
			assert.Equal(t, morning, *u.ShiftID)
		} else {
			assert.Nil(t, u.ShiftID)
		}
	}

	shifts, err := storage.ListShifts(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, "Morning", shifts[0].Name)
	assert.Equal(t, "Night", shifts[1].Name)
}
