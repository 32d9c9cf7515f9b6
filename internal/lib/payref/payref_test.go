package payref

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	ref := Generate("3f2a9c1e-5b7d-4e2a-9c1e-0000abcdef01", models.PlanPro, now)
	assert.Equal(t, "TENANT_ABCDEF01_PRO_202506", ref)
}

func TestGenerateParse_RoundTrip(t *testing.T) {
	plans := []models.Plan{models.PlanBasic, models.PlanPro, models.PlanEnterprise}
	moments := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	for range 20 {
		tenantID := uuid.New().String()
		for _, plan := range plans {
			for _, now := range moments {
				ref := Generate(tenantID, plan, now)
				got, ok := Parse(ref)
				require.True(t, ok, ref)
				assert.Equal(t, TenantFragment(tenantID), got.TenantFragment)
				parsedPlan, ok := models.ParsePlan(got.Plan)
				require.True(t, ok)
				assert.Equal(t, plan, parsedPlan)
				assert.Equal(t, now.Format("200601"), got.YearMonth)
			}
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"TENANT_abcdef01_PRO_202506",
		"TENANT_ABCDEF01_PRO_20256",
		"TENANT_ABCDEF01_PRO_202506_X",
		"XTENANT_ABCDEF01_PRO_202506",
		"TENANT_ABCDEFGH_PRO_202506",
		"TENANT__PRO_202506",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, ok := Parse(in)
			assert.False(t, ok)
			assert.Equal(t, Reference{}, got)
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
		found       bool
	}{
		{
			name:        "reference in bank memo",
			description: "CT tu 123 TENANT_ABCDEF01_PRO_202506 chuyen tien",
			want:        "TENANT_ABCDEF01_PRO_202506",
			found:       true,
		},
		{
			name:        "lower case memo",
			description: "ck tenant_abcdef01_basic_202507",
			want:        "TENANT_ABCDEF01_BASIC_202507",
			found:       true,
		},
		{
			name:        "no reference",
			description: "chuyen tien an trua",
			found:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.description)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderCode(t *testing.T) {
	now := time.UnixMilli(1_749_513_600_123)
	tenantID := "3f2a9c1e-5b7d-4e2a-9c1e-0000abcdef01"

	code := OrderCode(tenantID, models.PlanEnterprise, now)
	s := strconv.FormatInt(code, 10)

	require.Len(t, s, 10)
	assert.Equal(t, "3", s[:1])
	assert.Equal(t, "600123", s[4:])

	// детерминирован для одного и того же момента
	assert.Equal(t, code, OrderCode(tenantID, models.PlanEnterprise, now))
	assert.Equal(t, byte('1'), strconv.FormatInt(OrderCode(tenantID, models.PlanBasic, now), 10)[0])
}
