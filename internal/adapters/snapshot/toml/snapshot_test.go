package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "catalog.toml")
	cfg := viper.New()
	cfg.Set("catalog.snapshot_path", path)

	store, err := NewStore(cfg, fixedClock{at: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	return store, path
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	original := []domain.InvestmentOption{
		{
			ID:                "1",
			Name:              "Tesouro Direto",
			Description:       "Título público",
			RiskLevel:         domain.RiskLow,
			ExpectedReturn:    "8% a.a.",
			CurrentValue:      1100,
			InitialInvestment: 1000,
			MinInvestment:     100,
			MaxInvestment:     50000,
			ExpirationPeriod:  "2 anos",
			Investors: []domain.Investor{
				{Name: "João", InvestedAmount: 500},
				{Name: "Maria", InvestedAmount: 300},
			},
			Performance: []domain.PerformanceSample{
				{At: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1000},
				{At: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Value: 1050},
			},
		},
		{ID: "2", Name: "CDB", RiskLevel: domain.RiskMedium},
	}

	require.NoError(t, store.Save(context.Background(), original))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestSnapshotLoadMissingFileIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSnapshotSaveReplacesWholesale(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), []domain.InvestmentOption{
		{ID: "1", Name: "Tesouro Direto"},
		{ID: "2", Name: "CDB"},
	}))
	require.NoError(t, store.Save(context.Background(), []domain.InvestmentOption{
		{ID: "3", Name: "Bonds"},
	}))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.OptionID("3"), loaded[0].ID)
}

func TestSnapshotFilePermissions(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), []domain.InvestmentOption{{ID: "1", Name: "CDB"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSnapshotRejectsNewerVersion(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o600))

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestSnapshotDropsUnparseableSampleTimes(t *testing.T) {
	store, path := newTestStore(t)

	payload := `version = 1

[[options]]
id = "1"
name = "CDB"

[[options.performance]]
at = "not-a-date"
value = 100.0

[[options.performance]]
at = "2025-03-01T00:00:00Z"
value = 110.0
`
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Performance, 1)
	assert.Equal(t, 110.0, loaded[0].Performance[0].Value)
}

func TestSnapshotHonorsCancelledContext(t *testing.T) {
	store, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, store.Save(ctx, nil))
	_, err := store.Load(ctx)
	require.Error(t, err)
}
