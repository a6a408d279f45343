package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairLab/internal/domain/models"
	"PairLab/pkg/config"
	applogger "PairLab/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.Logging.Output = "stderr"
	cfg.Store.File.Dir = t.TempDir()
	return cfg
}

func TestProvideBackendFileAndSQLite(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Store.Backend = backend
			cfg.Store.SQLite.DSN = "file:" + filepath.Join(t.TempDir(), "pairlab.db")

			b, err := ProvideBackend(cfg, applogger.NewNop())
			require.NoError(t, err)
			defer b.Close()

			// An empty store is healthy.
			require.NoError(t, b.Health(ctx))

			s := models.Series{Symbol: "AAA", Points: []models.PricePoint{
				{Date: models.MustParseDate("2024-01-02"), AdjClose: 10, Volume: 5},
			}}
			require.NoError(t, b.Replace(ctx, s))
			got, err := b.Load(ctx, "AAA")
			require.NoError(t, err)
			assert.Equal(t, s.Points, got.Points)
		})
	}
}

func TestProvideBackendUnknown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = "tape"
	_, err := ProvideBackend(cfg, applogger.NewNop())
	assert.Error(t, err)
}

func TestInitializeToolkit(t *testing.T) {
	cfg := testConfig(t)
	tk, cleanup, err := InitializeToolkit(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, tk.Analyzer)
	assert.NotNil(t, tk.Store)
	assert.NotNil(t, tk.Warmup)
	assert.Same(t, cfg, tk.Config)

	// Range validation happens before any provider call.
	_, err = tk.Analyzer.GetPairStatistics(context.Background(), "AAA", "BBB",
		models.MustParseDate("2024-02-01"), models.MustParseDate("2024-01-01"))
	assert.ErrorIs(t, err, models.ErrInvalidRange)
}

func TestSymbolsRejectsMalformed(t *testing.T) {
	got, err := symbols([]string{" aapl", "msft"})
	require.NoError(t, err)
	assert.Equal(t, []models.Symbol{"AAPL", "MSFT"}, got)

	_, err = symbols([]string{"AAPL", "no way"})
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)
}
