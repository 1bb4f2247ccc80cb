package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onkernel/finbot/cmd/bot/config"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/onkernel/finbot/lib/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		APIToken:      "123:abc",
		DataDir:       dir,
		StorageDriver: ledger.DriverSQLite,
		DBPath:        filepath.Join(dir, "finance.db"),
		Currency:      "руб.",
		Timezone:      "UTC",
		UpdateMode:    config.ModePolling,
		Port:          "8080",
		Workers:       2,
		SessionTTL:    time.Minute,
	}
}

func TestProvideStore(t *testing.T) {
	for _, driver := range []string{ledger.DriverSQLite, ledger.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.StorageDriver = driver

			store, cleanup, err := ProvideStore(cfg, otel.Disabled())
			require.NoError(t, err)
			defer cleanup()

			assert.Equal(t, driver, store.Driver())
			assert.NoError(t, store.Ping(context.Background()))
		})
	}
}

func TestProvideStore_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "postgres"

	_, _, err := ProvideStore(cfg, otel.Disabled())
	assert.ErrorIs(t, err, ledger.ErrUnknownDriver)
}

func TestProvideLedgerManager(t *testing.T) {
	cfg := testConfig(t)
	p := otel.Disabled()

	store, cleanup, err := ProvideStore(cfg, p)
	require.NoError(t, err)
	defer cleanup()

	mgr, err := ProvideLedgerManager(cfg, store, p)
	require.NoError(t, err)

	tx, err := mgr.AddTransaction(context.Background(), ledger.AddRequest{
		UserID: 1, Kind: ledger.KindIncome, Amount: 100, Category: "Подарок",
	})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
}

func TestProvideCatalog(t *testing.T) {
	cfg := testConfig(t)

	catalog, err := ProvideCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Еда", "Транспорт", "Прочее"}, catalog.For(ledger.KindExpense))

	cfg.CategoriesFile = filepath.Join(cfg.DataDir, "categories.yaml")
	require.NoError(t, os.WriteFile(cfg.CategoriesFile, []byte("expense:\n  - Кафе\n  - Такси\n"), 0o644))

	catalog, err = ProvideCatalog(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Кафе", "Такси"}, catalog.For(ledger.KindExpense))
}

func TestProvideServer(t *testing.T) {
	cfg := testConfig(t)
	p := otel.Disabled()

	store, cleanup, err := ProvideStore(cfg, p)
	require.NoError(t, err)
	defer cleanup()

	srv, err := ProvideServer(cfg, store, p)
	require.NoError(t, err)
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// webhook route only exists in webhook mode
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProvideServer_WebhookMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.UpdateMode = config.ModeWebhook
	cfg.WebhookSecret = "s3cret"
	p := otel.Disabled()

	store, cleanup, err := ProvideStore(cfg, p)
	require.NoError(t, err)
	defer cleanup()

	srv, err := ProvideServer(cfg, store, p)
	require.NoError(t, err)
	defer srv.Close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/wrong", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProvideConfig_Invalid(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	_, err := ProvideConfig()
	assert.ErrorContains(t, err, "API_TOKEN is required")
}
