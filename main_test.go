package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"boutique/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const seedYAML = `
- product_name: Kente Dress
  short_description: Hand woven kente
  price_ghc: 450
  sizes: [S, M, L]
  sections: [New Arrivals]
  stock_quantity: 12
- name: Adinkra Scarf
  short_description: Printed cotton scarf
  price: "85.5"
  categories: accessories, scarves
  stock_quantity: 2
`

func testConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	v.Set("DATABASE_URL", "memory://")
	v.Set("APP_PORT", "0")
	v.Set("SESSION_SECRET", "test-session-secret")
	v.Set("SESSION_TTL", "1h")
	v.Set("JWT_SECRET", "test-jwt-secret")
	v.Set("ADMIN_USERNAME", "admin")
	v.Set("ADMIN_PASSWORD", "admin-pass")
	v.Set("BLOB_DRIVER", "local")
	v.Set("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	v.Set("PUBLIC_BASE_URL", "/uploads")
	v.Set("MAX_UPLOAD_BYTES", 1<<20)
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	return cfg
}

func TestNewServerSeedsCatalog(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o644))

	srv, err := newServer(context.Background(), testConfig(t, map[string]any{"SEED_FILE": seed}), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(srv.close)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/products", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 2)
	assert.Equal(t, "Kente Dress", products[0]["product_name"])
	assert.Equal(t, []any{"S", "M", "L"}, products[0]["sizes"])
	assert.Equal(t, "Adinkra Scarf", products[1]["product_name"])
	assert.Equal(t, 85.5, products[1]["price_ghc"])
	assert.Equal(t, []any{"accessories", "scarves"}, products[1]["categories"])
}

func TestNewServerMissingSeedFileIsIgnored(t *testing.T) {
	cfg := testConfig(t, map[string]any{"SEED_FILE": filepath.Join(t.TempDir(), "absent.yaml")})
	srv, err := newServer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	srv.close()
}

func TestNewServerRejectsBadSettings(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.DatabaseURL = "redis://localhost:6379"
	_, err := newServer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t, nil)
	cfg.AdminPasswordHash = "not-bcrypt"
	_, err = newServer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)

	seed := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("- product_name: [unterminated"), 0o644))
	_, err = newServer(context.Background(), testConfig(t, map[string]any{"SEED_FILE": seed}), zap.NewNop())
	assert.Error(t, err)
}
