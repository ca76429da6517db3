package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DB_HOST", "DB_PASSWORD", "DB_PASS", "APP_DEBUG", "SESSION_TTL_HOURS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromEnv()
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.False(t, cfg.AppDebug)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromEnv_Lists(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1")

	cfg := FromEnv()
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
}

func TestFromEnv_LegacyPasswordAlias(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	os.Unsetenv("DB_PASSWORD")
	t.Setenv("DB_PASS", "segredo")

	cfg := FromEnv()
	assert.Equal(t, "segredo", cfg.DBPassword)
}

func TestDSN(t *testing.T) {
	cfg := Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "enquetes"}
	assert.Equal(t, "u:p@tcp(h:3306)/enquetes?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())

	cfg.DBDriver = "sqlite"
	cfg.DBName = "dev.db"
	assert.Equal(t, "file:dev.db?_foreign_keys=on", cfg.DSN())

	cfg.DBName = "teste?mode=memory&cache=shared"
	assert.Equal(t, "file:teste?mode=memory&cache=shared&_foreign_keys=on", cfg.DSN())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=from_file\nAPP_DEBUG=true\n# comentario\n"), 0o600))

	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")
	t.Setenv("APP_DEBUG", "")
	os.Unsetenv("APP_DEBUG")
	t.Cleanup(func() {
		os.Unsetenv("DB_NAME")
		os.Unsetenv("APP_DEBUG")
	})

	cfg := Load(path)
	assert.Equal(t, "from_file", cfg.DBName)
	assert.True(t, cfg.AppDebug)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NotEmpty(t, cfg.ServerPort)
}
