package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func withEnv(t *testing.T, m map[string]string) {
	t.Helper()
	prev := lookupEnv
	lookupEnv = envFrom(m)
	t.Cleanup(func() { lookupEnv = prev })
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, StorageMongo, cfg.StorageType)
	assert.Empty(t, cfg.SecretKey)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.AdminEmails)
	assert.False(t, cfg.ObjectStorageEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	withEnv(t, map[string]string{
		"PORT":           "8080",
		"STORAGE_TYPE":   "Memory",
		"JWT_SECRET":     "s3cret",
		"JWT_EXPIRES_IN": "2d",
		"ADMIN_EMAILS":   " Admin@Example.com ,ops@example.com,",
		"APP_ENV":        "development",
		"CORS_ORIGINS":   "http://a.test, http://b.test",
	})

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, 48*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"Admin@Example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	withEnv(t, map[string]string{
		"HTTP_ADDR":  ":7000",
		"JWT_SECRET": "from-env",
	})

	cfg, err := LoadConfig([]string{"-a", ":9000", "-s", "from-flag", "-t", "12h", "-storage", "memory"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "from-flag", cfg.SecretKey)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, StorageMemory, cfg.StorageType)
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	withEnv(t, map[string]string{"JWT_SECRET": "from-env"})

	cfg, err := LoadConfig([]string{"-a", ":9000"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SecretKey)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	withEnv(t, map[string]string{"MONGO_DB": "from-env"})

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	body := `{
		"http_addr": ":6000",
		"storage_type": "postgres",
		"database_dsn": "postgres://u:p@db/x",
		"mongo_database": "from-json",
		"token_ttl": "1d",
		"upload_url_ttl": "5m",
		"admin_emails": "boss@example.com",
		"s3_bucket": "attachments"
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig([]string{"-c", path})
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.HTTPAddr)
	assert.Equal(t, StoragePostgres, cfg.StorageType)
	assert.Equal(t, "postgres://u:p@db/x", cfg.DatabaseDSN)
	assert.Equal(t, "from-env", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.UploadURLTTL)
	assert.Contains(t, cfg.AdminEmails, "boss@example.com")
	assert.True(t, cfg.ObjectStorageEnabled())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"bad ttl env", map[string]string{"JWT_EXPIRES_IN": "soon"}, nil},
		{"bad ttl flag", nil, []string{"-t", "x"}},
		{"unknown flag", nil, []string{"-zzz"}},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "redis"}, nil},
		{"missing config file", nil, []string{"-config", "/nonexistent/cfg.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			_, err := LoadConfig(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"0.5d", 12 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"3600", time.Hour, false},
		{"", 0, true},
		{"xd", 0, true},
		{"forever", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	c := base()
	c.HTTPAddr = ""
	assert.Error(t, c.Validate())

	c = base()
	c.TokenTTL = 0
	assert.Error(t, c.Validate())

	c = base()
	c.MongoURI = ""
	assert.Error(t, c.Validate())

	c = base()
	c.StorageType = StoragePostgres
	c.DatabaseDSN = ""
	assert.Error(t, c.Validate())

	c = base()
	c.StorageType = StorageMemory
	c.MongoURI = ""
	assert.NoError(t, c.Validate())
}
