package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 4, c.UploadConcurrency)
	assert.Equal(t, int64(50<<20), c.MaxUploadBytes)
	assert.False(t, c.ReclaimOrphanedMedia)
}

func TestParseJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"http_addr":                       "127.0.0.1:9000",
		"database_dsn":                    "postgres://x",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
		"s3_bucket":                       "bucket",
		"s3_public_url":                   "https://cdn.example.com",
		"upload_concurrency":              8,
		"reclaim_orphaned_media":          true,
		"cors_origins":                    []string{"https://app.example.com"},
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJSON(cfg, []string{"-config", path}))

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "bucket", cfg.S3Bucket)
	assert.Equal(t, "https://cdn.example.com", cfg.S3PublicURL)
	assert.Equal(t, 8, cfg.UploadConcurrency)
	assert.True(t, cfg.ReclaimOrphanedMedia)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	// untouched
	assert.Equal(t, "secretKey", cfg.SecretKey)
}

func TestParseJSON_NoFileNoChanges(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	want := *cfg

	require.NoError(t, parseJSON(cfg, []string{"-a", ":1"}))
	assert.Empty(t, cmp.Diff(want, *cfg))
}

func TestParseJSON_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	assert.Error(t, parseJSON(&Config{}, []string{"-c", bad}))
	assert.Error(t, parseJSON(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))
}

func TestParseEnv(t *testing.T) {
	t.Setenv("WORDBOOK_HTTP_ADDR", ":7000")
	t.Setenv("WORDBOOK_ACCESS_TOKEN_TTL", "90s")
	t.Setenv("WORDBOOK_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("WORDBOOK_RECLAIM_ORPHANED_MEDIA", "true")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, 90*time.Second, cfg.AccessTokenValidityDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.ReclaimOrphanedMedia)
	assert.Equal(t, "wordbook", cfg.S3Bucket)
}

func TestParseEnv_Invalid(t *testing.T) {
	t.Setenv("WORDBOOK_UPLOAD_CONCURRENCY", "many")
	assert.Error(t, parseEnv(&Config{}))
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	args := []string{
		"-c", "ignored.json",
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
		"-t", "1", "-r", "3", "-u", "user", "-p", "password", "-b", "bucket",
		"-g", "us-west-1", "-e", "http://endpoint", "-m", "1024", "-w", "2", "-o=true", "-l", "debug",
	}
	require.NoError(t, parseFlags(cfg, args))

	want := &Config{}
	want.LoadDefaults()
	want.HTTPAddr = "127.0.0.1:9090"
	want.DatabaseDSN = "db"
	want.SecretKey = "secret"
	want.AccessTokenValidityDuration = time.Minute
	want.RefreshTokenValidityDuration = 3 * time.Minute
	want.S3RootUser = "user"
	want.S3RootPassword = "password"
	want.S3Bucket = "bucket"
	want.S3Region = "us-west-1"
	want.S3BaseEndpoint = "http://endpoint"
	want.MaxUploadBytes = 1024
	want.UploadConcurrency = 2
	want.ReclaimOrphanedMedia = true
	want.LogLevel = "debug"

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseFlags_KeepsSubMinuteDurations(t *testing.T) {
	cfg := &Config{AccessTokenValidityDuration: 30 * time.Second}
	require.NoError(t, parseFlags(cfg, nil))
	assert.Equal(t, 30*time.Second, cfg.AccessTokenValidityDuration)
}

func TestParseFlags_Invalid(t *testing.T) {
	assert.Error(t, parseFlags(&Config{}, []string{"-w", "lots"}))
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"http_addr": ":1111", "s3_bucket": "from-json", "s3_region": "json-region"})
	t.Setenv("WORDBOOK_S3_BUCKET", "from-env")
	t.Setenv("WORDBOOK_S3_REGION", "env-region")

	cfg, err := LoadConfig([]string{"-c", path, "-g", "flag-region"})
	require.NoError(t, err)

	assert.Equal(t, ":1111", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.S3Bucket)
	assert.Equal(t, "flag-region", cfg.S3Region)
}
