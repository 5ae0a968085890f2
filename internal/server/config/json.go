package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/wordbook/internal/flagx"
	"github.com/dmitrijs2005/wordbook/internal/timex"
)

// JSONConfig is the on-disk form of Config. Durations accept both "1m" strings
// and integer nanoseconds. Absent fields keep their previous value.
type JSONConfig struct {
	HTTPAddr                     *string         `json:"http_addr"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	S3PublicURL                  *string         `json:"s3_public_url"`
	MaxUploadBytes               *int64          `json:"max_upload_bytes"`
	UploadConcurrency            *int            `json:"upload_concurrency"`
	ReclaimOrphanedMedia         *bool           `json:"reclaim_orphaned_media"`
	CORSOrigins                  []string        `json:"cors_origins"`
	PasswordCost                 *int            `json:"password_cost"`
	LogLevel                     *string         `json:"log_level"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays the file named by -c/-config, if any.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.S3PublicURL, c.S3PublicURL)
	set(&config.MaxUploadBytes, c.MaxUploadBytes)
	set(&config.UploadConcurrency, c.UploadConcurrency)
	set(&config.ReclaimOrphanedMedia, c.ReclaimOrphanedMedia)
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	set(&config.PasswordCost, c.PasswordCost)
	set(&config.LogLevel, c.LogLevel)
	return nil
}
