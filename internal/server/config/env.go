package config

import (
	"fmt"
	"os"
	"strings"

)

var lookupEnv = os.LookupEnv

// loadEnv applies environment overrides. Variable names follow the ones
// operators already use for this service (PORT, MONGO_URI, JWT_SECRET,
// JWT_EXPIRES_IN, ADMIN_EMAILS).
func loadEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := get("PORT"); ok {
		cfg.HTTPAddr = ":" + strings.TrimSpace(v)
	}
	if v, ok := get("HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := get("STORAGE_TYPE"); ok {
		cfg.StorageType = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := get("MONGO_URI"); ok {
		cfg.MongoURI = v
	}
	if v, ok := get("MONGO_DB"); ok {
		cfg.MongoDatabase = v
	}
	if v, ok := get("DATABASE_DSN"); ok {
		cfg.DatabaseDSN = v
	}
	if v, ok := get("JWT_SECRET"); ok {
		cfg.SecretKey = v
	}
	if v, ok := get("JWT_EXPIRES_IN"); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v, ok := lookup("ADMIN_EMAILS"); ok {
		cfg.AdminEmails = splitList(v)
	}
	if v, ok := get("APP_ENV"); ok {
		cfg.DevMode = strings.EqualFold(strings.TrimSpace(v), "development")
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(v)
	}
	if v, ok := get("S3_ROOT_USER"); ok {
		cfg.S3RootUser = v
	}
	if v, ok := get("S3_ROOT_PASSWORD"); ok {
		cfg.S3RootPassword = v
	}
	if v, ok := get("S3_BUCKET"); ok {
		cfg.S3Bucket = v
	}
	if v, ok := get("S3_REGION"); ok {
		cfg.S3Region = v
	}
	if v, ok := get("S3_BASE_ENDPOINT"); ok {
		cfg.S3BaseEndpoint = v
	}
	if v, ok := get("UPLOAD_URL_TTL"); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("UPLOAD_URL_TTL: %w", err)
		}
		cfg.UploadURLTTL = d
	}

	return nil
}
