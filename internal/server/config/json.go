package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

)

// JsonConfig mirrors Config for JSON files. Absent fields keep the value
// they already had.
type JsonConfig struct {
	HTTPAddr       *string   `json:"http_addr"`
	StorageType    *string   `json:"storage_type"`
	MongoURI       *string   `json:"mongo_uri"`
	MongoDatabase  *string   `json:"mongo_database"`
	DatabaseDSN    *string   `json:"database_dsn"`
	SecretKey      *string   `json:"secret_key"`
	TokenTTL       *Duration `json:"token_ttl"`
	AdminEmails    *string   `json:"admin_emails"`
	DevMode        *bool     `json:"dev_mode"`
	LogLevel       *string   `json:"log_level"`
	CORSOrigins    *string   `json:"cors_origins"`
	S3RootUser     *string   `json:"s3_root_user"`
	S3RootPassword *string   `json:"s3_root_password"`
	S3Bucket       *string   `json:"s3_bucket"`
	S3Region       *string   `json:"s3_region"`
	S3BaseEndpoint *string   `json:"s3_base_endpoint"`
	UploadURLTTL   *Duration `json:"upload_url_ttl"`
}

func loadJSON(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.HTTPAddr, c.HTTPAddr)
	setString(&cfg.StorageType, c.StorageType)
	setString(&cfg.MongoURI, c.MongoURI)
	setString(&cfg.MongoDatabase, c.MongoDatabase)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenTTL != nil {
		cfg.TokenTTL = c.TokenTTL.Duration
	}
	if c.UploadURLTTL != nil {
		cfg.UploadURLTTL = c.UploadURLTTL.Duration
	}
	if c.AdminEmails != nil {
		cfg.AdminEmails = splitList(*c.AdminEmails)
	}
	if c.DevMode != nil {
		cfg.DevMode = *c.DevMode
	}
	if c.CORSOrigins != nil {
		cfg.CORSOrigins = splitList(*c.CORSOrigins)
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
