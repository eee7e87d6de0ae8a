package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/puranjayb/AWS-Potato/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Only fields
// present in the file are applied.
type JsonConfig struct {
	DatabaseDSN      string          `json:"database_dsn"`
	LogLevel         string          `json:"log_level"`
	S3Bucket         string          `json:"s3_bucket"`
	S3Region         string          `json:"s3_region"`
	S3BaseEndpoint   string          `json:"s3_base_endpoint"`
	S3AccessKey      string          `json:"s3_access_key"`
	S3SecretKey      string          `json:"s3_secret_key"`
	URLExpiry        *timex.Duration `json:"url_expiry"`
	UserPoolID       string          `json:"user_pool_id"`
	ClientID         string          `json:"client_id"`
	ProjectsFunction string          `json:"projects_function"`
	VertexProjectID  string          `json:"vertex_project_id"`
	VertexRegion     string          `json:"vertex_region"`
	GeminiModel      string          `json:"gemini_model"`
	MaxPDFBytes      int64           `json:"max_pdf_bytes"`
	DevAddr          string          `json:"dev_addr"`
	DevJWTSecret     string          `json:"dev_jwt_secret"`
	DevTokenTTL      *timex.Duration `json:"dev_token_ttl"`
}

// parseJson overlays the JSON file at path onto config. An empty path is a
// no-op.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.LogLevel, c.LogLevel)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.S3AccessKey, c.S3AccessKey)
	set(&config.S3SecretKey, c.S3SecretKey)
	set(&config.UserPoolID, c.UserPoolID)
	set(&config.ClientID, c.ClientID)
	set(&config.ProjectsFunction, c.ProjectsFunction)
	set(&config.VertexProjectID, c.VertexProjectID)
	set(&config.VertexRegion, c.VertexRegion)
	set(&config.GeminiModel, c.GeminiModel)
	set(&config.DevAddr, c.DevAddr)
	set(&config.DevJWTSecret, c.DevJWTSecret)

	if c.URLExpiry != nil {
		config.URLExpiry = c.URLExpiry.Duration
	}
	if c.DevTokenTTL != nil {
		config.DevTokenTTL = c.DevTokenTTL.Duration
	}
	if c.MaxPDFBytes > 0 {
		config.MaxPDFBytes = c.MaxPDFBytes
	}
	return nil
}
