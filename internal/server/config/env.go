package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/puranjayb/AWS-Potato/internal/timex"
)

// loadDotEnv copies variables from a dotenv file into the process
// environment without overriding what is already set. A missing default
// ".env" is fine; a missing explicitly requested file is not.
func loadDotEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// parseEnv overlays environment variables onto config. Unset or empty
// variables leave the current value alone.
func parseEnv(config *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("DATABASE_URL", &config.DatabaseDSN)
	str("LOG_LEVEL", &config.LogLevel)
	str("S3_BUCKET_NAME", &config.S3Bucket)
	str("AWS_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("USER_POOL_ID", &config.UserPoolID)
	str("CLIENT_ID", &config.ClientID)
	str("PROJECTS_LAMBDA_ARN", &config.ProjectsFunction)
	str("VERTEX_PROJECT_ID", &config.VertexProjectID)
	str("VERTEX_REGION", &config.VertexRegion)
	str("GEMINI_MODEL", &config.GeminiModel)
	str("DEV_ADDR", &config.DevAddr)
	str("DEV_JWT_SECRET", &config.DevJWTSecret)

	if v, ok := lookup("URL_EXPIRY"); ok && v != "" {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("URL_EXPIRY: %w", err)
		}
		config.URLExpiry = d
	}
	if v, ok := lookup("DEV_TOKEN_TTL"); ok && v != "" {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DEV_TOKEN_TTL: %w", err)
		}
		config.DevTokenTTL = d
	}
	if v, ok := lookup("MAX_PDF_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_PDF_BYTES: %w", err)
		}
		config.MaxPDFBytes = n
	}
	return nil
}
