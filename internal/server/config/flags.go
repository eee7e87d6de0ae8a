package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string   dev server listen address
//	-d string   PostgreSQL DSN
//	-b string   S3 bucket
//	-g string   AWS region
//	-e string   S3 base endpoint (MinIO, LocalStack)
//	-x int      presigned URL expiry, seconds
//	-l string   log level
//
// Only these flags are parsed, so -c and -env can share the same argv.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-b", "-g", "-e", "-x", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DevAddr, "a", config.DevAddr, "dev server address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "AWS region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	expiry := fs.Int("x", int(config.URLExpiry.Seconds()), "presigned URL expiry (in seconds)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.URLExpiry = time.Duration(*expiry) * time.Second
	return nil
}
