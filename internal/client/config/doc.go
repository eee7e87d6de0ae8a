// Package config loads runtime configuration for the command-line client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API (the stage URL or the dev server)
//	-t int      request timeout (seconds)
//	-d string   directory downloads are written to
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "90s" or a
// number of seconds:
//
//	{
//	  "api_base_url": "https://abc123.execute-api.us-east-1.amazonaws.com/prod",
//	  "request_timeout": "90s",
//	  "download_dir": "downloads"
//	}
package config
