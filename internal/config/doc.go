// Package config provides centralized configuration management for the
// zone table and rate sheet tools.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file (config.yaml, configs/config.yaml, or ZONES_CONFIG)
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ZONES_* for namespacing:
//
//	ZONES_WORKERS=8
//	ZONES_LOGGING_LEVEL=debug
//	ZONES_CARRIER_COUNTRY_SYMBOL=CA
//	ZONES_GROUPING_RULE=prefix
//	ZONES_MERGE_POLICY=first-write-wins
//	ZONES_LOCATOR_BASE_URL=https://example.com/zones/
//
// # Path Management
//
// Paths lays out every directory relative to the executable (or the
// configured data directory):
//
//	paths := cfg.GetPaths()
//	table := paths.GetZoneTablePath("00000-00399")
//	report := paths.GetReportPath(config.DiagnosticsFileName)
//
// # Validation
//
// Load validates every section with go-playground/validator struct tags and
// returns a CONFIG AppError naming each failing field.
package config
