package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "zonesheet"
	AppVersion = "1.0.0"

	// Workbook layout shared by zone tables and rate sheets
	ZonesSheet = "Zones"

	// Document buckets under the input directory
	ArchiveDirName   = "archive"
	FailedDirName    = "failed_parsing"
	ProcessedDirName = "processed"

	// Diagnostics written by every batch command
	DiagnosticsFileName = "diagnostics.csv"

	// Network Timeouts
	DefaultHTTPTimeout = 8 * time.Second

	// Operation Timeouts
	DefaultBatchTimeout = 30 * time.Minute

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
