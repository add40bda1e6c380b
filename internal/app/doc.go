// Package app starts up and shuts down the command-line tools.
//
// Every command follows the same sequence:
//
//	1. Load configuration from the config file and environment
//	2. Create the data directories
//	3. Initialize logging and telemetry
//	4. Run until done or interrupted
//	5. Flush metrics and traces, close the log file
//
// Errors are returned to main, which decides how to exit.
package app
