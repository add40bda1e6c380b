// Package files finds input documents and moves files between the data
// directories.
//
// Discovery lists carrier documents (workbooks and extracted text) oldest
// first, the order in which they are merged, and lists zone tables and rate
// sheets by name.
//
// Manager moves inputs into the archive or failed bucket once the batch
// result for them is known, and fixed rate sheets into the processed bucket.
// Relative paths resolve under the configured data directories.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	inputs, err := discovery.FindInputs(paths.InputDir)
//
//	manager := files.NewManager(paths, logger)
//	if _, err := manager.MarkFailed(inputs[0].Path); err != nil {
//	    // handle
//	}
package files
