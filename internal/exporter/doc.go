// Package exporter writes zonesheet output files.
//
// CSVWriter writes CSV with an optional UTF-8 BOM for Excel, supports
// appending and streaming, and renders diagnostics one row each.
//
// Zone tables are per-origin workbooks with a single Zones sheet listing
// start, end and zone per range. ReadZoneTable loads one back as candidates
// so a snapshot can be rebuilt through the normal pipeline.
//
// Rate workbooks hold one sheet per service, rows by weight and columns
// "Zone 1" to "Zone 16", optionally preceded by a Zones tab in the rate
// sheet layout shared with the ratesheet package.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths.ReportsDir)
//	err := w.WriteDiagnosticsCSV(config.DiagnosticsFileName, diags)
//
//	path, err := exporter.WriteZoneTable(paths.ZonesDir, ix)
package exporter
