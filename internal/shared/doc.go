// Package shared holds helpers used by more than one package.
//
// The testutil subpackage captures slog output in tests and builds small
// carrier workbooks on disk:
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteWorkbook(t, dir, "00000-00399.xlsx", map[string][][]any{
//	    "Zones": {{"Destination ZIP", "Ground"}, {"00400-00599", 2}},
//	})
//
// Nothing here is imported by production code.
package shared
