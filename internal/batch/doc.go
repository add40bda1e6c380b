// Package batch drives a run over many carrier documents: it reads and
// classifies them concurrently, merges candidates per origin on top of
// earlier zone tables, and assembles rate sheets from the resulting
// catalog. Per-file problems are collected in the result so callers can
// archive or set aside each input.
package batch
