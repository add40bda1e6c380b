package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/internal/app"
	"zonesheet/internal/config"
	"zonesheet/internal/exporter"
	"zonesheet/internal/shared/testutil"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

func newRuntime(t *testing.T) *app.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ExecutableDir = t.TempDir()
	rt, err := app.New("zonelookup", cfg)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	rt.Logger = logger
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func TestLookupFromZoneTables(t *testing.T) {
	rt := newRuntime(t)
	ix, err := zoning.NewOriginZoneIndex("00000-00399", domain.ZIP, []domain.RangeRecord{
		{Start: 500, End: 599, Zone: "2"},
		{Start: 600, End: 999, Zone: "3"},
	})
	require.NoError(t, err)
	_, err = exporter.WriteZoneTable(rt.Paths.ZonesDir, ix)
	require.NoError(t, err)

	catalog, err := loadCatalog(context.Background(), rt)
	require.NoError(t, err)

	answers := lookup(catalog, "00210", []string{"00550", "00700", "01500", "abc"})
	require.Len(t, answers, 4)
	assert.Equal(t, domain.Zone("2"), answers[0].Zone)
	assert.Equal(t, domain.GroupKey("00000-00399"), answers[0].Group)
	assert.Equal(t, domain.Zone("3"), answers[1].Zone)
	assert.Equal(t, "no zone for destination", answers[2].Error)
	assert.Equal(t, "not a postal code", answers[3].Error)

	missing := lookup(catalog, "90210", []string{"00550"})
	require.Len(t, missing, 1)
	assert.Equal(t, "no zone table for origin", missing[0].Error)
}

func TestWriteAnswers(t *testing.T) {
	answers := []Answer{
		{Origin: "00210", Group: "00000-00399", Destination: "00550", Zone: "2"},
		{Origin: "00210", Group: "00000-00399", Destination: "01500", Error: "no zone for destination"},
	}

	var table bytes.Buffer
	require.NoError(t, writeAnswers(&table, answers, false))
	assert.Contains(t, table.String(), "ORIGIN")
	assert.Contains(t, table.String(), "00550")
	assert.Contains(t, table.String(), "(no zone for destination)")

	var out bytes.Buffer
	require.NoError(t, writeAnswers(&out, answers, true))
	var decoded []Answer
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, answers, decoded)
}
