package classify

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/pkg/contracts/domain"
)

func textRows(lines ...string) []domain.Row {
	rows := make([]domain.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, domain.Row{Cells: strings.Fields(l)})
	}
	return rows
}

func collect(c *Classifier, rows []domain.Row) []Candidate {
	doc := domain.Document{Name: "test.txt", Pages: []domain.Page{{Number: 1, Rows: rows}}}
	return slices.Collect(c.Classify(doc))
}

func TestClassifySingleRange(t *testing.T) {
	opts := DefaultOptions(domain.ZIP)
	c := New("00000-00399", opts, nil)

	rows := []domain.Row{
		{Cells: []string{"Start Postal Code", "End Postal Code", "Zone"}},
		{Cells: []string{"501", "544", "Zone 02"}},
		{Cells: []string{"01000", "01099", "3"}},
		{Cells: []string{"", "", ""}},
	}
	cands := collect(c, rows)
	require.Len(t, cands, 2)

	assert.Equal(t, LayoutSingleRange, cands[0].Layout)
	assert.Equal(t, "501", cands[0].Start)
	assert.Equal(t, "544", cands[0].End)
	assert.Equal(t, "Zone 02", cands[0].Zone)
	assert.Equal(t, 1, cands[0].Source.Page)
	assert.Equal(t, 2, cands[0].Source.Row)

	stats := c.Stats()
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 1, stats.Headers)
	assert.Equal(t, 1, stats.Blank)
	assert.Equal(t, 2, stats.Classified)
	assert.Equal(t, 0, stats.Skipped)
}

func TestClassifyHeaderRemapsColumns(t *testing.T) {
	c := New("test", DefaultOptions(domain.ZIP), nil)
	rows := []domain.Row{
		{Cells: []string{"Zone", "City", "Start Postal Code", "End Postal Code"}},
		{Cells: []string{"4", "Boston", "02101", "02199"}},
	}
	cands := collect(c, rows)
	require.Len(t, cands, 1)
	assert.Equal(t, "02101", cands[0].Start)
	assert.Equal(t, "02199", cands[0].End)
	assert.Equal(t, "4", cands[0].Zone)
}

func TestClassifyHeaderMatchesWholeWords(t *testing.T) {
	c := New("test", DefaultOptions(domain.ZIP), nil)
	rows := []domain.Row{
		{Cells: []string{"Zone", "Total", "From ZIP", "To ZIP"}},
		{Cells: []string{"4", "12", "02101", "02199"}},
	}
	cands := collect(c, rows)
	require.Len(t, cands, 1)
	assert.Equal(t, "02101", cands[0].Start)
	assert.Equal(t, "02199", cands[0].End)
	assert.Equal(t, "4", cands[0].Zone)

	c = New("test", DefaultOptions(domain.ZIP), nil)
	_, ok := c.Match(domain.Row{Cells: []string{"Start", "Tonnage", "Zone"}})
	assert.False(t, ok)
	assert.Equal(t, DefaultOptions(domain.ZIP).Columns, c.columns, "tonnage is not an end column")

	assert.True(t, c.matchColumnHeader(domain.Row{Cells: []string{"Starting ZIP", "Ending ZIP", "Zone"}}))
	assert.False(t, c.matchColumnHeader(domain.Row{Cells: []string{"Start", "Legend", "Zone"}}))
}

func TestClassifyPackedRanges(t *testing.T) {
	c := New("00000-00399", DefaultOptions(domain.ZIP), nil)
	rows := textRows(
		"ZIP Codes Zone ZIP Codes Zone ZIP Codes Zone",
		"00500-00599 2 01000-01099 3 01100 4",
		"02000 - 02099 Zone 05 03000 03099 6",
		"Page 1 of 3",
	)
	cands := collect(c, rows)
	require.Len(t, cands, 5)

	want := []RangeZone{
		{"00500", "00599", "2"},
		{"01000", "01099", "3"},
		{"01100", "01100", "4"},
		{"02000", "02099", "05"},
		{"03000", "03099", "6"},
	}
	for i, w := range want {
		assert.Equal(t, LayoutPackedRanges, cands[i].Layout)
		assert.Equal(t, w.Start, cands[i].Start, "pair %d", i)
		assert.Equal(t, w.End, cands[i].End, "pair %d", i)
		assert.Equal(t, w.Zone, cands[i].Zone, "pair %d", i)
	}

	stats := c.Stats()
	assert.Equal(t, 2, stats.Skipped)
	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, domain.ReasonMalformedRow, diags[0].Reason)
	assert.Equal(t, domain.GroupKey("00000-00399"), diags[0].Origin)
	assert.Equal(t, "Page 1 of 3", diags[1].Input)
}

func TestClassifyPackedDualZones(t *testing.T) {
	tests := []struct {
		name       string
		zoneColumn int
		want       []string
	}{
		{"express", 0, []string{"9", "NA"}},
		{"ground", 1, []string{"17", "17"}},
		{"clamped", 5, []string{"17", "17"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions(domain.ZIP)
			opts.ZoneColumn = tt.zoneColumn
			c := New("test", opts, nil)
			cands := collect(c, textRows("99501-99599 9 17 99600-99699 NA 17"))
			require.Len(t, cands, 2)
			assert.Equal(t, tt.want[0], cands[0].Zone)
			assert.Equal(t, tt.want[1], cands[1].Zone)
		})
	}
}

func TestClassifyAreaIndexRows(t *testing.T) {
	c := New("ca", DefaultOptions(domain.FSA), nil)
	cands := collect(c, textRows(
		"Postal Code Zone Index",
		"A0A—A9Z DA B0A—B9Z DB",
		"M5V DM",
	))
	require.Len(t, cands, 3)
	assert.Equal(t, "A0A", cands[0].Start)
	assert.Equal(t, "A9Z", cands[0].End)
	assert.Equal(t, "DA", cands[0].Zone)
	assert.Equal(t, "M5V", cands[2].Start)
	assert.Equal(t, "M5V", cands[2].End)
	assert.Equal(t, "DM", cands[2].Zone)
}

func TestClassifyMatrix(t *testing.T) {
	c := New("ca", DefaultOptions(domain.FSA), nil)
	rows := []domain.Row{
		{Cells: []string{"From/To", "DA", "DB", "DC", "DD", "DE"}},
		{Cells: []string{"DA", "1", "2", "", "4", "5"}},
		{Cells: []string{"DB", "2", "1", "3", "NA", "6"}},
	}
	cands := collect(c, rows)
	require.Len(t, cands, 9)

	assert.Equal(t, LayoutMatrix, cands[0].Layout)
	assert.Equal(t, "DA", cands[0].RowLabel)
	assert.Equal(t, "DA", cands[0].Start)
	assert.Equal(t, "1", cands[0].Zone)
	// blank cell DA×DC is skipped
	assert.Equal(t, "DD", cands[2].Start)
	assert.Equal(t, "4", cands[2].Zone)

	assert.Equal(t, "DB", cands[7].RowLabel)
	assert.Equal(t, "DD", cands[7].Start)
	assert.Equal(t, "NA", cands[7].Zone)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Headers)
	assert.Equal(t, 2, stats.ByLayout[LayoutMatrix])
}

func TestClassifyMatrixFromText(t *testing.T) {
	c := New("ca", DefaultOptions(domain.FSA), nil)
	cands := collect(c, textRows(
		"DA DB DC DD DE",
		"DC 3 3 1 2 2",
	))
	require.Len(t, cands, 5)
	assert.Equal(t, "DE", cands[4].Start)
	assert.Equal(t, "2", cands[4].Zone)
	assert.Equal(t, "DC", cands[4].RowLabel)
}

func TestClassifyLazy(t *testing.T) {
	c := New("test", DefaultOptions(domain.ZIP), nil)
	doc := domain.Document{Pages: []domain.Page{{Number: 1, Rows: textRows(
		"00500-00599 2 01000-01099 3",
		"02000-02099 4",
	)}}}

	var got []Candidate
	for cand := range c.Classify(doc) {
		got = append(got, cand)
		break
	}
	require.Len(t, got, 1)
	assert.Equal(t, 1, c.Stats().Rows, "iteration stops at the first candidate")
}

func TestMatchRejectsStrayText(t *testing.T) {
	opts := DefaultOptions(domain.ZIP)
	opts.StrictCodes = true
	c := New("test", opts, nil)

	for _, line := range []string{"1 2 3", "Effective January 2025", "Zone chart", "00500"} {
		_, ok := c.Match(domain.Row{Cells: strings.Fields(line)})
		assert.False(t, ok, line)
	}

	shape, ok := c.Match(domain.Row{Cells: []string{"00500", "00599", "2"}})
	require.True(t, ok)
	assert.Equal(t, SingleRange{Start: "00500", End: "00599", Zone: "2"}, shape)
}

func TestLayoutString(t *testing.T) {
	assert.Equal(t, "single_range", LayoutSingleRange.String())
	assert.Equal(t, "packed_ranges", LayoutPackedRanges.String())
	assert.Equal(t, "matrix", LayoutMatrix.String())
	assert.Equal(t, "unknown", Layout(0).String())
}
