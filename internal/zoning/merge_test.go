package zoning

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/pkg/contracts/domain"
)

func rec(start, end int, zone string, seq int) domain.RangeRecord {
	return domain.RangeRecord{
		Start:  domain.Key(start),
		End:    domain.Key(end),
		Zone:   domain.Zone(zone),
		Origin: "test",
		Source: domain.Source{Document: "doc", Seq: seq},
	}
}

func spans(records []domain.RangeRecord) [][3]any {
	out := make([][3]any, 0, len(records))
	for _, r := range records {
		out = append(out, [3]any{int(r.Start), int(r.End), string(r.Zone)})
	}
	return out
}

func assertDisjoint(t *testing.T, records []domain.RangeRecord) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		assert.Less(t, records[i-1].End, records[i].Start, "ranges %d and %d overlap or are unsorted", i-1, i)
	}
}

func TestMergeScenarios(t *testing.T) {
	tests := []struct {
		name      string
		records   []domain.RangeRecord
		want      [][3]any
		conflicts int
	}{
		{
			name:    "overlapping same zone extends",
			records: []domain.RangeRecord{rec(100, 199, "2", 1), rec(150, 250, "2", 2)},
			want:    [][3]any{{100, 250, "2"}},
		},
		{
			name:      "overlapping different zone, later source wins",
			records:   []domain.RangeRecord{rec(100, 199, "2", 1), rec(150, 250, "5", 2)},
			want:      [][3]any{{100, 149, "2"}, {150, 250, "5"}},
			conflicts: 1,
		},
		{
			name:    "adjacent same zone coalesces",
			records: []domain.RangeRecord{rec(100, 199, "2", 1), rec(200, 299, "2", 1)},
			want:    [][3]any{{100, 299, "2"}},
		},
		{
			name:    "gap is kept",
			records: []domain.RangeRecord{rec(100, 199, "2", 1), rec(300, 399, "2", 1)},
			want:    [][3]any{{100, 199, "2"}, {300, 399, "2"}},
		},
		{
			name:      "nested older range is split around newer",
			records:   []domain.RangeRecord{rec(100, 399, "3", 1), rec(200, 299, "4", 2)},
			want:      [][3]any{{100, 199, "3"}, {200, 299, "4"}, {300, 399, "3"}},
			conflicts: 1,
		},
		{
			name:    "degenerate range",
			records: []domain.RangeRecord{rec(501, 501, "7", 1)},
			want:    [][3]any{{501, 501, "7"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Merge(tt.records, LastWriteWins)
			assert.Equal(t, tt.want, spans(res.Records))
			assert.Len(t, res.Conflicts, tt.conflicts)
			assertDisjoint(t, res.Records)
		})
	}
}

func TestMergeConflictDiagnostic(t *testing.T) {
	older := rec(100, 199, "2", 1)
	older.Source.Document = "first.pdf"
	newer := rec(150, 250, "5", 2)
	newer.Source.Document = "second.pdf"

	res := Merge([]domain.RangeRecord{newer, older}, LastWriteWins)
	require.Len(t, res.Conflicts, 1)

	c := res.Conflicts[0]
	assert.Equal(t, domain.Key(150), c.Start)
	assert.Equal(t, domain.Key(199), c.End)
	assert.Equal(t, domain.Zone("5"), c.Winner)
	assert.Equal(t, "second.pdf", c.WinnerSource.Document)
	assert.Equal(t, []domain.Zone{"2"}, c.Overridden)
	require.Len(t, c.OverriddenSources, 1)
	assert.Equal(t, "first.pdf", c.OverriddenSources[0].Document)

	d := c.Diagnostic(domain.ZIP)
	assert.Equal(t, domain.ReasonZoneConflict, d.Reason)
	assert.Equal(t, domain.SeverityWarning, d.Severity)
	assert.Equal(t, "00150-00199", d.Input)
	assert.Contains(t, d.Detail, "kept zone 5")
	assert.False(t, d.Rejects())
}

func TestMergePolicies(t *testing.T) {
	records := []domain.RangeRecord{rec(100, 199, "2", 1), rec(150, 250, "5", 2)}

	first := Merge(records, FirstWriteWins)
	assert.Equal(t, [][3]any{{100, 199, "2"}, {200, 250, "5"}}, spans(first.Records))
	require.Len(t, first.Conflicts, 1)
	assert.Equal(t, domain.Zone("2"), first.Conflicts[0].Winner)

	dropped := Merge(records, DropConflicts)
	assert.Equal(t, [][3]any{{100, 149, "2"}, {200, 250, "5"}}, spans(dropped.Records))
	require.Len(t, dropped.Conflicts, 1)
	assert.True(t, dropped.Conflicts[0].Winner.IsEmpty())
	assert.Equal(t, []domain.Zone{"2", "5"}, dropped.Conflicts[0].Overridden)
	assert.Contains(t, dropped.Conflicts[0].Diagnostic(domain.ZIP).Detail, "dropped zones 2,5")
}

func TestMergeExactDuplicates(t *testing.T) {
	norm := NewNormalizer("test", domain.ZIP)
	a, diag := norm.Normalize(candidate("00100", "00199", "Zone 02", 1))
	require.Nil(t, diag)
	b, diag := norm.Normalize(candidate("00100", "00199", "2", 2))
	require.Nil(t, diag)
	assert.Equal(t, a.Zone, b.Zone)

	res := Merge([]domain.RangeRecord{a, b}, LastWriteWins)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Duplicates)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 2, res.Records[0].Source.Seq, "the most recent copy is kept")
}

func randomRecords(r *rand.Rand, n int) []domain.RangeRecord {
	zones := []string{"2", "3", "4", "5"}
	out := make([]domain.RangeRecord, 0, n)
	for i := 0; i < n; i++ {
		start := r.Intn(1000)
		end := start + r.Intn(120)
		out = append(out, domain.RangeRecord{
			Start:  domain.Key(start),
			End:    domain.Key(end),
			Zone:   domain.Zone(zones[r.Intn(len(zones))]),
			Origin: "test",
			Source: domain.Source{Document: "doc", Seq: r.Intn(4), Row: i},
		})
	}
	return out
}

func TestMergeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		records := randomRecords(r, 1+r.Intn(40))
		for _, policy := range []ConflictPolicy{LastWriteWins, FirstWriteWins, DropConflicts} {
			res := Merge(records, policy)
			assertDisjoint(t, res.Records)

			again := Merge(res.Records, policy)
			assert.Equal(t, res.Records, again.Records, "round %d %s: merge is idempotent", round, policy)
			assert.Empty(t, again.Conflicts)

			shuffled := append([]domain.RangeRecord(nil), records...)
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			permuted := Merge(shuffled, policy)
			assert.Equal(t, res.Records, permuted.Records, "round %d %s: input order does not matter", round, policy)
			assert.Equal(t, res.Conflicts, permuted.Conflicts)

			for _, rr := range res.Records {
				assert.False(t, rr.Zone.IsEmpty())
				assert.LessOrEqual(t, rr.Start, rr.End)
			}
		}
	}
}

func TestMergeCoverage(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	records := randomRecords(r, 30)
	res := Merge(records, LastWriteWins)

	covered := func(k domain.Key, set []domain.RangeRecord) bool {
		for _, x := range set {
			if x.Contains(k) {
				return true
			}
		}
		return false
	}
	for k := domain.Key(0); k < 1200; k++ {
		assert.Equal(t, covered(k, records), covered(k, res.Records), "key %d", k)
	}
}

func TestMergeEmpty(t *testing.T) {
	res := Merge(nil, LastWriteWins)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Conflicts)
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConflictPolicy
		wantErr bool
	}{
		{"", LastWriteWins, false},
		{"last-write-wins", LastWriteWins, false},
		{" First-Write-Wins ", FirstWriteWins, false},
		{"drop", DropConflicts, false},
		{"manual", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConflictPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
