package zoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/internal/classify"
	"zonesheet/pkg/contracts/domain"
)

func candidate(start, end, zone string, seq int) classify.Candidate {
	return classify.Candidate{
		Layout: classify.LayoutSingleRange,
		Start:  start,
		End:    end,
		Zone:   zone,
		Source: domain.Source{Document: "doc", Page: 1, Row: seq, Seq: seq},
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer("00000-00399", domain.ZIP)

	tests := []struct {
		name       string
		cand       classify.Candidate
		wantStart  domain.Key
		wantEnd    domain.Key
		wantZone   domain.Zone
		wantReason domain.Reason
		rejected   bool
	}{
		{name: "clean", cand: candidate("00500", "00599", "2", 1), wantStart: 500, wantEnd: 599, wantZone: "2"},
		{name: "zone word and leading zero", cand: candidate("00500", "00599", "Zone 02", 1), wantStart: 500, wantEnd: 599, wantZone: "2"},
		{name: "spreadsheet dropped zeros", cand: candidate("501", "544", "7", 1), wantStart: 501, wantEnd: 544, wantZone: "7"},
		{name: "reversed bounds are swapped", cand: candidate("00599", "00500", "3", 1), wantStart: 500, wantEnd: 599, wantZone: "3", wantReason: domain.ReasonRangeSwapped},
		{name: "bad start", cand: candidate("ABCDE", "00599", "3", 1), wantReason: domain.ReasonInvalidRange, rejected: true},
		{name: "bad end", cand: candidate("00500", "1234567", "3", 1), wantReason: domain.ReasonInvalidRange, rejected: true},
		{name: "NA zone", cand: candidate("00500", "00599", "NA", 1), wantReason: domain.ReasonZoneUnavailable, rejected: true},
		{name: "star zone", cand: candidate("00500", "00599", "*", 1), wantReason: domain.ReasonZoneUnavailable, rejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diag := n.Normalize(tt.cand)
			if tt.wantReason == "" {
				assert.Nil(t, diag)
			} else {
				require.NotNil(t, diag)
				assert.Equal(t, tt.wantReason, diag.Reason)
				assert.Equal(t, tt.rejected, diag.Rejects())
				assert.Equal(t, domain.GroupKey("00000-00399"), diag.Origin)
				assert.Equal(t, tt.cand.Source, diag.Source)
			}
			if tt.rejected {
				assert.Equal(t, domain.RangeRecord{}, got)
				return
			}
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantEnd, got.End)
			assert.Equal(t, tt.wantZone, got.Zone)
			assert.Equal(t, domain.GroupKey("00000-00399"), got.Origin)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestNormalizeFSA(t *testing.T) {
	n := NewNormalizer("M5V", domain.FSA)
	got, diag := n.Normalize(candidate("a0a", "A9Z", "zone 04", 1))
	require.Nil(t, diag)
	assert.Equal(t, "A0A", domain.FSA.Format(got.Start))
	assert.Equal(t, "A9Z", domain.FSA.Format(got.End))
	assert.Equal(t, domain.Zone("4"), got.Zone)
}
