package domain

import (
	"fmt"
)

// GroupKey identifies an origin range-group: the document or table an
// origin postal code's zone data comes from, e.g. "00000-00399" or "M5V".
type GroupKey string

// Source records where a fact was read from. Seq orders sources by recency:
// a higher Seq was provided later and wins conflicts under last-write-wins.
type Source struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
	Row      int    `json:"row"`
	Seq      int    `json:"seq"`
}

func (s Source) String() string {
	if s.Document == "" {
		return fmt.Sprintf("#%d", s.Seq)
	}
	return fmt.Sprintf("%s p%d r%d", s.Document, s.Page, s.Row)
}

// RangeRecord maps the destination interval [Start, End] to Zone for one origin.
type RangeRecord struct {
	Start  Key      `json:"start"`
	End    Key      `json:"end"`
	Zone   Zone     `json:"zone"`
	Origin GroupKey `json:"origin"`
	Source Source   `json:"source"`
}

// Validate checks the record invariants required before merging.
func (r RangeRecord) Validate() error {
	if r.Start > r.End {
		return fmt.Errorf("range start %d after end %d", r.Start, r.End)
	}
	if r.Zone.IsEmpty() {
		return fmt.Errorf("range %d-%d has no zone", r.Start, r.End)
	}
	return nil
}

// Contains reports whether k falls inside the record's interval.
func (r RangeRecord) Contains(k Key) bool {
	return r.Start <= k && k <= r.End
}

// Overlaps reports whether the two intervals share at least one key.
func (r RangeRecord) Overlaps(o RangeRecord) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// Adjacent reports whether o begins right after r ends, or the reverse.
func (r RangeRecord) Adjacent(o RangeRecord) bool {
	return r.End+1 == o.Start || o.End+1 == r.Start
}

// SameFact reports whether both records state the same range and zone,
// ignoring provenance.
func (r RangeRecord) SameFact(o RangeRecord) bool {
	return r.Start == o.Start && r.End == o.End && r.Zone == o.Zone && r.Origin == o.Origin
}

// Span returns the number of postal codes covered.
func (r RangeRecord) Span() int {
	return int(r.End-r.Start) + 1
}
