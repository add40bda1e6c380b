package classify

import (
	"zonesheet/pkg/contracts/domain"
)

// Layout identifies the row pattern a candidate was read from.
type Layout int

const (
	LayoutSingleRange Layout = iota + 1
	LayoutPackedRanges
	LayoutMatrix
)

func (l Layout) String() string {
	switch l {
	case LayoutSingleRange:
		return "single_range"
	case LayoutPackedRanges:
		return "packed_ranges"
	case LayoutMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Shape is one recognized row layout. The concrete types are SingleRange,
// PackedRanges and MatrixRow.
type Shape interface {
	Layout() Layout
	candidates(src domain.Source) []Candidate
}

// SingleRange is a row holding exactly one (start, end, zone) triple.
type SingleRange struct {
	Start string
	End   string
	Zone  string
}

// Layout implements Shape.
func (SingleRange) Layout() Layout { return LayoutSingleRange }

func (s SingleRange) candidates(src domain.Source) []Candidate {
	return []Candidate{{
		Layout: LayoutSingleRange,
		Start:  s.Start,
		End:    s.End,
		Zone:   s.Zone,
		Source: src,
	}}
}

// RangeZone is one range/zone pair inside a packed row.
type RangeZone struct {
	Start string
	End   string
	Zone  string
}

// PackedRanges is a wide row holding several range/zone pairs side by side.
type PackedRanges struct {
	Pairs []RangeZone
}

// Layout implements Shape.
func (PackedRanges) Layout() Layout { return LayoutPackedRanges }

func (p PackedRanges) candidates(src domain.Source) []Candidate {
	out := make([]Candidate, 0, len(p.Pairs))
	for _, pair := range p.Pairs {
		out = append(out, Candidate{
			Layout: LayoutPackedRanges,
			Start:  pair.Start,
			End:    pair.End,
			Zone:   pair.Zone,
			Source: src,
		})
	}
	return out
}

// MatrixCell is one populated cell of a matrix row.
type MatrixCell struct {
	Column string
	Value  string
}

// MatrixRow is a row of a zone grid: Label is the row's area code and each
// cell holds the zone for (Label, Column).
type MatrixRow struct {
	Label string
	Cells []MatrixCell
}

// Layout implements Shape.
func (MatrixRow) Layout() Layout { return LayoutMatrix }

func (m MatrixRow) candidates(src domain.Source) []Candidate {
	out := make([]Candidate, 0, len(m.Cells))
	for _, cell := range m.Cells {
		out = append(out, Candidate{
			Layout:   LayoutMatrix,
			Start:    cell.Column,
			End:      cell.Column,
			Zone:     cell.Value,
			RowLabel: m.Label,
			Source:   src,
		})
	}
	return out
}

// Candidate is an unvalidated range record as read from a row. Start and End
// are raw postal text, except for matrix candidates where they hold the
// destination area code and RowLabel holds the origin area code.
type Candidate struct {
	Layout   Layout        `json:"layout"`
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Zone     string        `json:"zone"`
	RowLabel string        `json:"row_label,omitempty"`
	Source   domain.Source `json:"source"`
}
