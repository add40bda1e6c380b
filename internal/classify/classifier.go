package classify

import (
	"iter"
	"log/slog"
	"strings"

	"zonesheet/pkg/contracts/domain"
)

// Columns addresses the cells of a single-range row.
type Columns struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
	Zone  int `yaml:"zone" json:"zone"`
}

// Options controls which layouts are recognized.
type Options struct {
	Scheme domain.Scheme
	// Columns is the default single-range column order. A header row naming
	// start, end and zone columns overrides it for the rest of the document.
	Columns Columns
	// ZoneColumn picks the zone when a range is followed by several zone
	// columns, e.g. express and ground. It is clamped to the last zone present.
	ZoneColumn int
	// MinMatrixColumns is the number of area codes a row needs to be taken
	// as a matrix header.
	MinMatrixColumns int
	// AlphaZones allows letter-only zone labels such as "DA" after a range.
	AlphaZones bool
	// StrictCodes requires full canonical postal codes in single-range rows.
	// Spreadsheets drop leading zeros, so it is off for workbook sources.
	StrictCodes bool
}

// DefaultOptions returns options for documents keyed by scheme.
func DefaultOptions(scheme domain.Scheme) Options {
	return Options{
		Scheme:           scheme,
		Columns:          Columns{Start: 0, End: 1, Zone: 2},
		MinMatrixColumns: 5,
		AlphaZones:       scheme.Name() == domain.SchemeFSA,
	}
}

// Stats counts what happened to each row.
type Stats struct {
	Rows       int            `json:"rows"`
	Blank      int            `json:"blank"`
	Headers    int            `json:"headers"`
	Classified int            `json:"classified"`
	Skipped    int            `json:"skipped"`
	Candidates int            `json:"candidates"`
	ByLayout   map[Layout]int `json:"by_layout"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.Blank += o.Blank
	s.Headers += o.Headers
	s.Classified += o.Classified
	s.Skipped += o.Skipped
	s.Candidates += o.Candidates
	if len(o.ByLayout) > 0 && s.ByLayout == nil {
		s.ByLayout = make(map[Layout]int)
	}
	for l, n := range o.ByLayout {
		s.ByLayout[l] += n
	}
}

type rowKind int

const (
	rowNone rowKind = iota
	rowHeader
	rowShape
)

// Classifier turns extracted rows into candidate range records. It keeps
// header state between rows, so one Classifier reads one document at a time
// and is not safe for concurrent use.
type Classifier struct {
	opts   Options
	origin domain.GroupKey
	logger *slog.Logger

	columns Columns
	matrix  []string

	stats Stats
	diags []domain.Diagnostic
}

// New creates a classifier for rows belonging to origin.
func New(origin domain.GroupKey, opts Options, logger *slog.Logger) *Classifier {
	if opts.Scheme == nil {
		opts.Scheme = domain.ZIP
	}
	if opts.MinMatrixColumns <= 0 {
		opts.MinMatrixColumns = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Classifier{
		opts:   opts,
		origin: origin,
		logger: logger.With(slog.String("component", "classifier"), slog.String("origin", string(origin))),
	}
	c.reset()
	return c
}

func (c *Classifier) reset() {
	c.columns = c.opts.Columns
	c.matrix = nil
}

// Classify lazily yields the candidates of every page of doc. Header state is
// reset at the start of the document.
func (c *Classifier) Classify(doc domain.Document) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		c.reset()
		before := c.stats
		for _, page := range doc.Pages {
			for cand := range c.ClassifyPage(page) {
				if !yield(cand) {
					return
				}
			}
		}
		c.logger.Debug("document classified",
			slog.String("document", doc.Name),
			slog.Int("rows", c.stats.Rows-before.Rows),
			slog.Int("candidates", c.stats.Candidates-before.Candidates),
			slog.Int("skipped", c.stats.Skipped-before.Skipped))
	}
}

// ClassifyPage lazily yields the candidates of one page.
func (c *Classifier) ClassifyPage(page domain.Page) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for i, row := range page.Rows {
			src := row.Source
			if src.Page == 0 {
				src.Page = page.Number
			}
			if src.Row == 0 {
				src.Row = i + 1
			}
			row.Source = src

			c.stats.Rows++
			if row.IsBlank() {
				c.stats.Blank++
				continue
			}

			shape, kind := c.match(row)
			switch kind {
			case rowHeader:
				c.stats.Headers++
				continue
			case rowNone:
				c.stats.Skipped++
				c.diags = append(c.diags, domain.Diagnostic{
					Origin:   c.origin,
					Reason:   domain.ReasonMalformedRow,
					Severity: domain.SeverityRejected,
					Input:    row.Text(),
					Detail:   "row matches no known layout",
					Source:   src,
				})
				continue
			}

			c.stats.Classified++
			if c.stats.ByLayout == nil {
				c.stats.ByLayout = make(map[Layout]int)
			}
			c.stats.ByLayout[shape.Layout()]++
			for _, cand := range shape.candidates(src) {
				c.stats.Candidates++
				if !yield(cand) {
					return
				}
			}
		}
	}
}

// Match classifies a single row against the current header state.
// Header rows update that state and report false.
func (c *Classifier) Match(row domain.Row) (Shape, bool) {
	shape, kind := c.match(row)
	return shape, kind == rowShape
}

// Stats returns the counters accumulated so far.
func (c *Classifier) Stats() Stats {
	s := c.stats
	s.ByLayout = make(map[Layout]int, len(c.stats.ByLayout))
	for l, n := range c.stats.ByLayout {
		s.ByLayout[l] = n
	}
	return s
}

// Diagnostics returns the MalformedRow reports accumulated so far.
func (c *Classifier) Diagnostics() []domain.Diagnostic {
	return append([]domain.Diagnostic(nil), c.diags...)
}

func (c *Classifier) match(row domain.Row) (Shape, rowKind) {
	if row.IsBlank() {
		return nil, rowNone
	}
	if c.matchColumnHeader(row) || c.matchMatrixHeader(row) {
		return nil, rowHeader
	}
	if c.matrix != nil {
		if m, ok := c.matchMatrixRow(row); ok {
			return m, rowShape
		}
	}
	if s, ok := c.matchSingle(row); ok {
		return s, rowShape
	}
	if p, ok := c.matchPacked(row); ok {
		return p, rowShape
	}
	return nil, rowNone
}

// matchColumnHeader recognizes "Start Postal Code | End Postal Code | Zone"
// style headers and remaps the single-range columns.
func (c *Classifier) matchColumnHeader(row domain.Row) bool {
	cols := Columns{Start: -1, End: -1, Zone: -1}
	for i, cell := range row.Cells {
		text := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case text == "":
		case hasWordPrefix(text, "start") || leadingWord(text) == "from":
			if cols.Start < 0 {
				cols.Start = i
			}
		case hasWordPrefix(text, "end") || leadingWord(text) == "to":
			if cols.End < 0 {
				cols.End = i
			}
		case strings.HasPrefix(text, "zone"):
			if cols.Zone < 0 {
				cols.Zone = i
			}
		}
	}
	if cols.Start < 0 || cols.End < 0 || cols.Zone < 0 {
		return false
	}
	for _, tok := range tokens(row) {
		if c.strictPostal(tok) {
			return false
		}
	}
	c.columns = cols
	return true
}

// leadingWord returns the first word of a lower-cased header cell.
func leadingWord(text string) string {
	words := strings.FieldsFunc(text, isHeaderSeparator)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// hasWordPrefix reports whether any word of text starts with prefix, so
// "ending zip" matches "end" and "legend" does not.
func hasWordPrefix(text, prefix string) bool {
	for _, w := range strings.FieldsFunc(text, isHeaderSeparator) {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

func isHeaderSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ':', '/', '-', '_', '(', ')', '.':
		return true
	}
	return false
}

func (c *Classifier) matchMatrixHeader(row domain.Row) bool {
	cells := nonBlank(row)
	if len(cells) > 0 && !isAreaCode(cells[0]) {
		cells = cells[1:]
	}
	if len(cells) < c.opts.MinMatrixColumns {
		return false
	}
	codes := make([]string, 0, len(cells))
	for _, cell := range cells {
		if !isAreaCode(cell) {
			return false
		}
		codes = append(codes, strings.ToUpper(cell))
	}
	c.matrix = codes
	return true
}

func (c *Classifier) matchMatrixRow(row domain.Row) (MatrixRow, bool) {
	label := -1
	for i, cell := range row.Cells {
		if strings.TrimSpace(cell) != "" {
			label = i
			break
		}
	}
	if label < 0 || !isAreaCode(row.Cells[label]) {
		return MatrixRow{}, false
	}

	values := make([]string, 0, len(c.matrix))
	for _, cell := range row.Cells[label+1:] {
		values = append(values, strings.TrimSpace(cell))
	}
	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}
	if len(values) > len(c.matrix) {
		values = nonBlank(domain.Row{Cells: values})
		if len(values) != len(c.matrix) {
			return MatrixRow{}, false
		}
	}

	m := MatrixRow{Label: strings.ToUpper(strings.TrimSpace(row.Cells[label]))}
	for i, v := range values {
		if v == "" {
			continue
		}
		if !isUnavailable(v) && !domain.NormalizeZone(v).IsNumeric() {
			return MatrixRow{}, false
		}
		m.Cells = append(m.Cells, MatrixCell{Column: c.matrix[i], Value: v})
	}
	return m, len(m.Cells) > 0
}

func (c *Classifier) cell(row domain.Row, i int) string {
	if i < 0 || i >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[i])
}

func (c *Classifier) matchSingle(row domain.Row) (SingleRange, bool) {
	cols := c.columns
	start, end, zone := c.cell(row, cols.Start), c.cell(row, cols.End), c.cell(row, cols.Zone)
	if start != "" && end != "" && !hasDash(start) && !hasDash(end) && c.isZone(zone) {
		if c.parsable(start) && c.parsable(end) && !c.hasExtraCodes(row, cols) {
			return SingleRange{Start: start, End: end, Zone: zone}, true
		}
	}

	cells := nonBlank(row)
	if len(cells) == 2 && c.isZone(cells[1]) {
		if lo, hi, ok := c.splitRange(cells[0]); ok {
			return SingleRange{Start: lo, End: hi, Zone: cells[1]}, true
		}
	}
	return SingleRange{}, false
}

func (c *Classifier) parsable(tok string) bool {
	if c.opts.StrictCodes {
		return c.strictPostal(tok)
	}
	_, err := c.opts.Scheme.Parse(tok)
	return err == nil
}

// hasExtraCodes reports whether cells outside cols hold postal codes, which
// means the row is packed rather than single.
func (c *Classifier) hasExtraCodes(row domain.Row, cols Columns) bool {
	for i, cell := range row.Cells {
		if i == cols.Start || i == cols.End || i == cols.Zone {
			continue
		}
		for _, tok := range strings.Fields(cell) {
			if c.strictPostal(tok) {
				return true
			}
			if _, _, ok := c.splitRange(tok); ok {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) matchPacked(row domain.Row) (PackedRanges, bool) {
	toks := tokens(row)
	var p PackedRanges
	for i := 0; i < len(toks); {
		lo, hi, n := c.readRange(toks, i)
		if n == 0 {
			i++
			continue
		}
		i += n

		var zones []string
		for i < len(toks) {
			if isZoneWord(toks[i]) {
				i++
				continue
			}
			if !c.isZone(toks[i]) {
				break
			}
			zones = append(zones, toks[i])
			i++
		}
		if len(zones) == 0 {
			continue
		}
		pick := c.opts.ZoneColumn
		if pick >= len(zones) {
			pick = len(zones) - 1
		}
		if pick < 0 {
			pick = 0
		}
		p.Pairs = append(p.Pairs, RangeZone{Start: lo, End: hi, Zone: zones[pick]})
	}
	return p, len(p.Pairs) > 0
}

// readRange reads the range starting at toks[i] and returns how many tokens
// it used, or 0 when toks[i] does not start a range. Accepted forms are
// "A-B", "A - B", "A B" followed by a zone, and a lone "A".
func (c *Classifier) readRange(toks []string, i int) (string, string, int) {
	tok := toks[i]
	if lo, hi, ok := c.splitRange(tok); ok {
		return lo, hi, 1
	}
	if !c.strictPostal(tok) {
		return "", "", 0
	}
	if i+2 < len(toks) && isDash(toks[i+1]) && c.strictPostal(toks[i+2]) {
		return tok, toks[i+2], 3
	}
	if i+2 < len(toks) && c.strictPostal(toks[i+1]) && (c.isZone(toks[i+2]) || isZoneWord(toks[i+2])) {
		return tok, toks[i+1], 2
	}
	return tok, tok, 1
}
