package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"zonesheet/pkg/contracts/domain"
)

// rangeDashes are the separators seen between range bounds in carrier
// documents: hyphen, en dash and em dash.
const rangeDashes = "-–—"

func isDash(tok string) bool {
	return len([]rune(tok)) == 1 && strings.ContainsAny(tok, rangeDashes)
}

func hasDash(tok string) bool {
	return strings.ContainsAny(tok, rangeDashes)
}

func isZoneWord(tok string) bool {
	t := strings.TrimRight(tok, ":")
	return strings.EqualFold(t, "zone") || strings.EqualFold(t, "zones")
}

func isUnavailable(tok string) bool {
	switch strings.ToUpper(strings.TrimSpace(tok)) {
	case "NA", "N/A", "*":
		return true
	}
	return false
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// strictPostal reports whether tok is a full postal code in canonical form.
// Lenient forms such as "501" are accepted only in column-addressed rows.
func (c *Classifier) strictPostal(tok string) bool {
	k, err := c.opts.Scheme.Parse(tok)
	if err != nil {
		return false
	}
	return c.opts.Scheme.Format(k) == strings.ToUpper(strings.TrimSpace(tok))
}

// splitRange splits "A-B" into its bounds when both are strict postal codes.
func (c *Classifier) splitRange(tok string) (string, string, bool) {
	i := strings.IndexAny(tok, rangeDashes)
	if i <= 0 {
		return "", "", false
	}
	_, size := utf8.DecodeRuneInString(tok[i:])
	lo, hi := tok[:i], tok[i+size:]
	if !c.strictPostal(lo) || !c.strictPostal(hi) {
		return "", "", false
	}
	return lo, hi, true
}

// isZone reports whether tok reads as a zone label or an unavailable marker.
func (c *Classifier) isZone(tok string) bool {
	if isUnavailable(tok) {
		return true
	}
	if c.strictPostal(tok) || hasDash(tok) || len(tok) > 7 {
		return false
	}
	z := domain.NormalizeZone(tok)
	if z.IsEmpty() || len(z) > 3 {
		return false
	}
	if z.IsNumeric() {
		return true
	}
	return c.opts.AlphaZones && isLetters(strings.TrimSpace(tok))
}

// isAreaCode reports whether tok can label a matrix row or column.
func isAreaCode(tok string) bool {
	t := strings.TrimSpace(tok)
	return len(t) >= 1 && len(t) <= 3 && isLetters(t)
}

// tokens splits the row's non-blank cells on whitespace.
func tokens(row domain.Row) []string {
	var out []string
	for _, cell := range row.Cells {
		out = append(out, strings.Fields(cell)...)
	}
	return out
}

// nonBlank returns the trimmed non-blank cells of a row.
func nonBlank(row domain.Row) []string {
	var out []string
	for _, cell := range row.Cells {
		if s := strings.TrimSpace(cell); s != "" {
			out = append(out, s)
		}
	}
	return out
}
