package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// Zone is a canonical carrier zone label: "2", "16", "DA".
// The empty Zone means no zone is available.
type Zone string

// NormalizeZone canonicalizes a raw zone label. It is the only place zone
// labels are cleaned, so "Zone 02", "02" and "2" all yield "2".
// Unavailable markers ("NA", "N/A", "*", "-") yield the empty Zone.
func NormalizeZone(raw string) Zone {
	s := strings.TrimSpace(raw)
	if len(s) >= 4 && strings.EqualFold(s[:4], "zone") {
		s = s[4:]
	}

	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	s = b.String()

	switch s {
	case "", "NA":
		return ""
	}

	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return Zone(trimmed)
}

// IsNumeric reports whether the zone is a plain integer zone.
func (z Zone) IsNumeric() bool {
	_, err := strconv.Atoi(string(z))
	return err == nil
}

// Int returns the numeric value of the zone, if it has one.
func (z Zone) Int() (int, bool) {
	n, err := strconv.Atoi(string(z))
	return n, err == nil
}

// IsEmpty reports whether no zone is available.
func (z Zone) IsEmpty() bool {
	return z == ""
}

func (z Zone) String() string {
	return string(z)
}
