package domain

import (
	"fmt"
	"strings"
)

// Key is a fixed-width comparable postal code value.
// Keys of one scheme are dense: Key+1 is the next postal code.
type Key int

// Scheme parses and formats the postal codes of one jurisdiction.
type Scheme interface {
	// Name identifies the scheme in configuration and diagnostics.
	Name() string
	// Parse converts raw text into a Key.
	Parse(raw string) (Key, error)
	// Format renders a Key back to canonical text.
	Format(k Key) string
	// Canonical cleans a raw postal code without converting it,
	// e.g. restoring leading zeros that a spreadsheet dropped.
	Canonical(raw string) string
}

// Scheme names
const (
	SchemeZIP = "zip"
	SchemeFSA = "fsa"
)

// SchemeByName returns the scheme registered under name.
func SchemeByName(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SchemeZIP, "us", "":
		return ZIP, nil
	case SchemeFSA, "ca":
		return FSA, nil
	default:
		return nil, fmt.Errorf("unknown postal scheme %q", name)
	}
}

// ZIP is the 5-digit US postal scheme.
var ZIP Scheme = zipScheme{}

// FSA is the Canadian forward sortation area scheme (first three characters).
var FSA Scheme = fsaScheme{}

type zipScheme struct{}

func (zipScheme) Name() string { return SchemeZIP }

func (zipScheme) Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	// ZIP+4 and spreadsheet float artifacts
	if i := strings.IndexAny(s, "-."); i > 0 {
		s = s[:i]
	}
	if len(s) > 0 && len(s) < 5 && isDigits(s) {
		s = strings.Repeat("0", 5-len(s)) + s
	}
	return s
}

func (z zipScheme) Parse(raw string) (Key, error) {
	s := z.Canonical(raw)
	if len(s) != 5 || !isDigits(s) {
		return 0, fmt.Errorf("invalid ZIP code %q", raw)
	}
	v := 0
	for _, c := range s {
		v = v*10 + int(c-'0')
	}
	return Key(v), nil
}

func (zipScheme) Format(k Key) string {
	return fmt.Sprintf("%05d", int(k))
}

type fsaScheme struct{}

func (fsaScheme) Name() string { return SchemeFSA }

func (fsaScheme) Canonical(raw string) string {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

func (f fsaScheme) Parse(raw string) (Key, error) {
	s := f.Canonical(raw)
	if len(s) != 3 || !isLetter(s[0]) || !isDigit(s[1]) || !isLetter(s[2]) {
		return 0, fmt.Errorf("invalid FSA %q", raw)
	}
	l1 := int(s[0] - 'A')
	d := int(s[1] - '0')
	l2 := int(s[2] - 'A')
	return Key((l1*10+d)*26 + l2), nil
}

func (fsaScheme) Format(k Key) string {
	v := int(k)
	if v < 0 || v >= 26*10*26 {
		return fmt.Sprintf("?%d", v)
	}
	l2 := v % 26
	v /= 26
	d := v % 10
	l1 := v / 10
	return string([]byte{byte('A' + l1), byte('0' + d), byte('A' + l2)})
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }
