package derived

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"zonesheet/pkg/contracts/domain"
)

// Money is a currency amount. Published per-pound rates carry more than two
// decimals, so amounts stay exact until a charge is rounded to whole cents.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d}
}

const centPlaces = 2

var moneyCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseMoney reads "$1,234.56", "12.5" or "0.42755". Dashes, blanks,
// negative amounts and exponents are not amounts.
func ParseMoney(s string) (Money, bool) {
	s = moneyCleaner.Replace(strings.TrimSpace(s))
	if s == "" || strings.ContainsAny(s, "eE-—–+") {
		return Money{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, false
	}
	return Money{amount: d}, true
}

// Times multiplies by a whole weight and rounds half up to whole cents.
func (m Money) Times(weight int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(weight))).Round(centPlaces)}
}

// Decimal returns the exact amount.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// GreaterThan reports whether m exceeds o.
func (m Money) GreaterThan(o Money) bool {
	return m.amount.GreaterThan(o.amount)
}

// Cents returns the amount in whole cents, rounding half up.
func (m Money) Cents() int64 {
	return m.amount.Round(centPlaces).Shift(centPlaces).IntPart()
}

// Float returns the amount rounded to cents for spreadsheet output.
func (m Money) Float() float64 {
	return m.amount.Round(centPlaces).InexactFloat64()
}

func (m Money) String() string {
	return m.amount.StringFixed(centPlaces)
}

// Zone numbers printed in rate table headers.
const (
	MinRateZone = 1
	MaxRateZone = 16
)

// Package weights covered by a non-freight table.
const (
	MaxDirectWeight  = 99
	MaxPackageWeight = 150
)

// minHeaderZones is how many zone numbers a row needs to be a rate header.
const minHeaderZones = 7

// RateTable holds one service's charge per (weight, zone).
type RateTable struct {
	Service string
	Freight bool
	rates   map[int]map[int]Money
}

func newRateTable(service string, freight bool) *RateTable {
	return &RateTable{Service: service, Freight: freight, rates: make(map[int]map[int]Money)}
}

func (t *RateTable) set(weight, zone int, m Money) {
	row, ok := t.rates[weight]
	if !ok {
		row = make(map[int]Money)
		t.rates[weight] = row
	}
	row[zone] = m
}

// Lookup returns the charge for an exact weight and zone.
func (t *RateTable) Lookup(weight, zone int) (Money, bool) {
	m, ok := t.rates[weight][zone]
	return m, ok
}

// Weights returns the weights with at least one rate, ascending.
func (t *RateTable) Weights() []int {
	out := make([]int, 0, len(t.rates))
	for w, row := range t.rates {
		if len(row) > 0 {
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}

// Len returns the number of (weight, zone) rates.
func (t *RateTable) Len() int {
	n := 0
	for _, row := range t.rates {
		n += len(row)
	}
	return n
}

// RateBook holds the rate tables of every detected service.
type RateBook struct {
	tables map[string]*RateTable
	order  []string
}

// NewRateBook creates an empty book.
func NewRateBook() *RateBook {
	return &RateBook{tables: make(map[string]*RateTable)}
}

// Add registers a table, replacing one with the same service name.
func (b *RateBook) Add(t *RateTable) {
	if _, ok := b.tables[t.Service]; !ok {
		b.order = append(b.order, t.Service)
	}
	b.tables[t.Service] = t
}

// Lookup returns the charge for (service, weight, zone).
func (b *RateBook) Lookup(service string, weight, zone int) (Money, bool) {
	t, ok := b.tables[service]
	if !ok {
		return Money{}, false
	}
	return t.Lookup(weight, zone)
}

// Table returns the named service table.
func (b *RateBook) Table(service string) (*RateTable, bool) {
	t, ok := b.tables[service]
	return t, ok
}

// Services returns service names in detection order.
func (b *RateBook) Services() []string {
	return append([]string(nil), b.order...)
}

var weightPattern = regexp.MustCompile(`^(\d+)\s*lbs?\.?`)

// headerZones returns the zone numbers of a rate header row, or nil.
func headerZones(tokens []string) []int {
	var zones []int
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err == nil && n >= MinRateZone && n <= MaxRateZone {
			zones = append(zones, n)
		}
	}
	if len(zones) < minHeaderZones {
		return nil
	}
	return zones
}

// amounts parses every money token of the row.
func amounts(tokens []string) []Money {
	var out []Money
	for _, tok := range tokens {
		if m, ok := ParseMoney(tok); ok {
			out = append(out, m)
		}
	}
	return out
}

// lastN returns the trailing n amounts, or nil when the row has fewer.
func lastN(ms []Money, n int) []Money {
	if n == 0 || len(ms) < n {
		return nil
	}
	return ms[len(ms)-n:]
}

func rowTokens(row domain.Row) []string {
	var toks []string
	for _, c := range row.Cells {
		toks = append(toks, strings.Fields(c)...)
	}
	return toks
}

// splitWeight reads the weight at the start of a row and returns the
// tokens that follow it.
func splitWeight(tokens []string) (int, []string, bool) {
	if len(tokens) == 0 {
		return 0, nil, false
	}
	text := strings.Join(tokens, " ")
	if m := weightPattern.FindStringSubmatch(text); m != nil {
		w, _ := strconv.Atoi(m[1])
		rest := strings.Fields(text[len(m[0]):])
		return w, rest, true
	}
	w, err := strconv.Atoi(tokens[0])
	if err != nil || w < 1 || w > 2000 {
		return 0, nil, false
	}
	return w, tokens[1:], true
}

// ParsePackageRates reads a non-freight service spanning pages. Weight rows
// 1 to 99 are read directly; the "100 lbs" per-pound row extends the table
// to weights 100 to 150.
func ParsePackageRates(service string, pages []domain.Page) *RateTable {
	t := newRateTable(service, false)
	perPound := make(map[int]Money)

	for _, page := range pages {
		var zones []int
		for i, row := range page.Rows {
			toks := rowTokens(row)
			if zones == nil {
				if i < 5 {
					zones = headerZones(toks)
				}
				continue
			}

			text := strings.ToLower(strings.Join(toks, " "))
			compact := strings.ReplaceAll(text, " ", "")
			if strings.Contains(compact, "100lbs") {
				if ms := lastN(amounts(toks[1:]), len(zones)); ms != nil {
					for j, z := range zones {
						perPound[z] = ms[j]
					}
				}
				continue
			}
			if strings.Contains(text, "weight") || strings.Contains(text, "zone") ||
				strings.Contains(text, "envelope") || strings.Contains(text, "pak") {
				continue
			}

			w, rest, ok := splitWeight(toks)
			if !ok || w < 1 || w > MaxDirectWeight {
				continue
			}
			for j, m := range amounts(rest) {
				if j < len(zones) {
					t.set(w, zones[j], m)
				}
			}
		}
	}

	for w := MaxDirectWeight + 1; w <= MaxPackageWeight; w++ {
		for z := MinRateZone; z <= MaxRateZone; z++ {
			if rate, ok := perPound[z]; ok {
				t.set(w, z, rate.Times(w))
			}
		}
	}
	return t
}

// FreightBracket is a weight band priced per pound.
type FreightBracket struct {
	Label string
	Min   int
	Max   int
}

// FreightBrackets are the bands of freight rate tables; weights above the
// last band's Min use it.
var FreightBrackets = []FreightBracket{
	{Label: "151to299", Min: 151, Max: 299},
	{Label: "300to499", Min: 300, Max: 499},
	{Label: "500to999", Min: 500, Max: 999},
	{Label: "1000to1999", Min: 1000, Max: 1999},
	{Label: "2000ormore", Min: 2000, Max: 2000},
}

// Freight weights covered by the expanded table.
const (
	MinFreightWeight = 151
	MaxFreightWeight = 2000
)

// ParseFreightRates reads a freight service: per-pound rates per weight
// bracket and a minimum charge per zone. The table is expanded to every
// whole weight from 151 to 2000 as max(weight × rate, minimum).
func ParseFreightRates(service string, pages []domain.Page) *RateTable {
	t := newRateTable(service, true)
	perPound := make(map[int]map[int]Money)
	minimum := make(map[int]Money)

	for _, page := range pages {
		var zones []int
		for _, row := range page.Rows {
			toks := rowTokens(row)
			if zones == nil {
				zones = headerZones(toks)
				continue
			}

			text := strings.ToLower(strings.Join(toks, ""))
			if strings.Contains(text, "minimum") {
				if ms := lastN(amounts(toks), len(zones)); ms != nil {
					for j, z := range zones {
						minimum[z] = ms[j]
					}
				}
				continue
			}
			for bi, b := range FreightBrackets {
				if !strings.Contains(text, b.Label) {
					continue
				}
				if ms := lastN(amounts(toks), len(zones)); ms != nil {
					if perPound[bi] == nil {
						perPound[bi] = make(map[int]Money)
					}
					for j, z := range zones {
						perPound[bi][z] = ms[j]
					}
				}
				break
			}
		}
	}

	for w := MinFreightWeight; w <= MaxFreightWeight; w++ {
		bi := bracketFor(w)
		rates, ok := perPound[bi]
		if !ok {
			continue
		}
		for z := MinRateZone; z <= MaxRateZone; z++ {
			rate, ok := rates[z]
			if !ok {
				continue
			}
			charge := rate.Times(w)
			if floor, ok := minimum[z]; ok && floor.GreaterThan(charge) {
				charge = floor
			}
			t.set(w, z, charge)
		}
	}
	return t
}

func bracketFor(weight int) int {
	for i, b := range FreightBrackets {
		if weight <= b.Max {
			return i
		}
	}
	return len(FreightBrackets) - 1
}
