package zoning

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/emirpasic/gods/v2/maps/treemap"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

// Group rule names accepted by ParseGroupRule.
const (
	RuleBlock  = "block"
	RulePrefix = "prefix"
)

// GroupRule derives origin group keys: the key of the table a source
// document holds, and the key an origin postal code is served by.
type GroupRule interface {
	Name() string
	// DocumentKey returns the group key of a source document or zone table
	// from its file name.
	DocumentKey(name string, scheme domain.Scheme) (domain.GroupKey, error)
	groupFor(c *Catalog, code string) (domain.GroupKey, bool)
}

// ParseGroupRule builds the configured rule. prefixLength is used by the
// prefix rule only.
func ParseGroupRule(name string, prefixLength int) (GroupRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RuleBlock, "":
		return BlockRule{}, nil
	case RulePrefix:
		if prefixLength <= 0 {
			return nil, apperrors.NewConfigError(fmt.Sprintf("prefix rule needs a positive length, got %d", prefixLength), nil)
		}
		return PrefixRule{Length: prefixLength}, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown group rule %q", name), nil)
	}
}

const blockDashes = "-–—"

// BlockRule keys origins by the postal block a carrier document covers,
// e.g. "00000-00399". An origin code belongs to the block containing it.
type BlockRule struct{}

// Name implements GroupRule.
func (BlockRule) Name() string { return RuleBlock }

// DocumentKey finds a "lo-hi" block in name.
func (BlockRule) DocumentKey(name string, scheme domain.Scheme) (domain.GroupKey, error) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	fields := strings.FieldsFunc(stem, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(blockDashes, r)
	})
	for _, field := range fields {
		i := strings.IndexAny(field, blockDashes)
		if i <= 0 {
			continue
		}
		_, size := utf8.DecodeRuneInString(field[i:])
		if lo, hi, err := parseBlock(field[:i], field[i+size:], scheme); err == nil {
			return BlockKey(lo, hi, scheme), nil
		}
	}
	return "", apperrors.NewParsingError(fmt.Sprintf("no postal block in file name %q", filepath.Base(name)), nil)
}

func (BlockRule) groupFor(c *Catalog, code string) (domain.GroupKey, bool) {
	k, err := c.scheme.Parse(code)
	if err != nil {
		return "", false
	}
	lo, b, ok := c.blocks.Floor(k)
	if !ok || k < lo || k > b.hi {
		return "", false
	}
	return b.key, true
}

// BlockKey formats the group key of the block [lo, hi].
func BlockKey(lo, hi domain.Key, scheme domain.Scheme) domain.GroupKey {
	return domain.GroupKey(scheme.Format(lo) + "-" + scheme.Format(hi))
}

// ParseBlockKey returns the bounds of a "lo-hi" group key.
func ParseBlockKey(key domain.GroupKey, scheme domain.Scheme) (domain.Key, domain.Key, error) {
	lo, hi, ok := strings.Cut(string(key), "-")
	if !ok {
		return 0, 0, fmt.Errorf("group key %q is not a block", key)
	}
	return parseBlock(lo, hi, scheme)
}

func parseBlock(loText, hiText string, scheme domain.Scheme) (domain.Key, domain.Key, error) {
	lo, err := scheme.Parse(loText)
	if err != nil {
		return 0, 0, err
	}
	hi, err := scheme.Parse(hiText)
	if err != nil {
		return 0, 0, err
	}
	if scheme.Format(lo) != strings.ToUpper(loText) || scheme.Format(hi) != strings.ToUpper(hiText) {
		return 0, 0, fmt.Errorf("block %s-%s is not in canonical form", loText, hiText)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("block %s-%s is reversed", loText, hiText)
	}
	return lo, hi, nil
}

// PrefixRule keys origins by the first Length characters of the canonical
// postal code, e.g. "005" for ZIP 00501 or "M5V" for an FSA.
type PrefixRule struct {
	Length int
}

// Name implements GroupRule.
func (PrefixRule) Name() string { return RulePrefix }

// DocumentKey takes the prefix from the start of the file name.
func (r PrefixRule) DocumentKey(name string, _ domain.Scheme) (domain.GroupKey, error) {
	stem := strings.ToUpper(strings.ReplaceAll(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), " ", ""))
	if len(stem) < r.Length {
		return "", apperrors.NewParsingError(fmt.Sprintf("file name %q is shorter than prefix length %d", filepath.Base(name), r.Length), nil)
	}
	return domain.GroupKey(stem[:r.Length]), nil
}

// Key returns the group key for an origin postal code.
func (r PrefixRule) Key(code string, scheme domain.Scheme) (domain.GroupKey, bool) {
	s := scheme.Canonical(code)
	if len(s) < r.Length {
		return "", false
	}
	return domain.GroupKey(s[:r.Length]), true
}

func (r PrefixRule) groupFor(c *Catalog, code string) (domain.GroupKey, bool) {
	return r.Key(code, c.scheme)
}

type block struct {
	hi  domain.Key
	key domain.GroupKey
}

// Catalog holds the zone indexes of every known origin group and resolves
// origin postal codes to them. It is filled once and then only read, so
// concurrent lookups need no locking.
type Catalog struct {
	rule   GroupRule
	scheme domain.Scheme
	byKey  map[domain.GroupKey]*OriginZoneIndex
	blocks *treemap.Map[domain.Key, block]
}

// NewCatalog creates an empty catalog.
func NewCatalog(rule GroupRule, scheme domain.Scheme) *Catalog {
	return &Catalog{
		rule:   rule,
		scheme: scheme,
		byKey:  make(map[domain.GroupKey]*OriginZoneIndex),
		blocks: treemap.New[domain.Key, block](),
	}
}

// Add registers ix under its group key, replacing an earlier index for the
// same key.
func (c *Catalog) Add(ix *OriginZoneIndex) error {
	key := ix.GroupKey()
	if _, ok := c.rule.(BlockRule); ok {
		lo, hi, err := ParseBlockKey(key, c.scheme)
		if err != nil {
			return apperrors.NewValidationError(err.Error()).WithContext("origin", string(key))
		}
		if prev, b, found := c.blocks.Floor(hi); found && b.key != key && b.hi >= lo {
			return apperrors.NewValidationError(fmt.Sprintf("block %s overlaps %s", key, b.key)).
				WithContext("origin", string(key)).WithContext("other_start", c.scheme.Format(prev))
		}
		c.blocks.Put(lo, block{hi: hi, key: key})
	}
	c.byKey[key] = ix
	return nil
}

// Resolve finds the index serving an origin postal code. The returned key
// is the group the code maps to, or empty when no group could be derived.
func (c *Catalog) Resolve(code string) (*OriginZoneIndex, domain.GroupKey, bool) {
	key, ok := c.rule.groupFor(c, code)
	if !ok {
		return nil, key, false
	}
	ix, ok := c.byKey[key]
	return ix, key, ok
}

// Get returns the index registered under key.
func (c *Catalog) Get(key domain.GroupKey) (*OriginZoneIndex, bool) {
	ix, ok := c.byKey[key]
	return ix, ok
}

// Keys returns the registered group keys in ascending order.
func (c *Catalog) Keys() []domain.GroupKey {
	keys := make([]domain.GroupKey, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of registered origins.
func (c *Catalog) Len() int {
	return len(c.byKey)
}

// Rule returns the catalog's grouping rule.
func (c *Catalog) Rule() GroupRule {
	return c.rule
}

// Scheme returns the postal scheme of origin codes.
func (c *Catalog) Scheme() domain.Scheme {
	return c.scheme
}
