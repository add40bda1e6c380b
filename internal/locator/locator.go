// Package locator finds which published carrier documents cover a set of
// origin postal codes. Documents are named after the block of codes they
// serve, "{lo}-{hi}" with five-digit bounds, so a block is found by probing
// candidate names until one exists.
package locator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"zonesheet/internal/config"
	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

const (
	// BlockStep is the granularity of block bounds and sizes.
	BlockStep = 100
	// MaxLookback is how far below a code a block may start.
	MaxLookback = 2000
	// DocumentExt is appended to block names to form URLs.
	DocumentExt = ".pdf"

	userAgent = "Mozilla/5.0 (compatible; zonesheet-locator/1.0)"
)

// Block is a document found to exist.
type Block struct {
	Lo  int    `json:"lo"`
	Hi  int    `json:"hi"`
	URL string `json:"url"`
}

// Key returns the block's group key, e.g. "00000-00399".
func (b Block) Key() domain.GroupKey {
	return domain.GroupKey(fmt.Sprintf("%05d-%05d", b.Lo, b.Hi))
}

// Contains reports whether code falls in the block.
func (b Block) Contains(code int) bool {
	return b.Lo <= code && code <= b.Hi
}

// Report is the outcome of Find.
type Report struct {
	// Blocks are the distinct documents found, ordered by Lo.
	Blocks []Block
	// Covered maps each canonical postal code to its block.
	Covered map[string]Block
	// Uncovered lists codes no document was found for, in ascending order.
	Uncovered []string
	// Invalid lists inputs that are not postal codes.
	Invalid []string
	// Requests counts the HEAD requests sent.
	Requests int
}

// URLs returns the URL of every block.
func (r *Report) URLs() []string {
	urls := make([]string, len(r.Blocks))
	for i, b := range r.Blocks {
		urls[i] = b.URL
	}
	return urls
}

// Locator searches a document host for blocks with HEAD requests; a 200
// response means the document exists. Requests share one rate limiter.
type Locator struct {
	baseURL     string
	client      *http.Client
	limiter     *rate.Limiter
	concurrency int
	minSize     int
	maxSize     int
	logger      *slog.Logger
}

// New creates a Locator from cfg.
func New(cfg config.LocatorConfig, logger *slog.Logger) (*Locator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, apperrors.NewConfigError("locator base URL is not set", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	minSize := roundUp(max(cfg.MinBlockSize, BlockStep))
	maxSize := roundUp(max(cfg.MaxBlockSize, minSize))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	burst := max(cfg.Burst, 1)

	return &Locator{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/",
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RPS), burst),
		concurrency: max(cfg.Concurrency, 1),
		minSize:     minSize,
		maxSize:     maxSize,
		logger:      logger.With(slog.String("component", "locator")),
	}, nil
}

func roundUp(n int) int {
	return (n + BlockStep - 1) / BlockStep * BlockStep
}

// URL returns the document URL of block [lo, hi].
func (l *Locator) URL(lo, hi int) string {
	return fmt.Sprintf("%s%05d-%05d%s", l.baseURL, lo, hi, DocumentExt)
}

// Candidates lists the blocks that could hold code, in request order: lower
// bounds descending from the multiple of BlockStep at or below code, and for
// each bound the sizes ascending. Blocks not containing code are left out.
func (l *Locator) Candidates(code int) []Block {
	var out []Block
	base := code / BlockStep * BlockStep
	for offset := 0; offset < MaxLookback; offset += BlockStep {
		lo := base - offset
		if lo < 0 {
			break
		}
		for size := l.minSize; size <= l.maxSize; size += BlockStep {
			hi := lo + size - 1
			if code > hi || hi > 99999 {
				continue
			}
			out = append(out, Block{Lo: lo, Hi: hi, URL: l.URL(lo, hi)})
		}
	}
	return out
}

// Exists reports whether url answers a HEAD request with 200. Transport
// failures count as absent; only cancellation of ctx is an error.
func (l *Locator) Exists(ctx context.Context, url string) (bool, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, apperrors.NewNetworkError("failed to create HEAD request", err).WithContext("url", url)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		l.logger.DebugContext(ctx, "HEAD request failed", slog.String("url", url), slog.String("error", err.Error()))
		return false, nil
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// FindBlock returns the first candidate block for code that exists.
// Candidates are checked concurrently in windows; the earliest hit in
// candidate order wins regardless of response timing.
func (l *Locator) FindBlock(ctx context.Context, code int) (Block, bool, int, error) {
	cands := l.Candidates(code)
	sent := 0
	for start := 0; start < len(cands); start += l.concurrency {
		window := cands[start:min(start+l.concurrency, len(cands))]
		found := make([]bool, len(window))

		g, gctx := errgroup.WithContext(ctx)
		for i, b := range window {
			g.Go(func() error {
				ok, err := l.Exists(gctx, b.URL)
				found[i] = ok
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return Block{}, false, sent, err
		}
		sent += len(window)

		if i := slices.Index(found, true); i >= 0 {
			return window[i], true, sent, nil
		}
	}
	return Block{}, false, sent, nil
}

// Find locates documents for codes. Codes already covered by a found block
// are not requested again.
func (l *Locator) Find(ctx context.Context, codes []string) (*Report, error) {
	report := &Report{Covered: make(map[string]Block)}

	var keys []int
	seen := make(map[int]bool)
	for _, raw := range codes {
		k, err := domain.ZIP.Parse(raw)
		if err != nil {
			report.Invalid = append(report.Invalid, raw)
			l.logger.WarnContext(ctx, "not a postal code", slog.String("input", raw))
			continue
		}
		if !seen[int(k)] {
			seen[int(k)] = true
			keys = append(keys, int(k))
		}
	}
	slices.Sort(keys)

	for _, code := range keys {
		canonical := fmt.Sprintf("%05d", code)
		if i := slices.IndexFunc(report.Blocks, func(b Block) bool { return b.Contains(code) }); i >= 0 {
			report.Covered[canonical] = report.Blocks[i]
			continue
		}

		block, ok, sent, err := l.FindBlock(ctx, code)
		report.Requests += sent
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Uncovered = append(report.Uncovered, canonical)
			l.logger.WarnContext(ctx, "no document found", slog.String("postal_code", canonical), slog.Int("requests", sent))
			continue
		}
		report.Blocks = append(report.Blocks, block)
		report.Covered[canonical] = block
		l.logger.InfoContext(ctx, "document found",
			slog.String("postal_code", canonical),
			slog.String("block", string(block.Key())),
			slog.Int("requests", sent))
	}

	slices.SortFunc(report.Blocks, func(a, b Block) int { return a.Lo - b.Lo })
	l.logger.InfoContext(ctx, "locate complete",
		slog.Int("codes", len(keys)),
		slog.Int("blocks", len(report.Blocks)),
		slog.Int("uncovered", len(report.Uncovered)),
		slog.Int("requests", report.Requests))
	return report, nil
}
