// Package amazon scrapes product cards from Amazon search result pages with
// a headless Chrome driven by chromedp.
package amazon

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"amazon-analyzer/config"
	"amazon-analyzer/models"
	"amazon-analyzer/utils"
)

const (
	siteURL        = "https://www.amazon.com"
	baseURL        = siteURL + "/s"
	resultSelector = `div.s-result-item[data-component-type='s-search-result']`
)

var (
	asinPathRegexp    = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	asinEncodedRegexp = regexp.MustCompile(`dp%2F([A-Z0-9]{10})%2F`)
)

// Scraper collects RawRecords for a search term. One Scraper may serve
// several concurrent Scrape calls; each call gets its own browser.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Amazon Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// card holds the raw text of one search result.
type card struct {
	Title       string
	URL         string
	Price       string
	Rating      string
	ReviewCount string
}

// Scrape walks result pages 1..pages for term. progress receives
// (page-1)/pages as each page starts loading and 1.0 at the end. A failed page is
// logged and skipped; Scrape only fails if the browser cannot start or ctx
// is cancelled.
func (s *Scraper) Scrape(ctx context.Context, term string, pages int, progress func(float64)) ([]*models.RawRecord, error) {
	if pages < 1 {
		pages = 1
	}
	if progress == nil {
		progress = func(float64) {}
	}

	s.logger.Info("[amazon] Starting scrape for %q, %d page(s)", term, pages)

	chromeBin := s.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Debug("[amazon] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("amazon: start browser: %w", err)
	}

	records := s.walkPages(ctx, pages, progress, func(page int) ([]card, error) {
		return s.scrapePage(browserCtx, term, page)
	})

	if err := ctx.Err(); err != nil {
		return records, fmt.Errorf("amazon: scrape cancelled: %w", err)
	}

	progress(1.0)
	s.logger.Info("[amazon] Scrape complete, %d raw products", len(records))
	return records, nil
}

// walkPages fetches pages one at a time, spaced by the rate limit, and
// collects the deduplicated records. Progress for a page is reported when its
// fetch starts.
func (s *Scraper) walkPages(ctx context.Context, pages int, progress func(float64), fetch func(page int) ([]card, error)) []*models.RawRecord {
	visited := utils.NewSet[string]()
	var (
		mu      sync.Mutex
		records []*models.RawRecord
	)

	// One worker keeps pages sequential; the pool spaces them out.
	pool := utils.NewWorkerPool(1, s.cfg.RateLimitMs)
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			break
		}
		page := page
		pool.Submit(fmt.Sprintf("page-%d", page), func() {
			progress(float64(page-1) / float64(pages))
			cards, err := fetch(page)
			if err != nil {
				s.logger.Error("[amazon] Page %d failed: %v", page, err)
				return
			}

			found := toRecords(cards, visited)
			mu.Lock()
			records = append(records, found...)
			total := len(records)
			mu.Unlock()

			s.logger.Info("[amazon] Page %d done, %d new products (%d total)", page, len(found), total)
		})
	}
	pool.Wait()

	if err := pool.Err(); err != nil {
		s.logger.Error("[amazon] %v", err)
	}
	return records
}

func (s *Scraper) scrapePage(browserCtx context.Context, term string, page int) ([]card, error) {
	var (
		cards []card
		html  string
	)
	pageURL := searchURL(term, page)

	err := s.retry.Do(browserCtx, fmt.Sprintf("scrape-page-%d", page), func() error {
		ctx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		timeout := time.Duration(s.cfg.PageLoadTimeoutS) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
		defer cancelTimeout()

		s.logger.Debug("[amazon] Loading %s", pageURL)
		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.WaitVisible(resultSelector, chromedp.ByQuery),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("chromedp page scrape: %w", err)
		}

		cards, err = parseCards(strings.NewReader(html))
		return err
	})

	return cards, err
}

// searchURL builds the result page URL; spaces in term become '+'.
func searchURL(term string, page int) string {
	q := url.Values{}
	q.Set("k", term)
	q.Set("page", fmt.Sprint(page))
	return baseURL + "?" + q.Encode()
}

// extractASIN returns the 10-character product id embedded in a product or
// sponsored-redirect URL, or "" when there is none.
func extractASIN(u string) string {
	if m := asinPathRegexp.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	if m := asinEncodedRegexp.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

// toRecords converts cards into RawRecords, skipping URLs already in
// visited. Cards without a URL are always kept.
func toRecords(cards []card, visited *utils.Set[string]) []*models.RawRecord {
	var out []*models.RawRecord
	for _, c := range cards {
		link := models.NewField(c.URL)
		if u, ok := link.Get(); ok && !visited.Add(u) {
			continue
		}

		rec := &models.RawRecord{
			Title:       models.NewField(c.Title),
			URL:         link,
			Price:       models.NewField(c.Price),
			Rating:      models.NewField(c.Rating),
			ReviewCount: models.NewField(c.ReviewCount),
		}
		if u, ok := link.Get(); ok {
			rec.ASIN = models.NewField(extractASIN(u))
		}
		out = append(out, rec)
	}
	return out
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
