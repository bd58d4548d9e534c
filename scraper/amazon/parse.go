package amazon

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"amazon-analyzer/models"
)

// Selectors are tried in order; the first match wins.
var (
	titleSelectors = []string{"h2 a span", "h2 span",
		".a-size-medium.a-color-base.a-text-normal", ".a-size-base-plus.a-color-base.a-text-normal"}
	linkSelectors   = []string{"h2 a", "a.a-link-normal.s-no-outline"}
	priceSelectors  = []string{".a-price .a-offscreen", ".a-price"}
	ratingSelectors = []string{"i.a-icon-star-small span", ".a-icon-alt"}
	reviewSelectors = []string{"span.a-size-base.s-underline-text", ".a-link-normal .a-size-base"}
)

// parseCards extracts every search result card from a rendered result page.
// Missing values become models.NotAvailable, except the review count which
// defaults to "0".
func parseCards(r io.Reader) ([]card, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("amazon: parse result page: %w", err)
	}

	var cards []card
	doc.Find(resultSelector).Each(func(_ int, item *goquery.Selection) {
		cards = append(cards, card{
			Title:       firstText(item, titleSelectors, models.NotAvailable),
			URL:         firstLink(item, linkSelectors),
			Price:       firstText(item, priceSelectors, models.NotAvailable),
			Rating:      firstText(item, ratingSelectors, models.NotAvailable),
			ReviewCount: firstText(item, reviewSelectors, "0"),
		})
	})
	return cards, nil
}

func firstText(item *goquery.Selection, selectors []string, def string) string {
	for _, sel := range selectors {
		if found := item.Find(sel).First(); found.Length() > 0 {
			if text := strings.TrimSpace(found.Text()); text != "" {
				return text
			}
		}
	}
	return def
}

// firstLink returns the first href resolved against the site root.
func firstLink(item *goquery.Selection, selectors []string) string {
	base, _ := url.Parse(siteURL)
	for _, sel := range selectors {
		href, ok := item.Find(sel).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		return base.ResolveReference(ref).String()
	}
	return models.NotAvailable
}
