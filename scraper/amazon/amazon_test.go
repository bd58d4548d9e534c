package amazon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazon-analyzer/config"
	"amazon-analyzer/utils"
)

func TestSearchURL(t *testing.T) {
	tests := []struct {
		term string
		page int
		want string
	}{
		{"wireless mouse", 1, "https://www.amazon.com/s?k=wireless+mouse&page=1"},
		{"usb-c & hdmi", 3, "https://www.amazon.com/s?k=usb-c+%26+hdmi&page=3"},
	}

	for _, tt := range tests {
		if got := searchURL(tt.term, tt.page); got != tt.want {
			t.Errorf("searchURL(%q, %d) = %q; want %q", tt.term, tt.page, got, tt.want)
		}
	}
}

func TestExtractASIN(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.com/Logitech-Mouse/dp/B07CMS5Q6P/ref=sr_1_1", "B07CMS5Q6P"},
		{"https://www.amazon.com/sspa/click?url=%2FWidget%2Fdp%2FB0C1234567%2Fref%3Dsr", "B0C1234567"},
		{"https://www.amazon.com/dp/b07cms5q6p", ""},
		{"https://www.amazon.com/gp/help", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := extractASIN(tt.url); got != tt.want {
			t.Errorf("extractASIN(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestToRecordsDedupes(t *testing.T) {
	visited := utils.NewSet[string]()
	cards := []card{
		{Title: "Widget A", URL: "https://www.amazon.com/x/dp/B000000001/", Price: "$19.99", Rating: "4.5 out of 5 stars", ReviewCount: "100"},
		{Title: "Widget A again", URL: "https://www.amazon.com/x/dp/B000000001/"},
		{Title: "No link", URL: "N/A", Price: "N/A", ReviewCount: "0"},
		{Title: "No link either", URL: "N/A"},
	}

	got := toRecords(cards, visited)
	require.Len(t, got, 3)

	assert.Equal(t, "Widget A", got[0].Title.String())
	assert.Equal(t, "B000000001", got[0].ASIN.String())
	assert.Equal(t, "$19.99", got[0].Price.String())

	assert.False(t, got[1].URL.IsPresent())
	assert.False(t, got[1].ASIN.IsPresent())
	assert.False(t, got[1].Price.IsPresent())
	assert.Equal(t, "0", got[1].ReviewCount.String())

	// a later page repeating a product adds nothing
	assert.Empty(t, toRecords(cards[:1], visited))
	assert.Equal(t, 1, visited.Size())
}

func TestWalkPagesReportsProgressWhenPageStarts(t *testing.T) {
	s := New(&config.Config{MaxRetries: 1}, utils.Discard())

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	fetch := func(page int) ([]card, error) {
		record(fmt.Sprintf("fetch %d", page))
		defer record(fmt.Sprintf("done %d", page))
		switch page {
		case 2:
			return nil, errors.New("timeout")
		case 3:
			// repeats page 1's product
			return []card{{Title: "Widget A", URL: "https://www.amazon.com/dp/B000000001"}}, nil
		}
		return []card{{Title: "Widget A", URL: "https://www.amazon.com/dp/B000000001"}, {Title: "No link", URL: "N/A"}}, nil
	}

	got := s.walkPages(context.Background(), 4, func(f float64) { record(fmt.Sprintf("progress %.2f", f)) }, fetch)

	assert.Equal(t, []string{
		"progress 0.00", "fetch 1", "done 1",
		"progress 0.25", "fetch 2", "done 2",
		"progress 0.50", "fetch 3", "done 3",
		"progress 0.75", "fetch 4", "done 4",
	}, events)

	// page 2 failed, page 3 only repeated a product, page 4 adds its unlinked card
	require.Len(t, got, 3)
	assert.Equal(t, "B000000001", got[0].ASIN.String())
}

func TestWalkPagesStopsOnCancelledContext(t *testing.T) {
	s := New(&config.Config{MaxRetries: 1}, utils.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	got := s.walkPages(ctx, 3, func(float64) {}, func(int) ([]card, error) {
		calls++
		return nil, nil
	})
	assert.Empty(t, got)
	assert.Zero(t, calls)
}
