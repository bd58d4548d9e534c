package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"amazon-analyzer/models"
)

// PrintReport writes a human-readable summary of r to w.
func PrintReport(w io.Writer, r *models.AnalysisResult) {
	sep := strings.Repeat("═", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 PRODUCT ANALYSIS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	if r == nil {
		fmt.Fprintf(w, "  No analysis available\n\n")
		return
	}

	// Overview
	overview := newTable(w, "Overview")
	overview.AppendRows([]table.Row{
		{"Products", r.Summary.TotalProducts},
		{"Average price", fmt.Sprintf("$%.2f", r.Summary.AveragePrice)},
		{"Average rating", fmt.Sprintf("%.2f ★", r.Summary.AverageRating)},
		{"Total reviews", r.Summary.TotalReviews},
	})
	overview.Render()
	if r.Summary.Error != "" {
		fmt.Fprintf(w, "  \033[33m%s\033[0m\n", r.Summary.Error)
	}
	fmt.Fprintln(w)

	if r.PriceAnalysis != nil && r.RatingAnalysis != nil && r.ReviewAnalysis != nil {
		stats := newTable(w, "Statistics")
		stats.AppendHeader(table.Row{"", "Min", "Max", "Mean", "Median", "Std dev"})
		p, rt, rv := r.PriceAnalysis, r.RatingAnalysis, r.ReviewAnalysis
		stats.AppendRow(table.Row{"Price", money(p.Min), money(p.Max), money(p.Mean), money(p.Median), money(p.StdDev)})
		stats.AppendRow(table.Row{"Rating", two(rt.Min), two(rt.Max), two(rt.Mean), two(rt.Median), two(rt.StdDev)})
		stats.AppendRow(table.Row{"Reviews", rv.Min, rv.Max, two(rv.Mean), two(rv.Median), two(rv.StdDev)})
		stats.Render()
		fmt.Fprintln(w)

		histogram(w, "Price Ranges", p.PriceRanges.Ranges, p.PriceRanges.Counts)
		histogram(w, "Review Counts", rv.Distribution.Ranges, rv.Distribution.Counts)
	}

	if r.TitleAnalysis != nil {
		words := newTable(w, "Top Words")
		words.AppendHeader(table.Row{"#", "Word", "Count"})
		for i, wc := range r.TitleAnalysis.TopWords {
			if i == 10 {
				break
			}
			words.AppendRow(table.Row{i + 1, truncate(wc.Word, 15), wc.Count})
		}
		words.AppendFooter(table.Row{"", "Sentiment", fmt.Sprintf("%+.2f", r.TitleAnalysis.AverageSentiment)})
		words.Render()
		fmt.Fprintf(w, "  positive %d | neutral %d | negative %d\n\n",
			r.TitleAnalysis.PositiveTitles, r.TitleAnalysis.NeutralTitles, r.TitleAnalysis.NegativeTitles)
	}

	if c := r.Correlations; c != nil {
		corr := newTable(w, "Correlations")
		corr.AppendRows([]table.Row{
			{"Price vs rating", fmt.Sprintf("%+.3f", c.PriceVsRating)},
			{"Price vs reviews", fmt.Sprintf("%+.3f", c.PriceVsReviews)},
			{"Rating vs reviews", fmt.Sprintf("%+.3f", c.RatingVsReviews)},
		})
		corr.Render()
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func histogram(w io.Writer, title string, labels []string, counts []int) {
	t := newTable(w, title)
	for i, label := range labels {
		if i >= len(counts) {
			break
		}
		t.AppendRow(table.Row{label, strings.Repeat("█", min(counts[i], 40)), counts[i]})
	}
	t.Render()
	fmt.Fprintln(w)
}

func money(f float64) string { return fmt.Sprintf("$%.2f", f) }

func two(f float64) string { return fmt.Sprintf("%.2f", f) }

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
