package models

// Dashboard holds the chart-ready views derived from an AnalysisResult.
type Dashboard struct {
	Summary          Summary           `json:"summary"`
	PriceChart       BarSeries         `json:"price_chart"`
	RatingChart      BarSeries         `json:"rating_chart"`
	ReviewChart      BarSeries         `json:"review_chart"`
	WordCloud        []WordCloudEntry  `json:"word_cloud_data"`
	CorrelationChart CorrelationMatrix `json:"correlation_chart"`
}

// BarSeries is one bar chart: parallel label and value slices.
type BarSeries struct {
	Title  string   `json:"title"`
	XAxis  string   `json:"x_axis"`
	YAxis  string   `json:"y_axis"`
	Color  string   `json:"color"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

type WordCloudEntry struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// CorrelationMatrix is a symmetric matrix with a unit diagonal.
type CorrelationMatrix struct {
	Title  string      `json:"title"`
	Labels []string    `json:"labels"`
	Matrix [][]float64 `json:"matrix"`
}
