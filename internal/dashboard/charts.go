package dashboard

import (
	"fmt"

	"openlibrary-explorer/internal/models"
)

const (
	vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"
	chartWidth     = 600
	chartHeight    = 400
)

// Spec is a Vega-Lite chart specification, rendered in the browser by vega-embed.
type Spec map[string]any

// WordsChart is a horizontal bar chart of the top title words, most frequent on top.
func WordsChart(report *models.Report) Spec {
	q := report.Query
	return Spec{
		"$schema": vegaLiteSchema,
		"title":   fmt.Sprintf("Top %d words in book titles for %s: %s", q.TopWords, q.Facet.Param(), q.Phrase()),
		"width":   chartWidth,
		"data":    map[string]any{"values": nonNil(report.TopWords)},
		"mark":    "bar",
		"encoding": map[string]any{
			"y": map[string]any{"field": "word", "type": "nominal", "sort": "-x"},
			"x": map[string]any{"field": "count", "type": "quantitative"},
		},
	}
}

// CharactersChart is a scatter of how many characters (persons) each hit lists, by row index.
func CharactersChart(report *models.Report) Spec {
	q := report.Query
	return Spec{
		"$schema": vegaLiteSchema,
		"title":   fmt.Sprintf("The distribution of characters in the books, %s: %s", q.Facet.Param(), q.Phrase()),
		"width":   chartWidth,
		"height":  chartHeight,
		"data":    map[string]any{"values": nonNil(report.Characters)},
		"mark":    map[string]any{"type": "circle", "opacity": 0.5},
		"encoding": map[string]any{
			"x": map[string]any{"field": "characters_num", "type": "quantitative", "title": "characters num"},
			"y": map[string]any{"field": "index", "type": "quantitative"},
			"tooltip": []map[string]any{
				{"field": "title", "type": "nominal"},
				{"field": "author_name", "type": "nominal"},
				{"field": "characters_num", "type": "quantitative", "title": "characters num"},
				{"field": "person", "type": "nominal"},
			},
		},
	}
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
