// Package analytics turns Open Library search hits into the tables and summaries shown on the
// dashboard: normalized rows, title word frequencies and author groupings.
package analytics

import (
	"strings"

	"openlibrary-explorer/internal/models"
)

// DisplaySeparator joins list fields into a display name.
const DisplaySeparator = ", "

// Normalize converts raw hits into one row per hit, in input order.
func Normalize(hits []models.SearchHit) models.ResultTable {
	table := make(models.ResultTable, 0, len(hits))
	for i, hit := range hits {
		table = append(table, models.NormalizedRow{
			Index:         i,
			Title:         hit.Title.String(),
			AuthorName:    strings.Join(hit.AuthorName, DisplaySeparator),
			Person:        strings.Join(hit.Person, DisplaySeparator),
			CharactersNum: len(hit.Person),
		})
	}
	return table
}
