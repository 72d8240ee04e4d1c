package explorer

import (
	"fmt"

	"openlibrary-explorer/internal/analytics"
	"openlibrary-explorer/internal/models"
)

// minDistinctAuthors is the number of distinct authors a table must exceed before the top-author
// summary is shown.
const minDistinctAuthors = 2

// buildMatches returns the facet-specific section of the report.
func buildMatches(query models.Query, table models.ResultTable) *models.Matches {
	text, space := query.Phrase(), query.Facet
	relevant := fmt.Sprintf("Most relevant matches for %s in %s:", text, space)

	switch space {
	case models.FacetAuthors:
		m := &models.Matches{Heading: fmt.Sprintf("Best matches for %s in %s:", text, space)}
		m.Authors = topAuthorsIfVaried(table)
		return m
	case models.FacetPersons:
		return &models.Matches{
			Heading:    relevant,
			Preview:    analytics.Preview(table, models.PreviewRows, true),
			ShowPerson: true,
		}
	case models.FacetSubjects:
		return &models.Matches{
			Heading:        relevant,
			Preview:        analytics.Preview(table, models.PreviewRows, false),
			AuthorsHeading: fmt.Sprintf("Most popular authors for %s in %s:", text, space),
			Authors:        topAuthorsIfVaried(table),
		}
	default:
		return &models.Matches{
			Heading: relevant,
			Preview: analytics.Preview(table, models.PreviewRows, false),
		}
	}
}

func topAuthorsIfVaried(table models.ResultTable) []models.AuthorSummary {
	if analytics.DistinctAuthors(table) <= minDistinctAuthors {
		return nil
	}
	return analytics.TopAuthors(table, models.DefaultTopAuthors)
}
