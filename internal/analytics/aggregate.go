package analytics

import (
	"slices"

	"openlibrary-explorer/internal/models"
)

// TopTitlesPerAuthor is how many titles an AuthorSummary highlights.
const TopTitlesPerAuthor = 3

type authorCount struct {
	name  string
	count int
}

// authorCounts counts rows per author display name, in order of first appearance.
func authorCounts(table models.ResultTable) []authorCount {
	pos := make(map[string]int)
	var counts []authorCount
	for _, row := range table {
		i, ok := pos[row.AuthorName]
		if !ok {
			i = len(counts)
			pos[row.AuthorName] = i
			counts = append(counts, authorCount{name: row.AuthorName})
		}
		counts[i].count++
	}
	return counts
}

// DistinctAuthors returns the number of distinct author display names in the table.
func DistinctAuthors(table models.ResultTable) int {
	return len(authorCounts(table))
}

// TopAuthors groups the rows of the limit most frequent author display names. Groups are
// ordered by books found, descending; equal counts keep first-appearance order.
// A limit below 1 falls back to models.DefaultTopAuthors.
func TopAuthors(table models.ResultTable, limit int) []models.AuthorSummary {
	if limit < 1 {
		limit = models.DefaultTopAuthors
	}

	counts := authorCounts(table)
	slices.SortStableFunc(counts, func(a, b authorCount) int {
		return b.count - a.count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}

	groups := make([]models.AuthorSummary, len(counts))
	selected := make(map[string]int, len(counts))
	for i, c := range counts {
		selected[c.name] = i
		groups[i] = models.AuthorSummary{AuthorName: c.name, Titles: []string{}}
	}
	for _, row := range table {
		i, ok := selected[row.AuthorName]
		if !ok {
			continue
		}
		groups[i].BooksFound++
		groups[i].Titles = append(groups[i].Titles, row.Title)
	}
	for i := range groups {
		top := min(TopTitlesPerAuthor, len(groups[i].Titles))
		groups[i].TopTitles = slices.Clone(groups[i].Titles[:top])
	}
	return groups
}

// CharacterDistribution projects each row to its scatter point.
func CharacterDistribution(table models.ResultTable) []models.CharacterPoint {
	points := make([]models.CharacterPoint, 0, len(table))
	for _, row := range table {
		points = append(points, models.CharacterPoint{
			Index:         row.Index,
			CharactersNum: row.CharactersNum,
			Title:         row.Title,
			AuthorName:    row.AuthorName,
			Person:        row.Person,
		})
	}
	return points
}

// Preview returns the first n rows as preview lines. Person is filled only when withPerson is set.
func Preview(table models.ResultTable, n int, withPerson bool) []models.PreviewRow {
	n = max(0, min(n, len(table)))
	rows := make([]models.PreviewRow, 0, n)
	for _, row := range table[:n] {
		p := models.PreviewRow{Title: row.Title, AuthorName: row.AuthorName}
		if withPerson {
			p.Person = row.Person
		}
		rows = append(rows, p)
	}
	return rows
}
