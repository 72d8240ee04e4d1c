package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"openlibrary-explorer/internal/models"
)

var (
	searchSpace   string
	searchMatches int
	searchTop     int
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search Open Library and summarize the matches",
	Long: `Runs an exact-phrase search against Open Library and prints the most common
title words, the character distribution and the best matches for the search space.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchSpace, "space", "s", string(models.FacetAnywhere), "search in: Anywhere, Titles, Authors, Persons, Subjects or Places")
	searchCmd.Flags().IntVarP(&searchMatches, "matches", "n", models.MinMatches, "max number of matches to analyze (at least 100)")
	searchCmd.Flags().IntVarP(&searchTop, "top", "t", models.DefaultTopWords, "number of most common words to show")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw Open Library response instead of the summary")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	facet, err := models.ParseFacet(searchSpace)
	if err != nil {
		return err
	}
	query := models.Query{
		Text:     strings.Join(args, " "),
		Facet:    facet,
		Limit:    searchMatches,
		TopWords: searchTop,
	}
	if err := query.Validate(); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Service.Run(context.Background(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if report.Warning != "" {
			return fmt.Errorf("%s", report.Warning)
		}
		_, err := out.Write(append(report.RawJSON, '\n'))
		return err
	}
	renderReport(out, report)
	return nil
}

// renderReport prints the terminal version of the dashboard.
func renderReport(w io.Writer, report *models.Report) {
	q := report.Query
	fmt.Fprintln(w, titleStyle.Render("OpenLibrary search"))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s in %s, %d of %d matches analyzed", q.Phrase(), q.Facet, report.Rows, report.NumFound)))

	if report.Warning != "" {
		fmt.Fprintln(w, warnStyle.Render(report.Warning))
		return
	}

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Top %d words in book titles for %s: %s", q.TopWords, q.Facet.Param(), q.Phrase())))
	renderWords(w, report.TopWords)

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("The distribution of characters in the books, %s: %s", q.Facet.Param(), q.Phrase())))
	renderCharacters(w, report.Characters)

	if m := report.Matches; m != nil {
		fmt.Fprintln(w, headingStyle.Render(m.Heading))
		for i, row := range m.Preview {
			line := fmt.Sprintf("%2d. %s by %s", i+1, row.Title, row.AuthorName)
			if m.ShowPerson && row.Person != "" {
				line += mutedStyle.Render(" [" + row.Person + "]")
			}
			fmt.Fprintln(w, line)
		}
		if m.AuthorsHeading != "" {
			fmt.Fprintln(w, headingStyle.Render(m.AuthorsHeading))
		}
		for i, a := range m.Authors {
			fmt.Fprintf(w, "%d. %s\n", i+1, a.AuthorName)
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("   Books found: %d", a.BooksFound)))
			fmt.Fprintf(w, "   Top works: %s\n", strings.Join(a.TopTitles, "; "))
		}
	}
}

func renderWords(w io.Writer, words []models.WordFrequency) {
	if len(words) == 0 {
		return
	}
	width := 0
	for _, wf := range words {
		width = max(width, len(wf.Word))
	}
	maxCount := words[0].Count
	for _, wf := range words {
		bar := strings.Repeat("█", max(1, wf.Count*30/maxCount))
		fmt.Fprintf(w, "%-*s %s %d\n", width, wf.Word, barStyle.Render(bar), wf.Count)
	}
}

// renderCharacters prints how many hits list each number of characters.
func renderCharacters(w io.Writer, points []models.CharacterPoint) {
	hist := make(map[int]int)
	for _, p := range points {
		hist[p.CharactersNum]++
	}
	sizes := make([]int, 0, len(hist))
	for n := range hist {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	for _, n := range sizes {
		fmt.Fprintf(w, "%3d characters: %d books\n", n, hist[n])
	}
}
