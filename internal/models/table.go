package models

// NormalizedRow is the uniform tabular form of one SearchHit.
type NormalizedRow struct {
	Index         int    `json:"index"`
	Title         string `json:"title"`
	AuthorName    string `json:"author_name"`
	Person        string `json:"person"`
	CharactersNum int    `json:"characters_num"`
}

// ResultTable holds one row per hit, ordered by Index.
type ResultTable []NormalizedRow

// Titles returns the title column in row order.
func (t ResultTable) Titles() []string {
	titles := make([]string, len(t))
	for i, row := range t {
		titles[i] = row.Title
	}
	return titles
}

// PreviewRow is one line of the tabular preview shown for non-author search spaces.
type PreviewRow struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	Person     string `json:"person,omitempty"`
}
