package models

// WordFrequency is a word and how many times it occurs across all titles.
type WordFrequency struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// AuthorSummary groups the titles found for one author display name.
type AuthorSummary struct {
	AuthorName string   `json:"author_name"`
	BooksFound int      `json:"books_found"`
	Titles     []string `json:"titles"`
	TopTitles  []string `json:"top_titles"`
}

// CharacterPoint is one scatter point of the character distribution, with its tooltip fields.
type CharacterPoint struct {
	Index         int    `json:"index"`
	CharactersNum int    `json:"characters_num"`
	Title         string `json:"title"`
	AuthorName    string `json:"author_name"`
	Person        string `json:"person"`
}
