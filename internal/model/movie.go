package model

// Movie represents a row in the `movies` table.  Rating is expected to be
// between 0.0 and 10.0 but the range is not enforced.  Poster holds the
// URL of the poster image; an empty string means the column is NULL.
type Movie struct {
	ID       int64   `json:"id"`       // movies.id
	Name     string  `json:"name"`     // movies.name
	Director string  `json:"director"` // movies.director
	Year     int     `json:"year"`     // movies.year
	Rating   float64 `json:"rating"`   // movies.rating
	Poster   string  `json:"poster"`   // movies.poster (nullable)
}

// MovieLookup is the normalized result of an external metadata lookup.
// Year and Poster are passed through exactly as the upstream service
// returned them ("N/A" when absent), so they stay strings.
type MovieLookup struct {
	Title    string  `json:"title"`
	Director string  `json:"director"`
	Year     string  `json:"year"`
	Rating   float64 `json:"rating"`
	Poster   string  `json:"poster"`
}
