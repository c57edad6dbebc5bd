package models

// ContentItem is a catalog entry. Tags hold genres and mood tags.
type ContentItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Tags          []string `json:"tags"`
	QualityRating float64  `json:"quality_rating"`
	Year          int      `json:"year"`
	Director      string   `json:"director,omitempty"`
	Plot          string   `json:"plot,omitempty"`
}

// PreferenceProfile maps a tag to a weight. Missing tags weigh 1.0.
type PreferenceProfile map[string]float64

// Rating is one entry of a user's feedback history, 1 to 5 stars.
type Rating struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
	Stars  int    `json:"stars"`
}
