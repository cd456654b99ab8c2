package domain

type ArticleSource struct {
	Name *string `json:"name"`
}

// Article is a news item returned by the news search API.
type Article struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	URL         string         `json:"url"`
	URLToImage  *string        `json:"urlToImage"`
	PublishedAt string         `json:"publishedAt"`
	Source      *ArticleSource `json:"source"`
}

// SourceName falls back to "Unknown" when the API omits the source.
func (a Article) SourceName() string {
	if a.Source == nil || a.Source.Name == nil || *a.Source.Name == "" {
		return "Unknown"
	}
	return *a.Source.Name
}
