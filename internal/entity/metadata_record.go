package entity

// Unknown markers for optional metadata fields, so presenters need no
// defensive nil checks.
const (
	EpisodesUnknown = 0
	ScoreUnknown    = -1
	YearUnknown     = 0
)

// MetadataRecord is the normalized, ephemeral view of one external anime
// lookup. It is never persisted; sessions re-fetch it as needed.
type MetadataRecord struct {
	Title         string
	EnglishTitle  string
	NativeTitle   string
	Synopsis      string
	EpisodeCount  int // EpisodesUnknown if the service reports none (ongoing)
	Genres        []string
	AverageScore  int // 0-100, ScoreUnknown if absent
	Popularity    int
	SiteUrl       string
	CoverImageUrl string
	BannerImage   string
	Studios       []string
	Season        string
	SeasonYear    int // YearUnknown if absent
}
