package anilist

// Wire shapes for the AniList GraphQL API. Nullable scalars stay pointers so
// "absent" and "zero" remain distinguishable until normalization.

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data   *responseData  `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type responseData struct {
	Media *media `json:"Media"`
}

type media struct {
	Id           int         `json:"id"`
	Title        mediaTitle  `json:"title"`
	Description  string      `json:"description"`
	Episodes     *int        `json:"episodes"`
	Status       string      `json:"status"`
	Genres       []string    `json:"genres"`
	AverageScore *int        `json:"averageScore"`
	Popularity   int         `json:"popularity"`
	SiteUrl      string      `json:"siteUrl"`
	CoverImage   coverImage  `json:"coverImage"`
	BannerImage  string      `json:"bannerImage"`
	Studios      studioNodes `json:"studios"`
	Season       string      `json:"season"`
	SeasonYear   *int        `json:"seasonYear"`
}

type mediaTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type coverImage struct {
	Large string `json:"large"`
}

type studioNodes struct {
	Nodes []studioNode `json:"nodes"`
}

type studioNode struct {
	Name string `json:"name"`
}
