package anilist

import (
	"strings"

	"anitrack-bot/internal/entity"
)

const synopsisLimit = 600

// toRecord flattens an API media object into the transport-neutral record the
// core consumes, substituting the unknown markers for null scalars.
func toRecord(m *media) *entity.MetadataRecord {
	rec := &entity.MetadataRecord{
		Title:         m.Title.Romaji,
		EnglishTitle:  m.Title.English,
		NativeTitle:   m.Title.Native,
		Synopsis:      cleanDescription(m.Description),
		EpisodeCount:  entity.EpisodesUnknown,
		Genres:        m.Genres,
		AverageScore:  entity.ScoreUnknown,
		Popularity:    m.Popularity,
		SiteUrl:       m.SiteUrl,
		CoverImageUrl: m.CoverImage.Large,
		BannerImage:   m.BannerImage,
		Season:        m.Season,
		SeasonYear:    entity.YearUnknown,
	}
	if rec.Title == "" {
		rec.Title = m.Title.English
	}
	if m.Episodes != nil {
		rec.EpisodeCount = *m.Episodes
	}
	if m.AverageScore != nil {
		rec.AverageScore = *m.AverageScore
	}
	if m.SeasonYear != nil {
		rec.SeasonYear = *m.SeasonYear
	}
	for _, s := range m.Studios.Nodes {
		rec.Studios = append(rec.Studios, s.Name)
	}
	return rec
}

var descriptionTags = strings.NewReplacer(
	"<br>", "\n",
	"<br/>", "\n",
	"<br />", "\n",
	"<i>", "",
	"</i>", "",
	"<b>", "",
	"</b>", "",
)

// cleanDescription strips the light HTML markup AniList embeds in synopses
// and truncates overlong ones at a rune boundary.
func cleanDescription(s string) string {
	s = strings.TrimSpace(descriptionTags.Replace(s))
	runes := []rune(s)
	if len(runes) > synopsisLimit {
		return string(runes[:synopsisLimit-3]) + "..."
	}
	return s
}
