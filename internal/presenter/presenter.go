package presenter

import (
	"fmt"
	"sort"
	"strings"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/transport"
)

// Pure view builders. No state, no IO; every function maps (metadata record,
// watchlist entry, session state) to a renderable View.

var statusEmoji = map[entity.WatchStatus]string{
	entity.StatusWatching:  "👀",
	entity.StatusCompleted: "✅",
	entity.StatusToWatch:   "📝",
	entity.StatusOnHold:    "⏸️",
	entity.StatusDropped:   "⛔",
}

func StatusEmoji(s entity.WatchStatus) string {
	if e, ok := statusEmoji[s]; ok {
		return e
	}
	return "❓"
}

// Details renders a metadata record, folding in the caller's watchlist entry
// when present. Either argument may be nil, not both.
func Details(md *entity.MetadataRecord, entry *entity.WatchlistEntry) transport.View {
	var view transport.View
	if md != nil {
		view = transport.View{
			Title:       md.Title,
			Description: md.Synopsis,
			Thumbnail:   md.CoverImageUrl,
			Image:       md.BannerImage,
		}
		view.Fields = append(view.Fields,
			transport.Field{Name: "Episodes", Value: episodeCount(md.EpisodeCount), Inline: true},
			transport.Field{Name: "Score", Value: score(md.AverageScore), Inline: true},
			transport.Field{Name: "Genres", Value: joinOrUnknown(md.Genres)},
		)
	} else if entry != nil {
		view.Title = entry.Title
	}

	if entry != nil {
		view.Fields = append(view.Fields, transport.Field{
			Name: "Watch Status",
			Value: fmt.Sprintf("Status: %s\nProgress: %s\nFavorite: %s",
				entry.Status, progress(entry), yesNo(entry.IsFavorite)),
		})
		if entry.StartDate != nil {
			view.Fields = append(view.Fields, transport.Field{
				Name: "Started", Value: entry.StartDate.Format("2006-01-02"), Inline: true,
			})
		}
		if entry.CompletionDate != nil {
			view.Fields = append(view.Fields, transport.Field{
				Name: "Completed", Value: entry.CompletionDate.Format("2006-01-02"), Inline: true,
			})
		}
		if entry.Rating != nil {
			view.Fields = append(view.Fields, transport.Field{
				Name: "Your Rating", Value: fmt.Sprintf("%d/10", *entry.Rating), Inline: true,
			})
		}
	}

	if md != nil {
		if len(md.Studios) > 0 {
			view.Fields = append(view.Fields, transport.Field{Name: "Studios", Value: strings.Join(md.Studios, ", ")})
		}
		if md.Season != "" && md.SeasonYear != entity.YearUnknown {
			view.Fields = append(view.Fields, transport.Field{
				Name: "Season", Value: fmt.Sprintf("%s %d", md.Season, md.SeasonYear), Inline: true,
			})
		}
		if md.SiteUrl != "" {
			view.Fields = append(view.Fields, transport.Field{Name: "AniList Link", Value: md.SiteUrl})
		}
	}
	return view
}

// Panel renders the live control-panel surface for one entry. The metadata
// record may be nil when the external service is unavailable; the panel still
// renders from the stored entry alone.
func Panel(md *entity.MetadataRecord, entry *entity.WatchlistEntry) transport.View {
	view := transport.View{
		Title:  fmt.Sprintf("%s %s", StatusEmoji(entry.Status), entry.Title),
		Footer: "Use the controls below to manage this entry",
	}
	if md != nil {
		view.Thumbnail = md.CoverImageUrl
	}

	view.Fields = append(view.Fields,
		transport.Field{Name: "Status", Value: string(entry.Status), Inline: true},
		transport.Field{Name: "Favorite", Value: yesNo(entry.IsFavorite), Inline: true},
		transport.Field{Name: "Progress", Value: fmt.Sprintf("%s %s", progressBar(entry), progress(entry))},
	)
	if entry.StartDate != nil {
		view.Fields = append(view.Fields, transport.Field{
			Name: "Started", Value: entry.StartDate.Format("2006-01-02"), Inline: true,
		})
	}
	if entry.CompletionDate != nil {
		view.Fields = append(view.Fields, transport.Field{
			Name: "Completed", Value: entry.CompletionDate.Format("2006-01-02"), Inline: true,
		})
	}
	return view
}

// ListPage renders one page of a user's watchlist.
func ListPage(header string, entries []*entity.WatchlistEntry, page, pageSize int) transport.View {
	totalPages := PageCount(len(entries), pageSize)
	view := transport.View{
		Title:  header,
		Footer: fmt.Sprintf("Page %d/%d", page+1, totalPages),
	}

	start := page * pageSize
	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}
	for _, e := range entries[start:end] {
		name := fmt.Sprintf("%s %s", StatusEmoji(e.Status), e.Title)
		if e.IsFavorite {
			name = "⭐ " + name
		}
		view.Fields = append(view.Fields, transport.Field{
			Name:  name,
			Value: fmt.Sprintf("%s · %s", e.Status, progress(e)),
		})
	}
	return view
}

// Wizard renders the add-wizard surface with the currently chosen fields.
func Wizard(md *entity.MetadataRecord, status *entity.WatchStatus, rating *int, startDate string, favorite bool) transport.View {
	view := Details(md, nil)
	view.Footer = "Select a status to enable Confirm"

	chosen := "not set"
	if status != nil {
		chosen = fmt.Sprintf("%s %s", StatusEmoji(*status), *status)
		view.Footer = "Press Confirm to add this entry"
	}
	ratingText := "not set"
	if rating != nil {
		ratingText = fmt.Sprintf("%d/10", *rating)
	}
	view.Fields = append(view.Fields, transport.Field{
		Name: "Your Selection",
		Value: fmt.Sprintf("Status: %s\nRating: %s\nStart date: %s\nFavorite: %s",
			chosen, ratingText, startDate, yesNo(favorite)),
	})
	return view
}

// Confirmation renders a confirm/cancel prompt.
func Confirmation(title, description string) transport.View {
	return transport.View{
		Title:       title,
		Description: description,
		Footer:      "This prompt expires shortly",
	}
}

func Success(title, description string) transport.View {
	return transport.View{Title: "✅ " + title, Description: description}
}

func Error(title, description string) transport.View {
	return transport.View{Title: "❌ " + title, Description: description, IsError: true}
}

// DomainError maps an expected error to a user-facing notice about the given
// title.
func DomainError(err error, title string) transport.View {
	switch {
	case err == apperror.ErrNotFound:
		return Error("Not Found", fmt.Sprintf("**%s** was not found in your watchlist!", title))
	case err == apperror.ErrAlreadyExists:
		return Error("Already Exists", fmt.Sprintf("**%s** is already in your watchlist!", title))
	case err == apperror.ErrProtected:
		return Error("Cannot Delete", fmt.Sprintf("**%s** is marked as favorite and cannot be deleted!", title))
	case err == apperror.ErrInvalidRange:
		return Error("Invalid Episode Number", "The episode count is out of range for this anime.")
	case err == apperror.ErrInvalidStatus:
		return Error("Invalid Status", "Status must be one of: Watching, Completed, To Watch, On Hold, Dropped.")
	case err == apperror.ErrConflict:
		return Error("Busy", "Finish or cancel the current interaction on this surface first.")
	case apperror.IsTransient(err):
		return Error("Service Unavailable", "The anime service is unavailable right now. Please try again later.")
	default:
		return Error("Error", "An unexpected error occurred. Please try again later.")
	}
}

// SortEntries orders a watchlist for display: favorites first, then by status
// priority, then case-insensitively by title.
func SortEntries(entries []*entity.WatchlistEntry) {
	priority := map[entity.WatchStatus]int{
		entity.StatusWatching: 0,
		entity.StatusToWatch:  1,
		entity.StatusCompleted: 2,
	}
	rank := func(s entity.WatchStatus) int {
		if p, ok := priority[s]; ok {
			return p
		}
		return 3
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		if rank(a.Status) != rank(b.Status) {
			return rank(a.Status) < rank(b.Status)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}

// PageCount returns the number of pages needed for n items (at least 1).
func PageCount(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = 1
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func progress(e *entity.WatchlistEntry) string {
	if e.TotalEpisodes == 0 {
		return fmt.Sprintf("%d/? episodes", e.EpisodesWatched)
	}
	return fmt.Sprintf("%d/%d episodes", e.EpisodesWatched, e.TotalEpisodes)
}

func progressBar(e *entity.WatchlistEntry) string {
	const width = 10
	if e.TotalEpisodes == 0 {
		return strings.Repeat("░", width)
	}
	filled := e.EpisodesWatched * width / e.TotalEpisodes
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func episodeCount(n int) string {
	if n == entity.EpisodesUnknown {
		return "Unknown"
	}
	return fmt.Sprintf("%d", n)
}

func score(s int) string {
	if s == entity.ScoreUnknown {
		return "N/A"
	}
	return fmt.Sprintf("%d/100", s)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func joinOrUnknown(items []string) string {
	if len(items) == 0 {
		return "Unknown"
	}
	return strings.Join(items, ", ")
}
