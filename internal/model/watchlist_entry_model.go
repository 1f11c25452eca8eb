package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WatchlistEntry struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_watchlist_user_title"`
	Title           string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_watchlist_user_title"`
	Status          string    `gorm:"type:varchar(16);not null"`
	EpisodesWatched int       `gorm:"not null;default:0"`
	TotalEpisodes   int       `gorm:"not null;default:0"`
	IsFavorite      bool      `gorm:"not null;default:false;index"`
	StartDate       *datatypes.Date
	CompletionDate  *datatypes.Date
	Rating          *int   `gorm:"type:smallint"`
	SourceLink      string `gorm:"type:text"`
	Notes           string `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}
