package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"anitrack-bot/internal/apperror"
	"anitrack-bot/internal/entity"
	"anitrack-bot/internal/repository/implementation"
	"anitrack-bot/pkg/database"

	"github.com/joho/godotenv"
)

// importEntry is one line of the import file.
type importEntry struct {
	Title         string `json:"title"`
	TotalEpisodes int    `json:"total_episodes"`
	SourceLink    string `json:"source_link"`
}

// The file groups entries by watch status:
//
//	{"Watching": [{"title": "One Piece", "total_episodes": 0, ...}], "To Watch": [...]}
type importFile map[string][]importEntry

func main() {
	userId := flag.String("user", "", "user id to import entries for")
	path := flag.String("file", "watchlist.json", "path to the import file")
	flag.Parse()

	if *userId == "" {
		log.Fatal("Error: -user is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	repo := implementation.NewWatchlistRepository(db)

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Error: Failed to read %s: %v", *path, err)
	}
	var file importFile
	if err := json.Unmarshal(raw, &file); err != nil {
		log.Fatalf("Error: Failed to parse %s: %v", *path, err)
	}

	ctx := context.Background()
	success, skipped, failed := 0, 0, 0

	for statusName, entries := range file {
		status := entity.WatchStatus(statusName)
		if !status.Valid() {
			log.Printf("❌ Skipping group %q: not a valid status", statusName)
			failed += len(entries)
			continue
		}
		for _, in := range entries {
			entry := &entity.WatchlistEntry{
				UserId:        *userId,
				Title:         in.Title,
				Status:        status,
				TotalEpisodes: in.TotalEpisodes,
				SourceLink:    in.SourceLink,
			}
			if _, err := repo.Add(ctx, entry); err != nil {
				if err == apperror.ErrAlreadyExists {
					log.Printf("Skipped (exists): %s", in.Title)
					skipped++
					continue
				}
				log.Printf("❌ Failed to import %s: %v", in.Title, err)
				failed++
				continue
			}
			log.Printf("✅ Imported: %s [%s]", in.Title, status)
			success++
		}
	}

	log.Printf("Import complete: %d imported, %d skipped, %d failed", success, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
