package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"anitrack-bot/internal/config"
	"anitrack-bot/internal/dispatcher"
	"anitrack-bot/internal/pkg/logger"
	"anitrack-bot/internal/repository/memory"
	"anitrack-bot/internal/session"
	"anitrack-bot/internal/transport"
	"anitrack-bot/pkg/anilist"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

const consoleUser = "console"

// consoleTransport renders views straight to the terminal and remembers the
// most recent surface so `press` can target it.
type consoleTransport struct {
	mu          sync.Mutex
	lastSurface string
}

func (t *consoleTransport) Render(surfaceId string, view transport.View) error {
	t.mu.Lock()
	t.lastSurface = surfaceId
	t.mu.Unlock()

	fmt.Println()
	title := color.New(color.FgCyan, color.Bold)
	if view.IsError {
		title = color.New(color.FgRed, color.Bold)
	}
	title.Println(view.Title)
	if view.Description != "" {
		fmt.Println(view.Description)
	}
	label := color.New(color.FgYellow)
	for _, f := range view.Fields {
		label.Printf("%s: ", f.Name)
		fmt.Println(f.Value)
	}
	if view.Footer != "" {
		color.New(color.Faint).Println(view.Footer)
	}
	return nil
}

func (t *consoleTransport) AddAffordances(surfaceId string, ids []string) error {
	color.New(color.FgGreen).Printf("[controls: %s]\n", strings.Join(ids, " "))
	return nil
}

func (t *consoleTransport) RemoveAffordances(surfaceId string) error {
	color.New(color.Faint).Println("(controls removed)")
	return nil
}

func (t *consoleTransport) SendEphemeral(userId string, view transport.View) error {
	notice := color.New(color.FgMagenta)
	notice.Printf("(only you) %s", view.Title)
	if view.Description != "" {
		notice.Printf(" — %s", view.Description)
	}
	fmt.Println()
	return nil
}

func (t *consoleTransport) surface() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastSurface == "" {
		return "surface:" + uuid.NewString()
	}
	return t.lastSurface
}

func main() {
	cfg := config.Load()
	log := logger.NewNopLogger()

	term := &consoleTransport{}
	env := session.Env{
		Store: memory.NewWatchlistRepository(),
		Metadata: anilist.NewClient(
			cfg.AniList.APIURL,
			cfg.AniList.MinInterval,
			cfg.AniList.CacheTTL,
			cfg.AniList.HTTPTimeout,
			log,
		),
		Transport: term,
		Log:       log,
		Now:       time.Now,
		Config:    cfg.Session,
	}
	registry := session.NewRegistry(env)
	disp := dispatcher.NewDispatcher(nil, "", registry, env)

	color.New(color.FgCyan, color.Bold).Println("AniTrack console — in-memory watchlist")
	fmt.Println(`Type a command ("help" to list them), press <control> [value] to use controls, or exit.`)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgGreen).Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		name, args := dispatcher.ParseCommandLine(line)
		ev := transport.Event{
			Id:     uuid.NewString(),
			UserId: consoleUser,
		}
		if name == "press" {
			if len(args) == 0 {
				color.Red("Usage: press <control> [value]")
				continue
			}
			ev.SurfaceId = term.surface()
			ev.Component = &transport.Component{
				Action: args[0],
				Value:  strings.Join(args[1:], " "),
			}
		} else {
			ev.SurfaceId = "surface:" + uuid.NewString()
			ev.Command = &transport.Command{Name: name, Args: args}
		}
		disp.HandleEvent(ctx, ev)
	}
}
