// Package main provides the singer CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/karaokebox/internal/api/apiclient"
	"github.com/osa030/karaokebox/internal/api/httpapi"
	"github.com/osa030/karaokebox/internal/app/notification"
)

var (
	app    = kingpin.New("karaokebox-singercli", "karaokebox singer client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("KARAOKEBOX_SERVER").String()
	roomID = app.Flag("room", "Room ID (or set KARAOKEBOX_ROOM env)").Short('r').Envar("KARAOKEBOX_ROOM").String()

	// join command
	joinCmd        = app.Command("join", "Join the room")
	joinName       = joinCmd.Arg("name", "Display name").Required().String()
	joinExternalID = joinCmd.Arg("external-id", "External user ID (optional)").String()

	// request command
	requestCmd      = app.Command("request", "Request a song")
	requestSinger   = requestCmd.Arg("singer-id", "Singer ID").Required().String()
	requestTitle    = requestCmd.Arg("title", "Song title").String()
	requestArtist   = requestCmd.Flag("artist", "Artist").String()
	requestTrackID  = requestCmd.Flag("track", "Catalog track ID or URL (fills in title and artist)").String()
	requestDuration = requestCmd.Flag("duration", "Song length").Duration()

	// search command
	searchCmd   = app.Command("search", "Search the song catalog")
	searchQuery = searchCmd.Arg("query", "Search text").Required().String()
	searchLimit = searchCmd.Flag("limit", "Maximum results").Default("10").Int()

	// queue command
	queueCmd = app.Command("queue", "Show the queue")

	// rules command
	rulesCmd = app.Command("flow-rules", "List flow rules").Alias("rules")

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Subscribe to room events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case joinCmd.FullCommand(), requestCmd.FullCommand(), queueCmd.FullCommand(), subscribeCmd.FullCommand():
		if *roomID == "" {
			fmt.Println("Error: room ID is required (use --room or KARAOKEBOX_ROOM env)")
			os.Exit(1)
		}
	}

	client := apiclient.New(*server)
	ctx := context.Background()

	switch command {
	case joinCmd.FullCommand():
		join(ctx, client, *joinName, *joinExternalID)
	case requestCmd.FullCommand():
		requestSong(ctx, client, httpapi.SongRequestBody{
			SingerID:    *requestSinger,
			Title:       *requestTitle,
			Artist:      *requestArtist,
			TrackID:     *requestTrackID,
			DurationSec: int(*requestDuration / time.Second),
		})
	case searchCmd.FullCommand():
		search(ctx, client, *searchQuery, *searchLimit)
	case queueCmd.FullCommand():
		showQueue(ctx, client)
	case rulesCmd.FullCommand():
		listFlowRules(ctx, client)
	case subscribeCmd.FullCommand():
		subscribe(ctx, client)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func join(ctx context.Context, client *apiclient.Client, displayName, externalID string) {
	s, err := client.Join(ctx, *roomID, displayName, externalID)
	exitOnError(err)

	fmt.Printf("Joined! Your singer ID: %s\n", s.ID)
	if s.IsKicked {
		fmt.Println("Note: you have been kicked and cannot request songs.")
	}
}

func requestSong(ctx context.Context, client *apiclient.Client, body httpapi.SongRequestBody) {
	resp, err := client.RequestSong(ctx, *roomID, body)
	exitOnError(err)

	switch {
	case resp.Pending:
		fmt.Printf("Pending: %s\n", resp.Message)
	case resp.Success:
		fmt.Printf("Success: %s\n", resp.Message)
	default:
		fmt.Printf("Rejected [%s]: %s\n", resp.Code, resp.Message)
	}
}

func search(ctx context.Context, client *apiclient.Client, query string, limit int) {
	songs, err := client.SearchSongs(ctx, query, limit)
	exitOnError(err)

	if len(songs) == 0 {
		fmt.Println("No songs found")
		return
	}
	for _, s := range songs {
		fmt.Printf("  %-22s %s - %s (%s)\n", s.TrackID, s.Artist, s.Title, formatDuration(s.DurationSec))
	}
}

func showQueue(ctx context.Context, client *apiclient.Client) {
	q, err := client.Queue(ctx, *roomID)
	exitOnError(err)

	if q.Current != nil {
		fmt.Printf("On stage: %s - %s\n", q.Current.Title, q.Current.Artist)
	} else {
		fmt.Println("On stage: nobody")
	}

	if len(q.Queue) == 0 {
		fmt.Println("Queue is empty")
		return
	}
	fmt.Printf("Up next (%d):\n", len(q.Queue))
	for i, r := range q.Queue {
		pending := ""
		if r.Status == "pending" {
			pending = " [pending]"
		}
		fmt.Printf("  %2d. %s - %s%s\n", i+1, r.Title, r.Artist, pending)
	}
}

func listFlowRules(ctx context.Context, client *apiclient.Client) {
	rules, err := client.FlowRules(ctx)
	exitOnError(err)

	for _, r := range rules {
		fmt.Printf("  %-15s %s\n", r.ID, r.Description)
	}
}

func subscribe(ctx context.Context, client *apiclient.Client) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Subscribed to room events. Press Ctrl+C to exit.")

	err := client.Events(ctx, *roomID, func(e *notification.Event) error {
		printEvent(e)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nUnsubscribed")
}

func printEvent(e *notification.Event) {
	fmt.Printf("\n[Sequence: %d] %s %s\n", e.SequenceNo, e.At.Local().Format(time.TimeOnly), e.Type)
	if e.Payload == nil {
		return
	}
	data, err := json.MarshalIndent(e.Payload, "  ", "  ")
	if err != nil {
		return
	}
	fmt.Printf("  %s\n", data)
}

func formatDuration(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
