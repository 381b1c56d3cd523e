// Package main provides the host CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/karaokebox/internal/api/apiclient"
	"github.com/osa030/karaokebox/internal/api/httpapi"
)

var (
	app    = kingpin.New("karaokebox-hostcli", "karaokebox host client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("KARAOKEBOX_SERVER").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()
	roomID = app.Flag("room", "Room ID (or set KARAOKEBOX_ROOM env)").Short('r').Envar("KARAOKEBOX_ROOM").String()

	// room commands
	createCmd      = app.Command("create", "Open a room")
	createTitle    = createCmd.Arg("title", "Room title").String()
	createFlowRule = createCmd.Flag("flow-rule", "Flow rule ID").String()
	listCmd        = app.Command("list-rooms", "List rooms").Alias("list")
	statusCmd      = app.Command("status", "Show room status")
	recommendCmd   = app.Command("recommend", "Show the recommended next action")
	closeCmd       = app.Command("close", "Stop taking requests")
	reopenCmd      = app.Command("reopen", "Take requests again")

	// stage commands
	nextCmd          = app.Command("next", "Start the next song")
	completeCmd      = app.Command("complete", "Finish the song on stage")
	completeDuration = completeCmd.Flag("duration", "Song length to credit (default: time since start)").Duration()

	// moment commands
	momentCmd      = app.Command("moment", "Start a group moment")
	momentMode     = momentCmd.Arg("mode", "Mode (hype, ready_check, bingo, ...)").Required().String()
	momentDuration = momentCmd.Flag("duration", "Moment length").Default("30s").Duration()
	endMomentCmd   = app.Command("end-moment", "End the group moment")

	// settings commands
	flowRuleCmd    = app.Command("flow-rule", "Apply a flow rule")
	flowRuleID     = flowRuleCmd.Arg("rule-id", "Flow rule ID").Required().String()
	presetCmd      = app.Command("preset", "Apply a preset")
	presetName     = presetCmd.Arg("archetype", "Preset archetype").Required().String()
	settingsCmd    = app.Command("queue-settings", "Update queue settings")
	settingsValues = settingsCmd.Arg("key=value", "Settings to change (limit_mode=per_night limit_count=3)").Required().StringMap()
	policyCmd      = app.Command("policy", "Update the party policy")
	policyValues   = policyCmd.Arg("key=value", "Policy fields to change (min_singing_share_pct=80)").Required().StringMap()
	moderationCmd  = app.Command("moderation", "Set the number of items awaiting review")
	moderationN    = moderationCmd.Arg("count", "Items awaiting review").Required().Int()

	// singer commands
	kickCmd    = app.Command("kick", "Kick a singer")
	kickSinger = kickCmd.Arg("singer-id", "Singer ID").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: admin token is required (use --token or ADMIN_TOKEN env)")
		os.Exit(1)
	}
	if command != createCmd.FullCommand() && command != listCmd.FullCommand() && *roomID == "" {
		fmt.Println("Error: room ID is required (use --room or KARAOKEBOX_ROOM env)")
		os.Exit(1)
	}

	client := apiclient.New(*server, apiclient.WithToken(*token))
	ctx := context.Background()

	switch command {
	case createCmd.FullCommand():
		rm, err := client.CreateRoom(ctx, *createTitle, *createFlowRule)
		exitOnError(err)
		fmt.Printf("Room opened: %s (%s)\n", rm.ID, rm.Title)
		printRoom(rm)
	case listCmd.FullCommand():
		listRooms(ctx, client)
	case statusCmd.FullCommand():
		status(ctx, client)
	case recommendCmd.FullCommand():
		a, err := client.Recommend(ctx, *roomID)
		exitOnError(err)
		fmt.Printf("[%s] %s: %s\n", a.Status, a.Label, a.Reason)
	case closeCmd.FullCommand():
		printRoomResult(client.Close(ctx, *roomID))
	case reopenCmd.FullCommand():
		printRoomResult(client.Reopen(ctx, *roomID))
	case nextCmd.FullCommand():
		r, err := client.StartNext(ctx, *roomID)
		exitOnError(err)
		fmt.Printf("On stage: %s - %s\n", r.Title, r.Artist)
	case completeCmd.FullCommand():
		p, err := client.CompletePerformance(ctx, *roomID, int(*completeDuration/time.Second))
		exitOnError(err)
		fmt.Printf("Finished: %s (credited %ds)\n", p.Request.Title, p.CreditedSec)
	case momentCmd.FullCommand():
		d, err := client.TriggerMoment(ctx, *roomID, *momentMode, int(*momentDuration/time.Second))
		exitOnError(err)
		if d.Allowed {
			fmt.Printf("Allowed: %s for %ds (singing share %d%%)\n", d.Mode, d.BreakDurationSec, d.SingingSharePct)
		} else {
			fmt.Printf("Denied [%s]: %s (singing share %d%%, max %ds)\n", d.Reason, d.Mode, d.SingingSharePct, d.BreakDurationSec)
		}
	case endMomentCmd.FullCommand():
		exitOnError(client.EndMoment(ctx, *roomID))
		fmt.Println("Back to karaoke")
	case flowRuleCmd.FullCommand():
		printRoomResult(client.ApplyFlowRule(ctx, *roomID, *flowRuleID))
	case presetCmd.FullCommand():
		printRoomResult(client.ApplyPreset(ctx, *roomID, *presetName))
	case settingsCmd.FullCommand():
		printRoomResult(client.UpdateQueueSettings(ctx, *roomID, toRaw(*settingsValues)))
	case policyCmd.FullCommand():
		printRoomResult(client.UpdatePolicy(ctx, *roomID, toRaw(*policyValues)))
	case moderationCmd.FullCommand():
		printRoomResult(client.SetModeration(ctx, *roomID, *moderationN))
	case kickCmd.FullCommand():
		exitOnError(client.Kick(ctx, *roomID, *kickSinger))
		fmt.Println("Singer kicked")
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// toRaw passes values as strings; the server decodes them weakly.
func toRaw(values map[string]string) map[string]any {
	raw := make(map[string]any, len(values))
	for k, v := range values {
		raw[k] = v
	}
	return raw
}

func listRooms(ctx context.Context, client *apiclient.Client) {
	rooms, err := client.ListRooms(ctx)
	exitOnError(err)

	if len(rooms) == 0 {
		fmt.Println("No rooms")
		return
	}
	for _, rm := range rooms {
		fmt.Printf("  %s  %-8s %-14s %s\n", rm.ID, rm.Phase, rm.FlowRuleID, rm.Title)
	}
}

func status(ctx context.Context, client *apiclient.Client) {
	st, err := client.Status(ctx, *roomID)
	exitOnError(err)

	fmt.Println("\n=== ROOM STATUS ===")
	printRoom(st.Room)
	fmt.Printf("Singing Share: %d%%\n", st.SingingSharePct)

	if st.Current != nil {
		fmt.Printf("\nOn stage: %s - %s\n", st.Current.Title, st.Current.Artist)
	} else {
		fmt.Println("\nNobody on stage")
	}

	fmt.Printf("\nQueue (%d):\n", len(st.Queue))
	for i, r := range st.Queue {
		fmt.Printf("  %2d. %-30s %-20s %s\n", i+1, r.Title, r.Artist, r.Status)
	}

	fmt.Printf("\nSingers (%d):\n", len(st.Room.Singers))
	for _, s := range st.Room.Singers {
		flags := []string{}
		if s.IsHost {
			flags = append(flags, "host")
		}
		if s.IsKicked {
			flags = append(flags, "kicked")
		}
		fmt.Printf("  %s  %-20s requests=%d %s\n", s.ID, s.DisplayName, s.TotalRequests, strings.Join(flags, ","))
	}

	a := st.Recommendation
	fmt.Printf("\nNext: [%s] %s: %s\n\n", a.Status, a.Label, a.Reason)
}

func printRoomResult(rm *httpapi.RoomResponse, err error) {
	exitOnError(err)
	printRoom(rm)
}

func printRoom(rm *httpapi.RoomResponse) {
	s := rm.QueueSettings
	p := rm.Policy
	fmt.Printf("Room: %s (%s)\n", rm.Title, rm.ID)
	fmt.Printf("  Phase: %s\n", rm.Phase)
	fmt.Printf("  Flow Rule: %s (limit=%s/%d rotation=%s first_time_boost=%t)\n",
		rm.FlowRuleID, s.LimitMode, s.LimitCount, s.Rotation, s.FirstTimeBoost)
	fmt.Printf("  Party Policy: karaoke_first=%t min_share=%d%% max_break=%ds max_consecutive=%d queue_guard=%d\n",
		p.KaraokeFirst, p.MinSingingSharePct, p.MaxBreakDurationSec, p.MaxConsecutiveNonKaraokeModes, p.QueueDepthGuardThreshold)
	fmt.Printf("  Active Mode: %s\n", rm.ActiveMode)
	if rm.PendingModeration > 0 {
		fmt.Printf("  Pending Moderation: %d\n", rm.PendingModeration)
	}
}
