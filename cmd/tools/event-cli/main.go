package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/frozen-forest/internal/eventbus"
	nats "github.com/nats-io/nats.go"
)

const (
	defaultNATSURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05.000"
)

type TailOptions struct {
	EventTypes []string
	Since      time.Duration
	Limit      int
	Follow     bool
}

func main() {
	var (
		natsURL    = flag.String("nats", defaultNATSURL, "NATS server URL")
		stream     = flag.String("stream", "GAME_EVENTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated, e.g. tile.activated,entity.died)")
		since      = flag.Duration("since", time.Hour, "Replay events newer than this duration")
		limit      = flag.Int("limit", 100, "Maximum number of events (0 = unlimited)")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
	)
	flag.Parse()

	nc, err := nats.Connect(*natsURL, nats.Name("frozen-forest-event-cli"))
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("❌ JetStream unavailable: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "tail":
		if err := tailEvents(ctx, js, &TailOptions{
			EventTypes: parseStringList(*eventTypes),
			Since:      *since,
			Limit:      *limit,
			Follow:     *follow,
		}); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		if err := showStats(js, *stream); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
}

// tailEvents выводит события из стрима, начиная с now-since
func tailEvents(ctx context.Context, js nats.JetStreamContext, opts *TailOptions) error {
	fmt.Printf("🎬 Tailing events (since: %s, limit: %d, follow: %v)\n", opts.Since, opts.Limit, opts.Follow)

	sub, err := js.SubscribeSync(eventbus.Subject(">"),
		nats.OrderedConsumer(),
		nats.StartTime(time.Now().Add(-opts.Since)),
	)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	shown := 0
	for opts.Limit == 0 || shown < opts.Limit {
		wait := 2 * time.Second
		if opts.Follow {
			wait = time.Minute
		}
		msgCtx, cancel := context.WithTimeout(ctx, wait)
		msg, err := sub.NextMsgWithContext(msgCtx)
		cancel()

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			if opts.Follow && ctx.Err() == nil {
				continue
			}
			fmt.Printf("📭 No more events (%d shown)\n", shown)
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}

		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Printf("⚠️ %s: malformed envelope: %v\n", msg.Subject, err)
			continue
		}
		if !matchTypes(ev.EventType, opts.EventTypes) {
			continue
		}
		printEvent(&ev)
		shown++
	}

	fmt.Printf("✅ Limit reached (%d events)\n", shown)
	return nil
}

func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] frame=%-6d %-20s %s\n",
		ev.Timestamp.Local().Format(timeFormat), ev.Frame, ev.EventType, string(ev.Payload))
}

// showStats печатает состояние стрима
func showStats(js nats.JetStreamContext, stream string) error {
	info, err := js.StreamInfo(stream)
	if err != nil {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}

	fmt.Printf("📊 Stream %s\n", info.Config.Name)
	fmt.Printf("   Subjects:  %s\n", strings.Join(info.Config.Subjects, ", "))
	fmt.Printf("   Messages:  %d\n", info.State.Msgs)
	fmt.Printf("   Bytes:     %d\n", info.State.Bytes)
	fmt.Printf("   First:     %s\n", info.State.FirstTime.Local().Format(time.RFC3339))
	fmt.Printf("   Last:      %s\n", info.State.LastTime.Local().Format(time.RFC3339))
	fmt.Printf("   Retention: %s\n", info.Config.MaxAge)
	return nil
}

func matchTypes(eventType string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == eventType {
			return true
		}
	}
	return false
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
