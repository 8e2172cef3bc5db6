package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/overworld/internal/eventbus"
)

const timeFormat = "15:04:05.000"

func main() {
	var (
		url        = flag.String("url", "nats://127.0.0.1:4222", "NATS server URL")
		stream     = flag.String("stream", "OVERWORLD", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		duration   = flag.Duration("for", 30*time.Second, "How long to listen (stats, or tail without -follow)")
		follow     = flag.Bool("follow", false, "Follow new events until interrupted (like tail -f)")
		since      = flag.Duration("since", 0, "Replay stored events not older than this before listening")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*url, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if !*follow || *command == "stats" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}

	subscribe := bus.Subscribe
	if *since > 0 {
		from := time.Now().Add(-*since)
		subscribe = func(ctx context.Context, f eventbus.Filter, h eventbus.Handler) (eventbus.Subscription, error) {
			return bus.Replay(ctx, f, from, h)
		}
	}

	switch *command {
	case "tail":
		if err := tailEvents(ctx, subscribe, filter); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(ctx, subscribe, filter); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
}

type subscribeFunc func(ctx context.Context, f eventbus.Filter, h eventbus.Handler) (eventbus.Subscription, error)

// tailEvents выводит события в реальном времени
func tailEvents(ctx context.Context, subscribe subscribeFunc, filter eventbus.Filter) error {
	fmt.Printf("🎬 Tailing events %v\n", typesLabel(filter.Types))

	sub, err := subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		fmt.Printf("%s %-16s %s %s\n", ev.Timestamp.Format(timeFormat), ev.EventType, ev.Source, string(ev.Payload))
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}

// showStats считает события по типам за время прослушивания
func showStats(ctx context.Context, subscribe subscribeFunc, filter eventbus.Filter) error {
	var mu sync.Mutex
	counts := make(map[string]int)

	sub, err := subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		counts[ev.EventType]++
		mu.Unlock()
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("📊 Collecting stats %v...\n", typesLabel(filter.Types))
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()

	types := make([]string, 0, len(counts))
	total := 0
	for t, n := range counts {
		types = append(types, t)
		total += n
	}
	sort.Strings(types)

	for _, t := range types {
		fmt.Printf("  %-20s %d\n", t, counts[t])
	}
	fmt.Printf("  %-20s %d\n", "total", total)
	return nil
}

func typesLabel(types []string) string {
	if len(types) == 0 {
		return "(all types)"
	}
	return "(" + strings.Join(types, ", ") + ")"
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
