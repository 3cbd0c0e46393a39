package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rollcall/rollcall/internal/fixtures"
	"github.com/rollcall/rollcall/pkg/logger"
)

// Default generation sizes.
const (
	defaultRosterSize = 50
	defaultEventCount = 400
)

func main() {
	var (
		dir        = flag.String("dir", "fixtures", "Directory to write the fixture CSVs to")
		rosterSize = flag.Int("roster", defaultRosterSize, "Number of roster identities to generate")
		eventCount = flag.Int("events", defaultEventCount, "Number of activity-log rows to generate")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "RNG seed; fix it to reproduce a set")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := &fixtures.Config{
		Dir:        *dir,
		RosterSize: *rosterSize,
		EventCount: *eventCount,
		Seed:       *seed,
	}

	if _, err := fixtures.Run(context.Background(), cfg); err != nil {
		os.Stderr.WriteString("fixture generation failed: " + err.Error() + "\n")
		_ = logger.Sync()
		os.Exit(1)
	}
}
