package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"mentorship/internal/config"
	"mentorship/internal/database"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run upserts the mentor directory into the configured database without
// starting the API.
func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath  = flag.String("config", "configs/config.yaml", "path to config.yaml")
		mentorsPath = flag.String("mentors", "configs/mentors.yaml", "path to mentors.yaml")
		dryRun      = flag.Bool("dry-run", false, "validate the directory without writing")
	)
	flag.Parse()

	mentors, err := config.LoadMentors(*mentorsPath)
	if err != nil {
		return fmt.Errorf("load mentors: %w", err)
	}
	if len(mentors) == 0 {
		return fmt.Errorf("no mentors in %s", *mentorsPath)
	}
	if *dryRun {
		fmt.Printf("ok: %d mentors\n", len(mentors))
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.Database, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	for _, m := range mentors {
		_, err := db.GetMentor(ctx, m.ID)
		switch {
		case errors.Is(err, database.ErrMentorNotFound):
			created++
		case err != nil:
			return fmt.Errorf("get mentor %d: %w", m.ID, err)
		}
	}

	if err := db.UpsertMentors(ctx, mentors); err != nil {
		return fmt.Errorf("upsert mentors: %w", err)
	}

	fmt.Printf("done: created=%d updated=%d\n", created, len(mentors)-created)
	return nil
}
