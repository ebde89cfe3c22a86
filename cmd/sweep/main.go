package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/morelo/writeback/internal/draft"
	"github.com/morelo/writeback/internal/store"
)

// main runs a single expired-draft sweep pass against the given database.
func main() {
	path := flag.String("db", "./writeback.db", "Path to the SQLite database file")
	batch := flag.Int("batch", draft.DefaultSweepBatch, "Maximum number of drafts removed in one pass")
	flag.Parse()

	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	store.SetLogger(l)

	sqlite, err := store.NewSQLite(*path)
	if err != nil {
		log.Fatalf("Error creating document store: %v", err)
	}
	if err := sqlite.Init(); err != nil {
		log.Fatalf("Error initializing document store: %v", err)
	}
	defer sqlite.Close()

	drafts := draft.NewStore(sqlite, nil, l)
	drafts.SetSweepBatch(*batch)

	removed, err := drafts.SweepExpired(context.Background())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	log.Printf("Removed %d expired drafts", removed)
}
