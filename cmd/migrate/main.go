// ABOUTME: Migration utility that copies people between the SQLite and Badger stores.
// ABOUTME: Provides dry-run and backup capabilities; people already in the target are skipped.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/contactshq/config"
	"github.com/harperreed/contactshq/db"
	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/kv"
	"github.com/harperreed/contactshq/logging"
	"github.com/harperreed/contactshq/models"
)

func main() {
	from := flag.String("from", config.StoreSQLite, "Source store: sqlite or badger")
	to := flag.String("to", config.StoreBadger, "Target store: sqlite or badger")
	dbPath := flag.String("db", "", "SQLite database path (default from config)")
	badgerDir := flag.String("badger-dir", "", "Badger directory (default from config)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up the target SQLite file before writing")
	flag.Parse()

	if *from == *to {
		log.Fatal("Error: -from and -to must name different stores")
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *badgerDir != "" {
		cfg.BadgerDir = *badgerDir
	}

	logger, err := logging.New(cfg.LogLevel, "")
	if err != nil {
		log.Fatalf("Failed to start logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if *backup && !*dryRun && *to == config.StoreSQLite {
		if err := backupFile(cfg.DBPath); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
	}

	src, closeSrc, err := openStore(*from, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *from, err)
	}
	defer func() { _ = closeSrc() }()

	dst, closeDst, err := openStore(*to, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *to, err)
	}
	defer func() { _ = closeDst() }()

	res, err := migrate(context.Background(), src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *dryRun {
		log.Printf("[DRY RUN] Would copy %d person(s) from %s to %s (%d already present)", res.Copied, *from, *to, res.Skipped)
		return
	}
	log.Printf("Migration completed successfully: %d copied, %d already present", res.Copied, res.Skipped)
}

type result struct {
	Copied  int
	Skipped int
}

// migrate copies every person in src that dst does not already hold, in one batch.
// Copies are restamped with the time of the copy.
func migrate(ctx context.Context, src, dst gateway.Repository, dryRun bool) (result, error) {
	people, err := src.List(ctx)
	if err != nil {
		return result{}, fmt.Errorf("failed to read source: %w", err)
	}

	var res result
	var pending []*models.Person
	for _, p := range people {
		_, err := dst.Get(ctx, p.ID())
		switch {
		case err == nil:
			res.Skipped++
			continue
		case !errors.Is(err, gateway.ErrNotFound):
			return result{}, fmt.Errorf("failed to check target for %s: %w", p.ID(), err)
		}
		pending = append(pending, p)
	}
	res.Copied = len(pending)

	if dryRun || len(pending) == 0 {
		return res, nil
	}
	if err := dst.InsertBatch(ctx, pending); err != nil {
		return result{}, fmt.Errorf("failed to write target: %w", err)
	}
	if err := dst.Flush(ctx); err != nil {
		return result{}, fmt.Errorf("failed to flush target: %w", err)
	}
	return res, nil
}

func openStore(name string, cfg *config.Config, logger *zap.Logger) (gateway.Repository, func() error, error) {
	switch name {
	case config.StoreSQLite:
		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db.NewPeopleRepository(database), database.Close, nil
	case config.StoreBadger:
		store, err := kv.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, name)
}

func backupFile(path string) error {
	in, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	defer func() { _ = in.Close() }()

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)

	out, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return out.Close()
}
