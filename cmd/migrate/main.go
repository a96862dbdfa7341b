package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/geodraw/internal/pkg/config"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|status>")
	}

	cfg, err := config.Load("geodraw-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		migrateUp(ctx, pool)
	case "down":
		migrateDown(ctx, pool)
	case "status":
		status(ctx, pool)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// migrationNames returns the migration base names (without .up.sql) in
// apply order.
func migrationNames() []string {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		log.Fatalf("glob migrations: %v", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(filepath.Base(f), ".up.sql"))
	}
	sort.Strings(names)
	return names
}

func applied(ctx context.Context, pool *pgxpool.Pool) map[string]bool {
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}
	done := make(map[string]bool, len(names))
	for _, n := range names {
		done[n] = true
	}
	return done
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool) {
	done := applied(ctx, pool)
	count := 0
	for _, name := range migrationNames() {
		if done[name] {
			continue
		}
		run(ctx, pool, name, ".up.sql", `INSERT INTO schema_migrations (name) VALUES ($1)`)
		fmt.Printf("UP    %s\n", name)
		count++
	}
	log.Printf("%d migration(s) applied", count)
}

// migrateDown reverts the most recent applied migration.
func migrateDown(ctx context.Context, pool *pgxpool.Pool) {
	done := applied(ctx, pool)
	names := migrationNames()
	for i := len(names) - 1; i >= 0; i-- {
		if !done[names[i]] {
			continue
		}
		run(ctx, pool, names[i], ".down.sql", `DELETE FROM schema_migrations WHERE name = $1`)
		fmt.Printf("DOWN  %s\n", names[i])
		return
	}
	log.Println("nothing to revert")
}

func status(ctx context.Context, pool *pgxpool.Pool) {
	done := applied(ctx, pool)
	for _, name := range migrationNames() {
		state := "pending"
		if done[name] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, name)
	}
}

// run executes one migration file and records it in the same transaction.
func run(ctx context.Context, pool *pgxpool.Pool, name, suffix, record string) {
	path := filepath.Join(migrationsDir, name+suffix)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, record, name)
		return err
	})
	if err != nil {
		log.Fatalf("exec %s: %v", path, err)
	}
}
