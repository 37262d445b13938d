package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kotwijzer.be/internal/audit"
	"kotwijzer.be/internal/auth"
	"kotwijzer.be/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("KOTWIJZER_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "migrations", "Path to SQL migrations")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or KOTWIJZER_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status|bootstrap]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "bootstrap":
		err = bootstrapAdmin(ctx, db)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// bootstrapAdmin seeds the initial super_admin from the environment. The seed
// is idempotent, so rerunning deployments is safe.
func bootstrapAdmin(ctx context.Context, db *sql.DB) error {
	email := os.Getenv("KOTWIJZER_ADMIN_EMAIL")
	password := os.Getenv("KOTWIJZER_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return fmt.Errorf("KOTWIJZER_ADMIN_EMAIL and KOTWIJZER_ADMIN_PASSWORD are required")
	}
	recorder, err := audit.NewRecorder(db)
	if err != nil {
		return err
	}
	return auth.Bootstrap(ctx, auth.NewPGUserStore(db), recorder, email, password)
}
