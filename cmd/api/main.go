package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kotwijzer.be/internal/audit"
	"kotwijzer.be/internal/auth"
	"kotwijzer.be/internal/cms"
	"kotwijzer.be/internal/httpapi"
	"kotwijzer.be/internal/obs"
	"kotwijzer.be/internal/ratelimit"
)

var version = "0.3.0"

func main() {
	obs.Init()

	dsn := os.Getenv("KOTWIJZER_PG_DSN")
	if dsn == "" {
		log.Fatal("KOTWIJZER_PG_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	authSvc, err := auth.NewService(auth.NewPGUserStore(db))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	recorder, err := audit.NewRecorder(db)
	if err != nil {
		log.Fatalf("audit recorder: %v", err)
	}
	cmsSvc, err := cms.NewService(cms.NewPGKotStore(db), cms.NewPGVestigingStore(db), recorder)
	if err != nil {
		log.Fatalf("cms service: %v", err)
	}
	userSvc, err := cms.NewUserService(auth.NewPGUserStore(db), recorder)
	if err != nil {
		log.Fatalf("user service: %v", err)
	}

	cfg := httpapi.Config{
		Version:       version,
		SecureCookies: os.Getenv("KOTWIJZER_ENV") == "production",
		RateBurst:     40,
		RatePerSec:    20,
	}
	api := httpapi.New(cfg, authSvc, cmsSvc, userSvc, recorder,
		ratelimit.New(), httpapi.ReadyProbe{DB: db})

	addr := os.Getenv("KOTWIJZER_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting kotwijzer-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
