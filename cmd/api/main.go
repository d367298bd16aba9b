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

	"grouple.org/internal/auth"
	"grouple.org/internal/group"
	"grouple.org/internal/httpapi"
	"grouple.org/internal/obs"
	"grouple.org/internal/store/memory"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret, err := auth.DecodeSecret(os.Getenv("GROUPLE_AUTH_SECRET"))
	if err != nil {
		log.Fatalf("decode auth secret: %v", err)
	}
	signer, err := auth.NewTokenSigner(secret)
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}

	// Postgres when a DSN is configured; otherwise the in-memory store,
	// which is enough for local development.
	var (
		db        *sql.DB
		users     auth.UserStore
		relations auth.RelationStore
		groups    group.Store
	)
	if dsn := os.Getenv("GROUPLE_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		authStore := auth.NewPGStore(db)
		users, relations = authStore, authStore
		groups = group.NewPGStore(db)
	} else {
		log.Println("GROUPLE_PG_DSN not set; using in-memory store")
		mem := memory.New()
		users, relations, groups = mem, mem, mem
	}

	api := httpapi.New(httpapi.Config{
		Auth:       auth.NewService(users, signer),
		Tokens:     signer,
		Policy:     auth.NewPolicy(relations),
		Groups:     group.NewService(groups),
		ReadyProbe: httpapi.ReadyProbe{DB: db},
		Version:    version,
	})

	handler := httpapi.RateLimit(api.Handler(), 50, 25)

	addr := os.Getenv("GROUPLE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting grouple-api %s on %s", version, srv.Addr)

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
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
