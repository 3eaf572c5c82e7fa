package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/userkeeper/internal/client/api"
	"github.com/dmitrijs2005/userkeeper/internal/client/cli"
	"github.com/dmitrijs2005/userkeeper/internal/client/config"
	"github.com/dmitrijs2005/userkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/userkeeper/internal/client/services"
	"github.com/dmitrijs2005/userkeeper/internal/client/storage"
	"github.com/dmitrijs2005/userkeeper/internal/filex"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := storage.Open(ctx, filepath.Join(dir, "session.db"))
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer db.Close()

	session := services.NewSessionService(
		api.New(cfg.ServerURL, cfg.RequestTimeout),
		metadata.NewSQLiteRepository(db),
	)

	app := cli.NewApp(cfg, session, os.Stdin, os.Stdout)
	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
