package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"etx2mission/pkg/flsql"
	"etx2mission/pkg/logging"
	"etx2mission/pkg/options"
	"etx2mission/pkg/web"
)

var GitCommit = "local"
var GitTag = "0.0.0"

func getVersion() string {
	return fmt.Sprintf("%s %s commit:%s", filepath.Base(os.Args[0]), GitTag, GitCommit)
}

func main() {
	options.ParseCLI(getVersion)
	logging.Setup(options.Config.LogLevel, options.Config.LogFormat)

	if err := options.Config.Validate(); err != nil {
		log.Fatalf("missionweb: %v\n", err)
	}

	settings := web.Settings{Defaults: options.Config}
	if options.Config.Sql != "" {
		db, err := flsql.NewSQLliteDB(options.Config.Sql)
		if err != nil {
			log.Fatalf("missionweb: %+v\n", err)
		}
		defer db.Close()
		settings.Archive = db
	}

	app := web.New(settings)
	go func() {
		slog.Info("server starting", "addr", options.Config.Listen, "version", getVersion())
		if err := app.Listen(options.Config.Listen); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
