// Command registryd runs WIND's registry server: the authoritative,
// in-memory directory of live services (spec.md §4.2/§4.3).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mvishiu11/WIND/config"
	"github.com/mvishiu11/WIND/internal/wlog"
	"github.com/mvishiu11/WIND/registry"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (optional)")
	dev := flag.Bool("dev", false, "use human-readable development logging")
	flag.Parse()

	cfg, err := config.Load(*configFile, nil)
	if err != nil {
		panic(err)
	}

	opts := wlog.DefaultOptions()
	opts.Development = *dev
	log, err := wlog.New(opts)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store := registry.NewStore(log)
	srv := registry.NewServer(store, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting registry", zap.String("bind", cfg.Registry.Bind), zap.Duration("sweep_interval", cfg.SweepInterval()))
	if err := srv.ListenAndServe(ctx, cfg.Registry.Bind, cfg.SweepInterval()); err != nil {
		log.Error("registry server exited", zap.Error(err))
		os.Exit(1)
	}
}
