// Command apiserver runs the object store (C1) behind the HTTP+WS API
// described in §6: CRUD plus watch for every kind, and the bindings
// special-case that stamps PodScheduled on the target pod (§4.4).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/costinm/minik8s/pkg/apiserver"
	"github.com/costinm/minik8s/pkg/config"
	"github.com/costinm/minik8s/pkg/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a cluster config YAML file")
		listenAddr = flag.String("listen", ":8080", "HTTP/WS listen address")
		dbPath     = flag.String("db", "minik8s.db", "path to the bbolt database file")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	srv := apiserver.New(st, log)
	httpSrv := &http.Server{Addr: *listenAddr, Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SyncPeriod)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "err", err)
		}
	}()

	log.Info("apiserver listening", "addr", *listenAddr, "db", *dbPath)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("serve", "err", err)
		os.Exit(1)
	}
}
