// Command controller-manager runs every control loop C4–C8 against a
// single object server: the scheduler, the ReplicaSet controller, the HPA
// controller, the endpoints controller and the GpuJob controller. They
// never talk to each other directly — only through object state read and
// written via pkg/client (§3, §5).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/costinm/minik8s/pkg/client"
	"github.com/costinm/minik8s/pkg/config"
	"github.com/costinm/minik8s/pkg/endpoints"
	"github.com/costinm/minik8s/pkg/gpujob"
	"github.com/costinm/minik8s/pkg/hpa"
	"github.com/costinm/minik8s/pkg/metrics"
	"github.com/costinm/minik8s/pkg/replicaset"
	"github.com/costinm/minik8s/pkg/scheduler"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a cluster config YAML file")
		metricsAddr = flag.String("metrics-listen", ":8081", "self-metrics HTTP listen address")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	cl := client.New(cfg.APIServerURL, cfg.APIServerWatchURL)

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	algo := &scheduler.Simple{LivenessWindow: cfg.NodeLivenessWindow}
	schedCtrl := scheduler.New(cl, algo, rec, log.With("controller", "scheduler"))
	rsCtrl := replicaset.New(cl, rec, log.With("controller", "replicaset"))
	epCtrl := endpoints.New(cl, rec, log.With("controller", "endpoints"))
	jobCtrl := gpujob.New(cl, rec, log.With("controller", "gpujob"))

	metricsSource := hpa.NewHTTPMetricsSource(cfg.MetricsSourceURL)
	hpaCtrl := hpa.New(cl, metricsSource, cfg.SyncPeriod, rec, log.With("controller", "hpa"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go schedCtrl.Run(ctx)
	go rsCtrl.Run(ctx)
	go epCtrl.Run(ctx)
	go jobCtrl.Run(ctx)
	go hpaCtrl.Run(ctx)

	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server failed", "err", err)
		}
	}()

	log.Info("controller-manager started", "api_server", cfg.APIServerURL, "metrics_addr", *metricsAddr)
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SyncPeriod)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("controller-manager shutting down")
}
