// Command exchanged runs the ingestion-and-matching pipeline: ingress,
// sequencer, matcher, and trade-logger stages wired together and pinned to
// their configured cores.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rishav/exchanged/internal/config"
	"github.com/rishav/exchanged/internal/pipeline"
)

func main() {
	var configFile string

	root := &cobra.Command{
		Use:   "exchanged",
		Short: "low-latency order book ingestion and matching pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configFile)
		},
	}

	flags := root.Flags()
	flags.String("listen-addr", "", "multicast address:port to join for the market-data feed")
	flags.String("trade-log", "", "path to the line-oriented trade log")
	flags.String("metrics-addr", "", "address for the Prometheus /metrics endpoint")
	flags.Int("ring-capacity", 0, "capacity of each SPSC ring (power of two)")
	flags.Int("sequencer-window", 0, "gap-buffer reorder window W (power of two)")
	flags.Int("max-levels-per-side", 0, "maximum distinct price levels per side")
	flags.Int("max-orders-per-level", 0, "maximum resting orders per price level")
	flags.Uint64("max-order-id", 0, "maximum order reference number accepted")
	flags.Int64("listing-fee-micros", -1, "fixed listing fee, in millionths of a currency unit")
	flags.Uint64("fee-bps", 0, "trade fee, in basis points of notional")
	flags.Int("ingress-core", -1, "CPU core pinned to the ingress stage")
	flags.Int("sequencer-core", -1, "CPU core pinned to the sequencer stage")
	flags.Int("matcher-core", -1, "CPU core pinned to the matcher stage")
	flags.Int("logger-core", -1, "CPU core pinned to the trade-logger stage")
	flags.Int("idle-sleep-micros", -1, "backoff sleep, in microseconds, when a stage is idle")
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, configFile string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		log.Error("loading configuration", zap.Error(err))
		return err
	}

	group, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		log.Error("resolving market-data address", zap.Error(err))
		return err
	}
	conn, err := net.ListenMulticastUDP("udp", nil, group)
	if err != nil {
		log.Error("opening market-data socket", zap.Error(err))
		return err
	}
	defer conn.Close()

	reg := prometheus.NewRegistry()
	orch, err := pipeline.New(cfg, pipeline.PacketConnSource{Conn: conn}, log, reg)
	if err != nil {
		log.Error("initializing pipeline", zap.Error(err))
		return err
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	orch.Start()
	log.Info("pipeline started",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("trade_log", cfg.TradeLog),
		zap.String("metrics_addr", cfg.MetricsAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	_ = metricsSrv.Close()

	if err := orch.Shutdown(); err != nil {
		log.Error("shutdown", zap.Error(err))
		return err
	}
	return nil
}
